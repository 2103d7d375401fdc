package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		Port:                     "8080",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBDriver:                 "postgres",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		AttachmentStore:          "inline",
		AttachmentMaxUploadMB:    5,
		DBConnMaxLifetimeMinutes: 5,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid development", func(*Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite in development", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Unknown attachment store", func(c *Config) { c.AttachmentStore = "ftp" }, true},
		{"S3 without bucket", func(c *Config) { c.AttachmentStore = "s3"; c.S3Region = "us-east-1" }, true},
		{"S3 with bucket", func(c *Config) { c.AttachmentStore = "s3"; c.S3Bucket = "files"; c.S3Region = "us-east-1" }, false},
		{"Zero upload limit", func(c *Config) { c.AttachmentMaxUploadMB = 0 }, true},
		{"Production with default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"Production with sqlite", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite" }, true},
		{"Production with disabled SSL", func(c *Config) { c.Env = "prod"; c.DBSSLMode = "disable" }, true},
		{"Production with weak DB password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"Production fully configured", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("ATTACHMENT_STORE", "INLINE")
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "inline", cfg.AttachmentStore)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 5*1024*1024, cfg.MaxUploadBytes())
	assert.Equal(t, 30, cfg.ListCacheTTLSeconds)
}
