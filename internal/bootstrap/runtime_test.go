package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"mungboard/internal/cache"
	"mungboard/internal/config"
	"mungboard/internal/models"
	"mungboard/internal/seed"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func sqliteConfig(t *testing.T, env, redisAddr string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:          env,
		DBDriver:     "sqlite",
		DBSQLitePath: filepath.Join(t.TempDir(), "board.db"),
		DBSchemaMode: "hybrid",
		RedisURL:     redisAddr,
	}
}

func closeDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
}

func tinyPreset() *seed.Preset {
	return &seed.Preset{Name: "tiny", Users: 2, PostsPerUser: 1, CommentsPerPost: 2, Categories: []string{"free"}, UserPassword: "password123", PostPassword: "pw"}
}

func TestInitRuntime_SeedsEmptyDevelopmentDB(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := sqliteConfig(t, "development", mr.Addr())
	db, rdb, err := InitRuntime(context.Background(), cfg, Options{SeedDemo: true, Preset: tinyPreset()})
	require.NoError(t, err)
	closeDB(t, db)
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 2, users)
	assert.EqualValues(t, 2, posts)

	// A second run finds users and leaves the data alone.
	require.NoError(t, seedDemo(context.Background(), cfg, db, tinyPreset()))
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 2, users)
}

func TestInitRuntime_NoSeedOutsideDevelopment(t *testing.T) {
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := sqliteConfig(t, "staging", "redis://localhost:notaport")
	db, rdb, err := InitRuntime(context.Background(), cfg, Options{SeedDemo: true, Preset: tinyPreset()})
	require.NoError(t, err)
	closeDB(t, db)
	assert.Nil(t, rdb)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestInitRuntime_BadDriver(t *testing.T) {
	_, _, err := InitRuntime(context.Background(), &config.Config{DBDriver: "oracle"}, Options{})
	assert.Error(t, err)
}
