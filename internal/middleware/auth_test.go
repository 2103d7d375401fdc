package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signRaw(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthRequired(t *testing.T) {
	auth := NewAuth(testSecret, nil)
	app := fiber.New()
	app.Get("/test", auth.Required(), func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		return c.JSON(fiber.Map{"userID": id.UserID, "nickname": id.Nickname})
	})

	valid, err := auth.Issue(123, "mung")
	require.NoError(t, err)

	wrongAudience := signRaw(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "123",
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{"someone-else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, testSecret)
	expired := signRaw(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "123",
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}, testSecret)
	otherSecret := signRaw(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "123",
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, "another-secret-another-secret-another-secret")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized, 0},
		{"Wrong Audience", "Bearer " + wrongAudience, http.StatusUnauthorized, 0},
		{"Wrong Secret", "Bearer " + otherSecret, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body struct {
					UserID   uint   `json:"userID"`
					Nickname string `json:"nickname"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body.UserID)
				assert.Equal(t, "mung", body.Nickname)
			}
		})
	}
}

func TestAuthOptional_AnonymousPassesThrough(t *testing.T) {
	auth := NewAuth(testSecret, nil)
	app := fiber.New()
	app.Get("/test", auth.Optional(), func(c *fiber.Ctx) error {
		return c.SendString(strconv.FormatBool(IdentityFrom(c).Anonymous()))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "true", string(body))
}

func TestAuth_RevokedTokenRejected(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	auth := NewAuth(testSecret, rdb)
	token, err := auth.Issue(7, "reply-guy")
	require.NoError(t, err)

	claims, err := auth.Parse(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, auth.Revoke(context.Background(), claims))
	assert.True(t, mr.Exists(revokedKeyPrefix+claims.ID))

	_, err = auth.Parse(context.Background(), token)
	assert.ErrorIs(t, err, errRevokedToken)
}
