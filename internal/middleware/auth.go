// Package middleware provides HTTP middleware: identity, logging, tracing, metrics and rate limiting.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mungboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "mungboard-api"
	TokenAudience = "mungboard-client"
	TokenTTL      = 7 * 24 * time.Hour

	revokedKeyPrefix = "blacklist:"
)

var (
	errMissingToken = errors.New("authorization required")
	errRevokedToken = errors.New("token has been revoked")
)

// Claims is the JWT payload. Subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Nickname string `json:"nickname"`
}

// Auth issues and verifies identity tokens. Redis, when present, holds revoked token IDs.
type Auth struct {
	secret []byte
	redis  *redis.Client
}

// NewAuth creates an Auth bound to the signing secret.
func NewAuth(secret string, rdb *redis.Client) *Auth {
	return &Auth{secret: []byte(secret), redis: rdb}
}

// Issue signs a token for the user.
func (a *Auth) Issue(userID uint, nickname string) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Nickname: nickname,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates the token and returns its claims.
func (a *Auth) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if a.redis != nil && claims.ID != "" {
		n, err := a.redis.Exists(ctx, revokedKeyPrefix+claims.ID).Result()
		if err == nil && n > 0 {
			return nil, errRevokedToken
		}
	}
	return claims, nil
}

// Identity converts verified claims into a caller identity.
func (c *Claims) Identity() (models.Identity, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return models.Identity{}, fmt.Errorf("invalid user ID in token")
	}
	return models.Identity{UserID: uint(id), Nickname: c.Nickname}, nil
}

// Revoke blacklists the token's ID until it would have expired anyway.
func (a *Auth) Revoke(ctx context.Context, claims *Claims) error {
	if a.redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return a.redis.Set(ctx, revokedKeyPrefix+claims.ID, "1", ttl).Err()
}

// Required rejects requests without a valid bearer token.
func (a *Auth) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, claims, err := a.authenticate(c)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, errMissingToken) {
				msg = "Authorization required"
			} else if errors.Is(err, errRevokedToken) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}
		attach(c, identity, claims)
		return c.Next()
	}
}

// Optional attaches the identity when a valid token is present and lets anonymous callers through.
func (a *Auth) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity, claims, err := a.authenticate(c); err == nil {
			attach(c, identity, claims)
		}
		return c.Next()
	}
}

func (a *Auth) authenticate(c *fiber.Ctx) (models.Identity, *Claims, error) {
	tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
	if tokenString == "" {
		return models.Identity{}, nil, errMissingToken
	}
	claims, err := a.Parse(c.UserContext(), tokenString)
	if err != nil {
		return models.Identity{}, nil, err
	}
	identity, err := claims.Identity()
	if err != nil {
		return models.Identity{}, nil, err
	}
	return identity, claims, nil
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func attach(c *fiber.Ctx, identity models.Identity, claims *Claims) {
	c.Locals("userID", identity.UserID)
	c.Locals("nickname", identity.Nickname)
	c.Locals("claims", claims)
	ctx := context.WithValue(c.UserContext(), UserIDKey, identity.UserID)
	c.SetUserContext(ctx)
}

// IdentityFrom returns the caller attached by Required or Optional; anonymous otherwise.
func IdentityFrom(c *fiber.Ctx) models.Identity {
	uid, ok := c.Locals("userID").(uint)
	if !ok {
		return models.Identity{}
	}
	nickname, _ := c.Locals("nickname").(string)
	return models.Identity{UserID: uid, Nickname: nickname}
}

// ClaimsFrom returns the verified claims of the current request, if any.
func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals("claims").(*Claims)
	return claims
}
