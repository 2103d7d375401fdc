package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"mungboard/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	PostListVersionKey = "posts:list:version"
	postListKeyFormat  = "posts:v%d:%s"
	UserKeyPrefix      = "user:%d"
)

const (
	DefaultListTTL = 30 * time.Second
	UserTTL        = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PostListKey builds a list key stamped with the current list version, so a
// version bump orphans every cached page at once.
func PostListKey(ctx context.Context, suffix string) (string, bool) {
	if client == nil {
		return "", false
	}
	version, err := client.Get(ctx, PostListVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "post list version unavailable", slog.String("error", err.Error()))
		return "", false
	}
	return fmt.Sprintf(postListKeyFormat, version, suffix), true
}

// List key suffixes, one per cached list variant.
func AllPostsSuffix() string { return "all" }

func CategorySuffix(category string) string { return "category:" + category }

func PageSuffix(size, offset int) string {
	return "page:" + strconv.Itoa(size) + ":" + strconv.Itoa(offset)
}

func UserPostsSuffix(userID uint) string { return fmt.Sprintf("user:%d", userID) }

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePostLists bumps the list version after any post mutation.
func InvalidatePostLists(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Incr(ctx, PostListVersionKey).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to invalidate post lists", slog.String("error", err.Error()))
	}
}
