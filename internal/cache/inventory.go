package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	ForumKeyPrefix = "forum:%d"
)

const (
	UserTTL  = 5 * time.Minute
	ForumTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ForumKey(forumID uint) string {
	return fmt.Sprintf(ForumKeyPrefix, forumID)
}

// Aside implements the cache-aside pattern: it fills dest from the cache when
// the key is present, otherwise calls load and stores the result. Cache errors
// degrade to a plain load so Redis outages never fail reads.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client != nil {
		// Any cache error, including a miss, falls through to the loader.
		if raw, err := client.Get(ctx, key).Bytes(); err == nil {
			if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
				return nil
			}
			client.Del(ctx, key)
		}
	}

	if err := load(); err != nil {
		return err
	}

	if client != nil {
		if raw, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, raw, ttl)
		}
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateForum(ctx context.Context, forumID uint) {
	Invalidate(ctx, ForumKey(forumID))
}
