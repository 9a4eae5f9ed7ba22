package services

import (
	"context"
	"time"

	localCache "github.com/deadlybird/deadlybird/pkg/internal/cache"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
)

const sessionTTL = 7 * 24 * time.Hour

func sessionKey(token string) string {
	return "session#" + token
}

// IssueSession creates a login token for an author.
func IssueSession(authorID string) string {
	token := NextID()
	cacheManager := cache.New[any](localCache.S)
	_ = cacheManager.Set(context.Background(), sessionKey(token), authorID,
		store.WithExpiration(sessionTTL),
		store.WithTags([]string{"session"}),
	)
	return token
}

// SessionAuthorID resolves a login token back to its author.
func SessionAuthorID(token string) (string, bool) {
	if len(token) == 0 || localCache.S == nil {
		return "", false
	}
	cacheManager := cache.New[any](localCache.S)
	value, err := cacheManager.Get(context.Background(), sessionKey(token))
	if err != nil {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && len(id) > 0
}

func RevokeSession(token string) {
	cacheManager := cache.New[any](localCache.S)
	_ = cacheManager.Delete(context.Background(), sessionKey(token))
}
