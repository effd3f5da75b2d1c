package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/devcrafted/socialflow/internal/cache"
	"github.com/devcrafted/socialflow/internal/metrics"
	"github.com/devcrafted/socialflow/pkg/models"
)

// sessionValidator resolves opaque session tokens for the auth middleware,
// consulting the cache before the store. Sessions are cached by token hash so
// the plaintext never lands in Redis.
type sessionValidator struct {
	store Store
	cache *cache.Cache
}

// hashSessionToken mirrors the hashing the store applies before persisting
func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (v *sessionValidator) GetSessionByToken(ctx context.Context, token string) (*models.UserSession, error) {
	hash := hashSessionToken(token)

	cached, err := v.cache.GetSession(ctx, hash)
	if err == nil && cached != nil && !cached.Expired(time.Now()) {
		metrics.RecordCacheAccess("session", true)
		return cached, nil
	}
	metrics.RecordCacheAccess("session", false)

	session, err := v.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	_ = v.cache.SetSession(ctx, session, sessionCacheTTL)

	return session, nil
}
