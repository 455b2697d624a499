// Package cache adds a Redis read-aside layer on top of a TokenStore.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/matchday/go-push-relay/pkg/dispatch"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or a specific error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// CachedTokenStore is a Decorator that adds read-aside caching of per-user
// token lookups to any TokenStore. Broadcast listing always goes to the real
// store: it's rare, and caching the whole recipient set would serve stale
// broadcasts for the full TTL.
type CachedTokenStore struct {
	realStore dispatch.TokenStore
	cache     CacheClient
	ttl       time.Duration
}

// NewCachedTokenStore creates the decorator.
func NewCachedTokenStore(realStore dispatch.TokenStore, cache CacheClient, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedTokenStore) GetToken(ctx context.Context, userID string) (string, error) {
	key := s.cacheKey(userID)

	var cached string
	if err := s.cache.Get(ctx, key, &cached); err == nil && cached != "" {
		return cached, nil
	}

	token, err := s.realStore.GetToken(ctx, userID)
	if err != nil {
		return "", err
	}

	// Populate cache, fire and forget. Caching is an optimization, not a
	// transaction; if Redis is down we just serve from the real store.
	_ = s.cache.Set(ctx, key, token, s.ttl)

	return token, nil
}

func (s *CachedTokenStore) AllTokens(ctx context.Context) ([]string, error) {
	return s.realStore.AllTokens(ctx)
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedTokenStore) RegisterToken(ctx context.Context, userID, token string) error {
	if err := s.realStore.RegisterToken(ctx, userID, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// UnregisterToken clears the cache even though the DB write succeeded, so a
// pruned or disabled token stops receiving notifications immediately.
func (s *CachedTokenStore) UnregisterToken(ctx context.Context, userID string) error {
	if err := s.realStore.UnregisterToken(ctx, userID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// --- Helpers ---

func (s *CachedTokenStore) invalidate(ctx context.Context, userID string) error {
	return s.cache.Del(ctx, s.cacheKey(userID))
}

func (s *CachedTokenStore) cacheKey(userID string) string {
	return fmt.Sprintf("relay:token:%s", userID)
}
