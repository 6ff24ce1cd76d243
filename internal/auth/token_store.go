package auth

import (
	"context"
	"time"

	"paperless/internal/cache"
)

const revokedTokenKeyPrefix = "blacklist:access_token:"

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) bool
}

// TokenStore keeps revoked token ids in Redis until the tokens expire.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// BlacklistToken revokes a token for the rest of its lifetime.
func (s *TokenStore) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsTokenBlacklisted reports whether a token was revoked. An unreachable
// cache reports false.
func (s *TokenStore) IsTokenBlacklisted(ctx context.Context, tokenID string) bool {
	if tokenID == "" {
		return false
	}
	return s.cache.Exists(ctx, revokedTokenKeyPrefix+tokenID)
}
