package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vaultgate/card-token-service/pkg/database"
)

// RevocationCache mirrors revoked card token strings into Redis so the
// common revoked-token rejection skips a ledger read. The ledger row
// stays authoritative: cache misses and cache errors fall through to
// the database, so authorization outcomes never depend on Redis.
type RevocationCache struct {
	redis *database.Redis
}

// NewRevocationCache creates a new revocation cache
func NewRevocationCache(redis *database.Redis) *RevocationCache {
	return &RevocationCache{redis: redis}
}

// MarkRevoked records a revoked token string until its expiry, after
// which the codec rejects it anyway
func (c *RevocationCache) MarkRevoked(ctx context.Context, signedToken string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := revocationKey(signedToken)
	if err := c.redis.Client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark token revoked: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token string is in the cache
func (c *RevocationCache) IsRevoked(ctx context.Context, signedToken string) (bool, error) {
	exists, err := c.redis.Client.Exists(ctx, revocationKey(signedToken)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation cache: %w", err)
	}
	return exists > 0, nil
}

func revocationKey(signedToken string) string {
	return fmt.Sprintf("revoked:card_token:%s", signedToken)
}
