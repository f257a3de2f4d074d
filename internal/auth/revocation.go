package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RevocationStore tracks revoked token IDs in Redis until their natural
// expiry, so logout invalidates otherwise stateless JWTs.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore wraps the Redis client.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks a token ID as revoked for the given remaining lifetime.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if s == nil || s.client == nil || tokenID == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether a token ID has been revoked. Redis outages fail
// open: a missing revocation list must not lock every user out.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) bool {
	if s == nil || s.client == nil || tokenID == "" {
		return false
	}
	exists, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false
	}
	return exists > 0
}
