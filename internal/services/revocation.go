package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokedTokenKeyPrefix is the Redis key prefix for revoked bearer tokens.
const RevokedTokenKeyPrefix = "revoked_token:"

// RevocationService blacklists bearer tokens in Redis. Tokens are stored by
// hash so the raw credential never lands in Redis; entries expire together
// with the token itself.
type RevocationService struct {
	rdb *redis.Client
}

func NewRevocationService(rdb *redis.Client) *RevocationService {
	return &RevocationService{rdb: rdb}
}

// Revoke blacklists a token for ttl (normally the token's remaining lifetime).
func (s *RevocationService) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, RevokedTokenKeyPrefix+tokenKey(token), "1", ttl).Err()
}

// IsRevoked reports whether the token has been blacklisted.
func (s *RevocationService) IsRevoked(ctx context.Context, token string) (bool, error) {
	count, err := s.rdb.Exists(ctx, RevokedTokenKeyPrefix+tokenKey(token)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
