package service

import (
	"context"
	"fmt"
	"time"

	"medical-messenger/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore is the allowlist of issued, unrevoked session tokens.
type TokenStore interface {
	Allow(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, ttl time.Duration) error
	IsAllowed(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error
}

type redisTokenStore struct {
	redisClient *redis.Client
}

func NewRedisTokenStore(redisClient *redis.Client) TokenStore {
	return &redisTokenStore{redisClient: redisClient}
}

// TokenKey is access_token:<user>:<token> or refresh_token:<user>:<token>.
func TokenKey(tokenType jwt.TokenType, userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s_token:%s:%s", tokenType, userID.String(), tokenID)
}

func (s *redisTokenStore) Allow(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	return s.redisClient.Set(ctx, TokenKey(tokenType, userID, tokenID), "valid", ttl).Err()
}

func (s *redisTokenStore) IsAllowed(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error) {
	exists, err := s.redisClient.Exists(ctx, TokenKey(tokenType, userID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error {
	return s.redisClient.Del(ctx, TokenKey(tokenType, userID, tokenID)).Err()
}
