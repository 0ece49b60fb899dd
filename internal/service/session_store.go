package service

import (
	"context"
	"fmt"
	"time"

	"dental-referral-tracker/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SessionStore tracks which issued tokens are still active.
type SessionStore interface {
	Save(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) error
}

type redisSessionStore struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisSessionStore(client *redis.Client, log *logrus.Logger) SessionStore {
	return &redisSessionStore{client: client, log: log}
}

// SessionKey builds the Redis key of an issued token.
// Access tokens live under session:, refresh tokens under refresh:.
func SessionKey(tokenType jwt.TokenType, staffID int64, tokenID string) string {
	prefix := "session"
	if tokenType == jwt.RefreshToken {
		prefix = "refresh"
	}
	return fmt.Sprintf("%s:%d:%s", prefix, staffID, tokenID)
}

func (s *redisSessionStore) Save(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, SessionKey(tokenType, staffID, tokenID), "valid", ttl).Err(); err != nil {
		s.log.Warnf("Failed to store %s token in Redis: %+v", tokenType, err)
		return err
	}
	return nil
}

func (s *redisSessionStore) Exists(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) (bool, error) {
	exists, err := s.client.Exists(ctx, SessionKey(tokenType, staffID, tokenID)).Result()
	if err != nil {
		s.log.Warnf("Failed to check %s token in Redis: %+v", tokenType, err)
		return false, err
	}
	return exists > 0, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) error {
	if err := s.client.Del(ctx, SessionKey(tokenType, staffID, tokenID)).Err(); err != nil {
		s.log.Warnf("Failed to delete %s token from Redis: %+v", tokenType, err)
		return err
	}
	return nil
}
