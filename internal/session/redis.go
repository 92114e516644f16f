package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cot-dashboard/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Hash fields of a stored session. auth_token presence is the only check.
const (
	fieldToken     = "auth_token"
	fieldRole      = "user_role"
	fieldUsername  = "username"
	fieldCreatedAt = "created_at"
)

type RedisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps each session in a hash at session:<id> with a TTL.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string { return "session:" + id }

func (s *RedisStore) Save(ctx context.Context, sess domain.Session) error {
	if sess.ID == "" {
		return errors.New("session id is required")
	}
	k := key(sess.ID)
	if err := s.client.HSet(ctx, k,
		fieldToken, sess.Token,
		fieldRole, sess.Role,
		fieldUsername, sess.Username,
		fieldCreatedAt, sess.CreatedAt.UTC().Format(time.RFC3339),
	).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, k, s.ttl).Err(); err != nil {
			return fmt.Errorf("expire session: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, ErrNotFound
	}
	values, err := s.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	token := values[fieldToken]
	if token == "" {
		return domain.Session{}, ErrNotFound
	}
	created, _ := time.Parse(time.RFC3339, values[fieldCreatedAt])
	return domain.Session{
		ID:        id,
		Username:  values[fieldUsername],
		Token:     token,
		Role:      values[fieldRole],
		CreatedAt: created,
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
