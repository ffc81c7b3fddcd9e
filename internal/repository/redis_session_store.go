package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-spm/internal/domain"
)

const redisOpTimeout = 500 * time.Millisecond

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSessionStore guarda el registro en Redis, sin expiracion.
type RedisSessionStore struct {
	client redisKVClient
	key    string
}

func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if client == nil {
		return nil
	}
	return &RedisSessionStore{
		client: client,
		key:    prefix + SessionKey,
	}
}

func (s *RedisSessionStore) Load(ctx context.Context) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.User{}, ErrRecordNotFound
		}
		return domain.User{}, fmt.Errorf("redis get session: %w", err)
	}
	return decodeUser(raw)
}

func (s *RedisSessionStore) Save(ctx context.Context, user domain.User) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
