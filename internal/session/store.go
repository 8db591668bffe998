package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "scs:session:"

// RedisStore adapts the shared go-redis client to the scs.Store interface so
// sessions live next to the price cache instead of in process memory.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Find(token string) ([]byte, bool, error) {
	b, err := s.client.Get(context.Background(), keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.client.Set(context.Background(), keyPrefix+token, b, time.Until(expiry)).Err()
}

func (s *RedisStore) Delete(token string) error {
	return s.client.Del(context.Background(), keyPrefix+token).Err()
}
