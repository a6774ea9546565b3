package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRecordStore guarda cada UsageRecord como string (JSON) em uma chave Redis.
//
// Os registros não expiram: o reset diário é feito pelo tracker ao ler.
type RedisRecordStore struct {
	rdb redis.UniversalClient
}

func NewRedisRecordStore(rdb redis.UniversalClient) *RedisRecordStore {
	return &RedisRecordStore{rdb: rdb}
}

func (s *RedisRecordStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisRecordStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}
