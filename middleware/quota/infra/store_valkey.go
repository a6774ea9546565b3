package infra

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

// ValkeyRecordStore é o mesmo slot string do RedisRecordStore, via rueidis
// (Valkey ou Redis com RESP3).
type ValkeyRecordStore struct {
	client rueidis.Client
}

func NewValkeyRecordStore(client rueidis.Client) *ValkeyRecordStore {
	return &ValkeyRecordStore{client: client}
}

// DialValkey cria o client rueidis sem client-side cache: o tracker precisa ler o
// valor mais recente a cada request.
func DialValkey(addrs []string, username, password string, db int) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  addrs,
		Username:     username,
		Password:     password,
		SelectDB:     db,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey client: %w", err)
	}
	return client, nil
}

func (s *ValkeyRecordStore) Get(ctx context.Context, key string) (string, bool, error) {
	cmd := s.client.B().Get().Key(key).Build()
	v, err := s.client.Do(ctx, cmd).ToString()
	if rueidis.IsRedisNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("valkey GET %s: %w", key, err)
	}
	return v, true, nil
}

func (s *ValkeyRecordStore) Set(ctx context.Context, key, value string) error {
	cmd := s.client.B().Set().Key(key).Value(value).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey SET %s: %w", key, err)
	}
	return nil
}
