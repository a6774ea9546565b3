package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdfcraft-gateway/config"
	"pdfcraft-gateway/middleware/quota/domain"
	"pdfcraft-gateway/middleware/quota/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// backends guarda o que precisa ser fechado no shutdown.
type backends struct {
	records domain.RecordStore
	stats   domain.StatsStore
	memory  *infra.MemoryStatsStore

	closers []func() error
}

func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func dialRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// openRecords abre o RecordStore escolhido em storage.type.
func openRecords(ctx context.Context, cfg *config.Config, b *backends, logger zerolog.Logger) (*redis.Client, error) {
	switch cfg.Storage.Type {
	case "memory":
		b.records = infra.NewMemoryRecordStore()
		logger.Warn().Msg("memory storage: usage records are lost on restart")

	case "bolt":
		store, err := infra.OpenBoltRecordStore(cfg.Storage.Bolt.Path)
		if err != nil {
			return nil, err
		}
		b.records = store
		b.closers = append(b.closers, store.Close)

	case "redis":
		rdb, err := dialRedis(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, err
		}
		b.records = infra.NewRedisRecordStore(rdb)
		b.closers = append(b.closers, rdb.Close)
		return rdb, nil

	case "valkey":
		v := cfg.Storage.Valkey
		client, err := infra.DialValkey(v.Addrs, v.Username, v.Password, v.DB)
		if err != nil {
			return nil, err
		}
		b.records = infra.NewValkeyRecordStore(client)
		b.closers = append(b.closers, func() error { client.Close(); return nil })

	default:
		return nil, fmt.Errorf("unknown storage.type %q", cfg.Storage.Type)
	}
	return nil, nil
}

// openBackends monta storage e stats. rdb de storage é reaproveitado por stats.type=redis.
func openBackends(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger zerolog.Logger) (*backends, error) {
	b := &backends{}

	rdb, err := openRecords(ctx, cfg, b, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
	}

	switch cfg.Stats.Type {
	case "none":
	case "memory":
		b.memory = infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Stats.TrackKeys))
		b.stats = b.memory

	case "prometheus":
		if reg == nil {
			_ = b.Close()
			return nil, fmt.Errorf("stats.type=prometheus requires a metrics registry (server.metrics=true)")
		}
		s, err := infra.NewPrometheusStatsStore(reg)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to register stats metrics: %w", err)
		}
		b.stats = s

	case "redis":
		if rdb == nil {
			rdb, err = dialRedis(ctx, cfg.Storage.Redis)
			if err != nil {
				_ = b.Close()
				return nil, fmt.Errorf("failed to open redis stats: %w", err)
			}
			b.closers = append(b.closers, rdb.Close)
		}
		b.stats = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		)
	}

	return b, nil
}
