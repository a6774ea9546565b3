package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pdfcraft-gateway/middleware/quota/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores de decisão em hashes Redis:
//
//	<prefix>:total                 allowed/denied/premium (cumulativo, sem TTL)
//	<prefix>:day:<yyyymmdd>        idem, por dia (ou :minute:<yyyymmddhhmm>)
//	<prefix>:operation             <op>:allowed, <op>:denied
//	<prefix>:key:<key>             por chamador (opcional)
type RedisStatsStore struct {
	rdb redis.UniversalClient

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	ttl time.Duration

	bucket string // "day" (padrão), "minute" ou "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "pdfcraft:stats",
		ttl:    8 * 24 * time.Hour,
		bucket: "day",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) bucketKey(at time.Time) string {
	switch s.bucket {
	case "day":
		return fmt.Sprintf("%s:day:%s", s.prefix, at.Format("20060102"))
	case "minute":
		return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	default:
		return ""
	}
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	incr := func(key string, ttl bool) {
		pipe.HIncrBy(ctx, key, field, 1)
		if ev.Allowed && ev.Premium {
			pipe.HIncrBy(ctx, key, "premium", 1)
		}
		if ttl && s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	incr(s.prefix+":total", false)

	if bk := s.bucketKey(at); bk != "" {
		incr(bk, true)
	}

	if op := strings.TrimSpace(ev.Operation); op != "" {
		pipe.HIncrBy(ctx, s.prefix+":operation", op+":"+field, 1)
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			incr(s.prefix+":key:"+k, true)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
