package infra

import (
	"context"
	"sync"
	"time"

	"pdfcraft-gateway/middleware/quota/domain"

	"golang.org/x/time/rate"
)

// BurstStore mantém um token bucket (x/time/rate) por chamador, com limpeza
// periódica das chaves inativas.
type BurstStore struct {
	mu           sync.Mutex
	entries      map[string]*burstEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type burstEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type BurstOption func(*BurstStore)

func WithIdleTTL(d time.Duration) BurstOption {
	return func(s *BurstStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) BurstOption {
	return func(s *BurstStore) { s.cleanupEvery = d }
}

func NewBurstStore(rps float64, burst int, opts ...BurstOption) *BurstStore {
	s := &BurstStore{
		entries:      make(map[string]*burstEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BurstStore) RPS() float64 { return float64(s.rps) }
func (s *BurstStore) Burst() int   { return s.burst }

// Get implementa domain.LimiterStore.
func (s *BurstStore) Get(key domain.Key) domain.Limiter {
	return s.limiter(string(key))
}

func (s *BurstStore) limiter(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &burstEntry{lim: lim, lastSeen: now}
	return lim
}

// Len retorna quantas chaves estão em cache.
func (s *BurstStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *BurstStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor limpa chaves inativas periodicamente. Pare cancelando o contexto.
func (s *BurstStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
