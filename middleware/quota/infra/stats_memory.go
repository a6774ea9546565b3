package infra

import (
	"context"
	"sync"

	"pdfcraft-gateway/middleware/quota/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
	// Premium conta as liberações de chamadores premium (também somadas em Allowed).
	Premium int64
}

func (c *Counters) add(ev domain.StatsEvent) {
	if !ev.Allowed {
		c.Denied++
		return
	}
	c.Allowed++
	if ev.Premium {
		c.Premium++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu          sync.Mutex
	total       Counters
	byOperation map[string]Counters
	byKey       map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byOperation: make(map[string]Counters),
		byKey:       make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)

	c := s.byOperation[ev.Operation]
	c.add(ev)
	s.byOperation[ev.Operation] = c

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.add(ev)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByOperation() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byOperation))
	for k, v := range s.byOperation {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
