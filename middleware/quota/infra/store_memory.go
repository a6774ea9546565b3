package infra

import (
	"context"
	"sync"
)

// MemoryRecordStore guarda os registros em memória.
// Útil para testes e para rodar sem dependências; não sobrevive a restart.
type MemoryRecordStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{data: make(map[string]string)}
}

func (s *MemoryRecordStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryRecordStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
