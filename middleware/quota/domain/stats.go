package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do gate de cota.
//
// Operation é uma string genérica (ex.: "merge", "split"), sem acoplar a HTTP.
//
// Observação: cuidado com cardinalidade ao guardar Key (Redis/Prometheus).
type StatsEvent struct {
	Key       Key
	Allowed   bool
	Premium   bool
	Operation string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de uso.
//
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
