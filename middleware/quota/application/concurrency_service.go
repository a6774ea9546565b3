package application

import (
	"context"
	"time"

	"pdfcraft-gateway/middleware/quota/domain"
)

// ConcurrencyService decide se um trabalho de documento pode começar agora,
// sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Busy descreve a ocupação no momento de uma recusa.
type Busy struct {
	InFlight int
	Capacity int
}

// Acquire tenta adquirir uma vaga.
//   - AcquireTimeout <= 0: espera até o ctx cancelar.
//   - AcquireTimeout > 0: espera no máximo o timeout.
//
// Se ok=false, nenhuma vaga foi adquirida e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}

// Occupancy só tem valor quando o pool implementa domain.SlotUsage.
func (s ConcurrencyService) Occupancy() (Busy, bool) {
	u, ok := s.Pool.(domain.SlotUsage)
	if !ok {
		return Busy{}, false
	}
	return Busy{InFlight: u.InFlight(), Capacity: u.Capacity()}, true
}
