package infra

import (
	"context"
	"sync"

	"pdfcraft-gateway/middleware/quota/domain"
)

// DocumentSlots é o semáforo das operações de documento, baseado em channel.
type DocumentSlots struct {
	sem chan struct{}
}

var (
	_ domain.SlotPool  = (*DocumentSlots)(nil)
	_ domain.SlotUsage = (*DocumentSlots)(nil)
)

// NewChanPool cria o semáforo com `max` vagas.
func NewChanPool(max int) *DocumentSlots {
	return &DocumentSlots{sem: make(chan struct{}, max)}
}

func (p *DocumentSlots) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.sem }) }, true
	case <-ctx.Done():
		return nil, false
	}
}

func (p *DocumentSlots) InFlight() int { return len(p.sem) }
func (p *DocumentSlots) Capacity() int { return cap(p.sem) }
