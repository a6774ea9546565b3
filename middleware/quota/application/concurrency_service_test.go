package application

import (
	"context"
	"testing"
	"time"
)

type blockingPool struct{}

func (p *blockingPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case <-time.After(5 * time.Second):
		// não deve chegar aqui nos testes
		return nil, false
	}
}

type countingPool struct {
	acquired int
	released int
}

func (p *countingPool) Acquire(ctx context.Context) (func(), bool) {
	p.acquired++
	return func() { p.released++ }, true
}

func TestConcurrencyService_Acquire_AllowsWhenNoPool(t *testing.T) {
	svc := ConcurrencyService{}
	release, ok := svc.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected ok")
	}
	release()
}

func TestConcurrencyService_Acquire_UsesTimeout(t *testing.T) {
	svc := ConcurrencyService{Pool: &blockingPool{}, AcquireTimeout: 10 * time.Millisecond}

	start := time.Now()
	_, ok := svc.Acquire(context.Background())
	if ok {
		t.Fatalf("expected timeout and ok=false")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("expected Acquire to give up near the timeout")
	}
}

func TestConcurrencyService_Acquire_NoTimeoutDelegatesToPool(t *testing.T) {
	pool := &countingPool{}
	svc := ConcurrencyService{Pool: pool}

	release, ok := svc.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected ok")
	}
	release()
	if pool.acquired != 1 || pool.released != 1 {
		t.Fatalf("expected one acquire and one release, got %d/%d", pool.acquired, pool.released)
	}
}

type usagePool struct {
	countingPool
	inFlight, capacity int
}

func (p *usagePool) InFlight() int { return p.inFlight }
func (p *usagePool) Capacity() int { return p.capacity }

func TestConcurrencyService_Occupancy(t *testing.T) {
	if _, ok := (ConcurrencyService{Pool: &countingPool{}}).Occupancy(); ok {
		t.Fatalf("expected no occupancy for a pool without SlotUsage")
	}
	if _, ok := (ConcurrencyService{}).Occupancy(); ok {
		t.Fatalf("expected no occupancy without pool")
	}

	busy, ok := ConcurrencyService{Pool: &usagePool{inFlight: 3, capacity: 4}}.Occupancy()
	if !ok {
		t.Fatalf("expected occupancy")
	}
	if busy.InFlight != 3 || busy.Capacity != 4 {
		t.Fatalf("unexpected occupancy %+v", busy)
	}
}
