package infra

import (
	"context"
	"testing"
	"time"
)

func TestDocumentSlots_TracksOccupancy(t *testing.T) {
	p := NewChanPool(2)
	if p.Capacity() != 2 || p.InFlight() != 0 {
		t.Fatalf("expected 0/2, got %d/%d", p.InFlight(), p.Capacity())
	}

	r1, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected first slot")
	}
	r2, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected second slot")
	}
	if p.InFlight() != 2 {
		t.Fatalf("expected 2 in flight, got %d", p.InFlight())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected pool to be full")
	}

	r1()
	r1() // release duplicado não libera a vaga de outro trabalho
	if p.InFlight() != 1 {
		t.Fatalf("expected 1 in flight after release, got %d", p.InFlight())
	}
	r2()
	if p.InFlight() != 0 {
		t.Fatalf("expected 0 in flight, got %d", p.InFlight())
	}
}
