package infra

import (
	"context"
	"path/filepath"
	"testing"

	"pdfcraft-gateway/middleware/quota/domain"
)

func exerciseRecordStore(t *testing.T, s domain.RecordStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key to be absent, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "pdfcraft_usage:u1", `{"count":1,"date":"2026-10-19","isPremium":false}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get(ctx, "pdfcraft_usage:u1")
	if err != nil || !ok {
		t.Fatalf("expected stored value, got ok=%v err=%v", ok, err)
	}
	if v != `{"count":1,"date":"2026-10-19","isPremium":false}` {
		t.Fatalf("unexpected value %q", v)
	}

	// sobrescreve no lugar
	if err := s.Set(ctx, "pdfcraft_usage:u1", `{"count":2,"date":"2026-10-19","isPremium":false}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, _, _ = s.Get(ctx, "pdfcraft_usage:u1")
	if v != `{"count":2,"date":"2026-10-19","isPremium":false}` {
		t.Fatalf("expected overwrite, got %q", v)
	}
}

func TestMemoryRecordStore(t *testing.T) {
	exerciseRecordStore(t, NewMemoryRecordStore())
}

func TestBoltRecordStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	s, err := OpenBoltRecordStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseRecordStore(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBoltRecordStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "usage.db")

	s, err := OpenBoltRecordStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	_ = s.Close()

	s, err = OpenBoltRecordStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()

	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("expected value after reopen, got %q ok=%v err=%v", v, ok, err)
	}
}
