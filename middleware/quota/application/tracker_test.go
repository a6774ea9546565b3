package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"pdfcraft-gateway/middleware/quota/domain"
)

type mapStore struct {
	data   map[string]string
	gets   int
	sets   int
	getErr error
	setErr error
}

func newMapStore() *mapStore { return &mapStore{data: make(map[string]string)} }

func (s *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.gets++
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func fixedClock(y int, m time.Month, d int) domain.Clock {
	return domain.ClockFunc(func() time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	})
}

func (s *mapStore) record(t *testing.T, key string) domain.UsageRecord {
	t.Helper()
	raw, ok := s.data[key]
	if !ok {
		t.Fatalf("expected key %q to be persisted", key)
	}
	rec, err := domain.DecodeRecord(raw)
	if err != nil {
		t.Fatalf("persisted record unreadable: %v", err)
	}
	return rec
}

func TestTracker_Initialize_NoStateReturnsZeroRecordWithoutWrite(t *testing.T) {
	store := newMapStore()
	tr := Tracker{Store: store, Key: "u", Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(context.Background())
	want := domain.UsageRecord{Count: 0, Date: "2026-10-19", IsPremium: false}
	if rec != want {
		t.Fatalf("expected %+v, got %+v", want, rec)
	}
	if store.sets != 0 {
		t.Fatalf("expected no write for missing record, got %d", store.sets)
	}
}

func TestTracker_Initialize_MalformedStateTreatedAsAbsent(t *testing.T) {
	store := newMapStore()
	store.data["u"] = `{"count":"lots"}`
	tr := Tracker{Store: store, Key: "u", Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(context.Background())
	if rec.Count != 0 || rec.Date != "2026-10-19" || rec.IsPremium {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestTracker_Initialize_ReadErrorDegradesToZeroRecord(t *testing.T) {
	store := newMapStore()
	store.getErr = errors.New("boom")
	tr := Tracker{Store: store, Key: "u", Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(context.Background())
	if rec != domain.NewRecord(tr.Clock.Now()) {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestTracker_Initialize_SameDayReturnsStoredRecord(t *testing.T) {
	store := newMapStore()
	store.data["u"] = `{"count":12,"date":"2026-10-19","isPremium":false}`
	tr := Tracker{Store: store, Key: "u", Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(context.Background())
	if rec.Count != 12 {
		t.Fatalf("expected count=12, got %d", rec.Count)
	}
	if store.sets != 0 {
		t.Fatalf("expected no write on same day, got %d", store.sets)
	}
}

func TestTracker_Initialize_DateRolloverResetsAndPersists(t *testing.T) {
	store := newMapStore()
	store.data["u"] = `{"count":37,"date":"2026-10-18","isPremium":false}`
	tr := Tracker{Store: store, Key: "u", Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(context.Background())
	if rec.Count != 0 || rec.Date != "2026-10-19" {
		t.Fatalf("expected reset record for today, got %+v", rec)
	}
	if got := store.record(t, "u"); got != rec {
		t.Fatalf("expected reset to be persisted, stored %+v", got)
	}

	// segunda chamada lê o registro já zerado, sem nova escrita.
	writes := store.sets
	again := tr.Initialize(context.Background())
	if again != rec {
		t.Fatalf("expected already-reset record, got %+v", again)
	}
	if store.sets != writes {
		t.Fatalf("expected no extra write on second initialize")
	}
}

func TestTracker_Initialize_FutureDateAlsoResets(t *testing.T) {
	store := newMapStore()
	store.data["u"] = `{"count":5,"date":"2026-10-25","isPremium":false}`
	tr := Tracker{Store: store, Key: "u", Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(context.Background())
	if rec.Count != 0 || rec.Date != "2026-10-19" {
		t.Fatalf("expected future-dated record to reset, got %+v", rec)
	}
}

func TestTracker_Initialize_RolloverKeepsPremium(t *testing.T) {
	store := newMapStore()
	store.data["u"] = `{"count":3,"date":"2026-10-01","isPremium":true}`
	tr := Tracker{Store: store, Key: "u", Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(context.Background())
	if !rec.IsPremium {
		t.Fatalf("expected premium to survive rollover")
	}
}

func TestTracker_IncrementUsage_BelowLimitCountsOne(t *testing.T) {
	store := newMapStore()
	tr := Tracker{Store: store, Key: "u", DailyLimit: 50, Clock: fixedClock(2026, 10, 19)}

	for _, count := range []int{0, 1, 25, 49} {
		in := domain.UsageRecord{Count: count, Date: "2026-10-19"}
		out, allowed := tr.IncrementUsage(context.Background(), in)
		if !allowed {
			t.Fatalf("count=%d: expected allowed", count)
		}
		if out.Count != count+1 {
			t.Fatalf("count=%d: expected %d, got %d", count, count+1, out.Count)
		}
		if got := store.record(t, "u"); got != out {
			t.Fatalf("count=%d: expected write-through, stored %+v", count, got)
		}
	}
}

func TestTracker_IncrementUsage_AtLimitRefusesWithoutWrite(t *testing.T) {
	store := newMapStore()
	tr := Tracker{Store: store, Key: "u", DailyLimit: 50}

	in := domain.UsageRecord{Count: 50, Date: "2026-10-19"}
	out, allowed := tr.IncrementUsage(context.Background(), in)
	if allowed {
		t.Fatalf("expected refused at limit")
	}
	if out != in {
		t.Fatalf("expected record unchanged, got %+v", out)
	}
	if store.sets != 0 {
		t.Fatalf("expected no write past the cap, got %d", store.sets)
	}
}

func TestTracker_IncrementUsage_PremiumNotCounted(t *testing.T) {
	store := newMapStore()
	tr := Tracker{Store: store, Key: "u", DailyLimit: 2}

	for _, count := range []int{0, 2, 9} {
		in := domain.UsageRecord{Count: count, Date: "2026-10-19", IsPremium: true}
		out, allowed := tr.IncrementUsage(context.Background(), in)
		if !allowed || out.Count != count {
			t.Fatalf("count=%d: expected allowed and unchanged, got allowed=%v count=%d", count, allowed, out.Count)
		}
	}
}

func TestTracker_IncrementUsage_WriteFailureStillAllows(t *testing.T) {
	store := newMapStore()
	store.setErr = errors.New("disk full")
	tr := Tracker{Store: store, Key: "u", DailyLimit: 3}

	out, allowed := tr.IncrementUsage(context.Background(), domain.UsageRecord{Count: 1, Date: "2026-10-19"})
	if !allowed || out.Count != 2 {
		t.Fatalf("expected log-and-continue semantics, got allowed=%v count=%d", allowed, out.Count)
	}
}

func TestTracker_UpgradeToPremium_Idempotent(t *testing.T) {
	store := newMapStore()
	tr := Tracker{Store: store, Key: "u"}

	in := domain.UsageRecord{Count: 4, Date: "2026-10-19"}
	once := tr.UpgradeToPremium(context.Background(), in)
	twice := tr.UpgradeToPremium(context.Background(), once)
	if once != twice {
		t.Fatalf("expected idempotent upgrade, got %+v vs %+v", once, twice)
	}
	if !twice.IsPremium || twice.Count != 4 || twice.Date != "2026-10-19" {
		t.Fatalf("expected only isPremium to change, got %+v", twice)
	}
	if store.sets != 2 {
		t.Fatalf("expected both upgrades to write through, got %d writes", store.sets)
	}
}

func TestTracker_CanUseFeature(t *testing.T) {
	tr := Tracker{DailyLimit: 3}
	cases := []struct {
		rec  domain.UsageRecord
		want bool
	}{
		{domain.UsageRecord{Count: 0}, true},
		{domain.UsageRecord{Count: 2}, true},
		{domain.UsageRecord{Count: 3}, false},
		{domain.UsageRecord{Count: 3, IsPremium: true}, true},
	}
	for _, c := range cases {
		if got := tr.CanUseFeature(c.rec); got != c.want {
			t.Errorf("CanUseFeature(%+v) = %v, want %v", c.rec, got, c.want)
		}
	}
}

func TestTracker_RemainingUses(t *testing.T) {
	tr := Tracker{DailyLimit: 50}
	if got := tr.RemainingUses(domain.UsageRecord{Count: 10}); got != 40 {
		t.Fatalf("expected 40 remaining, got %d", got)
	}
	if got := tr.RemainingUses(domain.UsageRecord{Count: 50}); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
	if got := tr.RemainingUses(domain.UsageRecord{Count: 10, IsPremium: true}); got != domain.Unlimited {
		t.Fatalf("expected unlimited for premium, got %d", got)
	}
}

func TestTracker_DefaultLimitIsFifty(t *testing.T) {
	tr := Tracker{}
	if got := tr.RemainingUses(domain.UsageRecord{}); got != domain.DefaultDailyLimit {
		t.Fatalf("expected default limit %d, got %d", domain.DefaultDailyLimit, got)
	}
}

func TestTracker_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	tr := Tracker{Store: store, Key: "u", DailyLimit: 3, Clock: fixedClock(2026, 10, 19)}

	rec := tr.Initialize(ctx)
	for i := 1; i <= 3; i++ {
		var allowed bool
		rec, allowed = tr.IncrementUsage(ctx, rec)
		if !allowed {
			t.Fatalf("call %d: expected allowed", i)
		}
	}
	if rec.Count != 3 {
		t.Fatalf("expected count=3, got %d", rec.Count)
	}

	rec, allowed := tr.IncrementUsage(ctx, rec)
	if allowed || rec.Count != 3 {
		t.Fatalf("fourth call: expected refused with count=3, got allowed=%v count=%d", allowed, rec.Count)
	}

	rec = tr.UpgradeToPremium(ctx, rec)
	rec, allowed = tr.IncrementUsage(ctx, rec)
	if !allowed || rec.Count != 3 {
		t.Fatalf("premium call: expected allowed with count=3, got allowed=%v count=%d", allowed, rec.Count)
	}

	// estado sobrevive a um "restart".
	reloaded := tr.Initialize(ctx)
	if reloaded != rec {
		t.Fatalf("expected persisted %+v, got %+v", rec, reloaded)
	}
}
