package memory

import (
	"context"
	"testing"
	"time"

	"serio/internal/core/id"
	"serio/internal/domain/series"
	"serio/pkg/logger"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(series.Config{Prefix: "INV", FiscalPeriod: "2026", PadWidth: 5})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	skip := series.SkipEntry{Number: 3, Reason: "misprint", SkippedBy: "ops", SkippedAt: now}
	reserve := series.ReserveEntry{
		Number: 4, ReservedFor: "Acme Ltd", ReservedBy: "ops",
		ReservedAt: now, ExpiresAt: now.AddDate(0, 1, 0),
	}

	if err := store.ApplySkip(ctx, skip, histEntry(series.ActionSkipped, 3)); err != nil {
		t.Fatal(err)
	}
	if err := store.ApplyReserve(ctx, reserve, histEntry(series.ActionReserved, 4)); err != nil {
		t.Fatal(err)
	}
	if err := store.ApplyIssue(ctx, 1, histEntry(series.ActionCreated, 1)); err != nil {
		t.Fatal(err)
	}

	st, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Config.LastIssued != 1 {
		t.Errorf("last issued: want 1, got %d", st.Config.LastIssued)
	}
	if len(st.Skips) != 1 || st.Skips[0].Number != 3 {
		t.Errorf("skips mismatch: %+v", st.Skips)
	}
	if len(st.Reserves) != 1 || st.Reserves[0].Number != 4 {
		t.Errorf("reserves mismatch: %+v", st.Reserves)
	}
	if len(st.History) != 3 {
		t.Errorf("history: want 3 entries, got %d", len(st.History))
	}

	// Expire removes the reservation and appends its record.
	if err := store.ApplyExpire(ctx, []series.ReserveEntry{reserve},
		[]series.HistoryEntry{histEntry(series.ActionExpired, 4)}); err != nil {
		t.Fatal(err)
	}
	st, err = store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Reserves) != 0 {
		t.Errorf("reserves should be empty, got %+v", st.Reserves)
	}
	if len(st.History) != 4 {
		t.Errorf("history: want 4 entries, got %d", len(st.History))
	}
}

func TestLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := New(series.Config{Prefix: "INV", FiscalPeriod: "2026"})

	st, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	st.Config.LastIssued = 99

	st2, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st2.Config.LastIssued != 0 {
		t.Errorf("store state mutated through a loaded copy")
	}
}

// A sweeper process loads the store fresh on each pass; a service built
// after another instance reserved a number must see and expire that hold.
func TestFreshLoadSweepsLaterReservations(t *testing.T) {
	ctx := context.Background()
	store := New(series.Config{Prefix: "INV", FiscalPeriod: "2026", PadWidth: 5})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writer, err := series.NewService(ctx, store, logger.Default(), series.ServiceOptions{
		Clock: func() time.Time { return start },
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := writer.Reserve(ctx, 3, "Acme Ltd", "", "ops"); err != nil {
		t.Fatal(err)
	}

	sweepSvc, err := series.NewService(ctx, store, logger.Default(), series.ServiceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	expired, err := sweepSvc.ExpireSweep(ctx, start.AddDate(0, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].Number != 3 {
		t.Fatalf("sweep from fresh load: want hold on 3 expired, got %+v", expired)
	}

	st, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Reserves) != 0 {
		t.Errorf("stored reserves after sweep: want none, got %+v", st.Reserves)
	}
}

func histEntry(action series.Action, number int64) series.HistoryEntry {
	return series.HistoryEntry{
		ID:        id.New(),
		Action:    action,
		Number:    number,
		Actor:     "ops",
		Timestamp: time.Now().UTC(),
	}
}
