package series

import (
	"testing"
	"time"
)

func TestNextAvailableSkipsConsecutiveBlocks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l := NewLedger(Config{Prefix: "INV", FiscalPeriod: "2026", LastIssued: 10})
	l.applySkip(SkipEntry{Number: 11})
	l.applySkip(SkipEntry{Number: 12})
	l.applyReserve(ReserveEntry{Number: 13, ExpiresAt: now.Add(time.Hour)})
	l.applyReserve(ReserveEntry{Number: 14, ExpiresAt: now.Add(-time.Hour)}) // lapsed

	if got := l.NextAvailable(now); got != 14 {
		t.Errorf("NextAvailable: want 14, got %d", got)
	}
}

func TestApplyIssueConsumesReservation(t *testing.T) {
	l := NewLedger(Config{LastIssued: 5})
	l.applyReserve(ReserveEntry{Number: 9, ReservedFor: "Acme Ltd", ExpiresAt: time.Now().Add(time.Hour)})

	l.applyIssue(9)

	if l.Config().LastIssued != 9 {
		t.Errorf("LastIssued: want 9, got %d", l.Config().LastIssued)
	}
	if _, held := l.Reservation(9); held {
		t.Error("reservation should be consumed by issue")
	}
}

func TestHistoryPaging(t *testing.T) {
	l := NewLedger(Config{})
	for i := int64(1); i <= 5; i++ {
		l.appendHistory(HistoryEntry{Number: i, Action: ActionReserved})
	}

	// Newest first.
	page := l.History(2, 0)
	if len(page) != 2 || page[0].Number != 5 || page[1].Number != 4 {
		t.Fatalf("first page mismatch: %+v", page)
	}

	page = l.History(2, 2)
	if len(page) != 2 || page[0].Number != 3 || page[1].Number != 2 {
		t.Fatalf("second page mismatch: %+v", page)
	}

	// Last partial page.
	page = l.History(2, 4)
	if len(page) != 1 || page[0].Number != 1 {
		t.Fatalf("last page mismatch: %+v", page)
	}

	// Offset past the end.
	if page = l.History(2, 10); page != nil {
		t.Fatalf("expected nil past the end, got %+v", page)
	}
}

func TestSnapshotIsSorted(t *testing.T) {
	l := NewLedger(Config{})
	l.applySkip(SkipEntry{Number: 9})
	l.applySkip(SkipEntry{Number: 2})
	l.applySkip(SkipEntry{Number: 5})

	snap := l.Snapshot()
	for i := 1; i < len(snap.Skips); i++ {
		if snap.Skips[i-1].Number > snap.Skips[i].Number {
			t.Fatalf("skips not sorted: %+v", snap.Skips)
		}
	}
}

func TestDisplayPadding(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		number int64
		want   string
	}{
		{"default width", Config{Prefix: "INV", FiscalPeriod: "2026"}, 42, "INV-2026-00042"},
		{"wide number overflows pad", Config{Prefix: "INV", FiscalPeriod: "2026", PadWidth: 3}, 12345, "INV-2026-12345"},
		{"no period", Config{Prefix: "ORD", PadWidth: 4}, 7, "ORD-0007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Display(tt.number); got != tt.want {
				t.Errorf("Display: want %s, got %s", tt.want, got)
			}
		})
	}
}
