package series

import (
	"context"
)

// State is the durable representation of a ledger, loaded at service start
// and written through on every mutation.
type State struct {
	Config   Config
	Skips    []SkipEntry
	Reserves []ReserveEntry
	History  []HistoryEntry
}

// Store persists ledger state. Each Apply method must execute as a single
// atomic unit: the entry and its history record land together or not at
// all. Implementations live in the infrastructure layer (postgres for
// production, memory for development and tests).
type Store interface {
	// Load reads the full durable state. Returns ErrNoState via
	// implementations when the series has never been initialized.
	Load(ctx context.Context) (*State, error)

	// Init writes the initial configuration for a new series.
	Init(ctx context.Context, cfg Config) error

	// ApplySkip inserts a skip entry and appends its history record.
	ApplySkip(ctx context.Context, entry SkipEntry, hist HistoryEntry) error

	// ApplyReserve inserts a reserve entry and appends its history record.
	ApplyReserve(ctx context.Context, entry ReserveEntry, hist HistoryEntry) error

	// ApplyRelease removes the reserve entry and appends its history record.
	ApplyRelease(ctx context.Context, number int64, hist HistoryEntry) error

	// ApplyIssue advances last_issued to number, removes any reservation
	// covering the number, and appends the history record. Issued is a
	// terminal state; no reservation row may survive it.
	ApplyIssue(ctx context.Context, number int64, hist HistoryEntry) error

	// ApplyExpire removes the given lapsed reservations and appends one
	// history record per removal.
	ApplyExpire(ctx context.Context, entries []ReserveEntry, hist []HistoryEntry) error

	// Close flushes and releases storage resources.
	Close(ctx context.Context) error
}
