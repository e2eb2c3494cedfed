package series

import (
	"sort"
	"time"
)

// Ledger is the aggregate root for series state: one Config, the skip set,
// the reserve set and the history log. It is not safe for concurrent use;
// the Service serializes all access behind its own lock, so invariants are
// enforced at a single chokepoint.
type Ledger struct {
	config   Config
	skips    map[int64]SkipEntry
	reserves map[int64]ReserveEntry
	history  []HistoryEntry
}

// NewLedger creates an empty ledger with the given configuration.
func NewLedger(cfg Config) *Ledger {
	return &Ledger{
		config:   cfg,
		skips:    make(map[int64]SkipEntry),
		reserves: make(map[int64]ReserveEntry),
	}
}

// NewLedgerFromState reconstructs a ledger from durable state.
func NewLedgerFromState(st *State) *Ledger {
	l := NewLedger(st.Config)
	for _, e := range st.Skips {
		l.skips[e.Number] = e
	}
	for _, e := range st.Reserves {
		l.reserves[e.Number] = e
	}
	l.history = append(l.history, st.History...)
	return l
}

// Snapshot is a read-only copy of ledger state for validation and display.
type Snapshot struct {
	Config   Config         `json:"config"`
	Skips    []SkipEntry    `json:"skips"`
	Reserves []ReserveEntry `json:"reserves"`
}

// Snapshot returns a copy of the current state. Entries are sorted by
// number for stable display.
func (l *Ledger) Snapshot() Snapshot {
	snap := Snapshot{
		Config:   l.config,
		Skips:    make([]SkipEntry, 0, len(l.skips)),
		Reserves: make([]ReserveEntry, 0, len(l.reserves)),
	}
	for _, e := range l.skips {
		snap.Skips = append(snap.Skips, e)
	}
	for _, e := range l.reserves {
		snap.Reserves = append(snap.Reserves, e)
	}
	sort.Slice(snap.Skips, func(i, j int) bool { return snap.Skips[i].Number < snap.Skips[j].Number })
	sort.Slice(snap.Reserves, func(i, j int) bool { return snap.Reserves[i].Number < snap.Reserves[j].Number })
	return snap
}

// Config returns the current series configuration.
func (l *Ledger) Config() Config {
	return l.config
}

// NextAvailable returns the smallest number greater than LastIssued that is
// neither skipped nor covered by a live reservation. Computed fresh from
// current state on every call; reservations expire over time so the answer
// depends on now.
func (l *Ledger) NextAvailable(now time.Time) int64 {
	n := l.config.LastIssued + 1
	for {
		if _, skipped := l.skips[n]; skipped {
			n++
			continue
		}
		if r, held := l.reserves[n]; held && r.Live(now) {
			n++
			continue
		}
		return n
	}
}

// Reservation returns the reserve entry for a number, if present.
func (l *Ledger) Reservation(number int64) (ReserveEntry, bool) {
	r, ok := l.reserves[number]
	return r, ok
}

// Skipped reports whether the number has been permanently retired.
func (l *Ledger) Skipped(number int64) bool {
	_, ok := l.skips[number]
	return ok
}

// History returns a paged copy of the history log, newest first.
func (l *Ledger) History(limit, offset int) []HistoryEntry {
	total := len(l.history)
	if offset >= total {
		return nil
	}
	// history is stored oldest first; page from the tail
	end := total - offset
	start := end - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	out := make([]HistoryEntry, 0, end-start)
	for i := end - 1; i >= start; i-- {
		out = append(out, l.history[i])
	}
	return out
}

// HistoryLen returns the total number of history entries.
func (l *Ledger) HistoryLen() int {
	return len(l.history)
}

// expiredReserves returns reservations whose hold has lapsed as of now,
// sorted by number for deterministic sweep output.
func (l *Ledger) expiredReserves(now time.Time) []ReserveEntry {
	var out []ReserveEntry
	for _, r := range l.reserves {
		if !r.Live(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// --- apply mutators, only ever invoked by the Service inside its
// --- single-writer section

func (l *Ledger) applySkip(e SkipEntry) {
	l.skips[e.Number] = e
}

func (l *Ledger) applyReserve(e ReserveEntry) {
	l.reserves[e.Number] = e
}

func (l *Ledger) applyRelease(number int64) {
	delete(l.reserves, number)
}

func (l *Ledger) applyIssue(number int64) {
	delete(l.reserves, number)
	l.config.LastIssued = number
}

func (l *Ledger) appendHistory(e HistoryEntry) {
	l.history = append(l.history, e)
}
