// Package memory provides an in-memory series store for development and tests.
package memory

import (
	"context"
	"sync"

	"serio/internal/domain/series"
)

// Store keeps ledger state in process memory. Apply methods are trivially
// atomic under one mutex. State does not survive restarts; production
// deployments use the postgres store.
type Store struct {
	mu       sync.Mutex
	config   series.Config
	skips    map[int64]series.SkipEntry
	reserves map[int64]series.ReserveEntry
	history  []series.HistoryEntry
}

// New creates a store initialized with the given configuration.
func New(cfg series.Config) *Store {
	return &Store{
		config:   cfg,
		skips:    make(map[int64]series.SkipEntry),
		reserves: make(map[int64]series.ReserveEntry),
	}
}

// Load returns a copy of the full state.
func (s *Store) Load(_ context.Context) (*series.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &series.State{Config: s.config}
	for _, e := range s.skips {
		st.Skips = append(st.Skips, e)
	}
	for _, e := range s.reserves {
		st.Reserves = append(st.Reserves, e)
	}
	st.History = append(st.History, s.history...)
	return st, nil
}

// Init overwrites the series configuration.
func (s *Store) Init(_ context.Context, cfg series.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	return nil
}

// ApplySkip inserts a skip entry with its history record.
func (s *Store) ApplySkip(_ context.Context, entry series.SkipEntry, hist series.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skips[entry.Number] = entry
	s.history = append(s.history, hist)
	return nil
}

// ApplyReserve inserts a reserve entry with its history record.
func (s *Store) ApplyReserve(_ context.Context, entry series.ReserveEntry, hist series.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserves[entry.Number] = entry
	s.history = append(s.history, hist)
	return nil
}

// ApplyRelease removes the reserve entry with its history record.
func (s *Store) ApplyRelease(_ context.Context, number int64, hist series.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserves, number)
	s.history = append(s.history, hist)
	return nil
}

// ApplyIssue advances last_issued and removes any covering reservation.
func (s *Store) ApplyIssue(_ context.Context, number int64, hist series.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.LastIssued = number
	delete(s.reserves, number)
	s.history = append(s.history, hist)
	return nil
}

// ApplyExpire removes lapsed reservations with their history records.
func (s *Store) ApplyExpire(_ context.Context, entries []series.ReserveEntry, hist []series.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		delete(s.reserves, e.Number)
	}
	s.history = append(s.history, hist...)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
