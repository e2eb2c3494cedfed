package series

import (
	"context"
	"strings"
	"sync"
	"time"

	"serio/internal/core/apperror"
	"serio/internal/core/id"
	"serio/pkg/logger"
)

// DefaultHoldMonths is the fixed reservation hold period.
const DefaultHoldMonths = 1

// ServiceOptions configures the allocation service.
type ServiceOptions struct {
	// HoldMonths is the reservation hold period in months (default 1).
	HoldMonths int

	// Clock overrides the time source (tests). Defaults to time.Now.
	Clock func() time.Time
}

// Service is the single operation surface over the ledger. It exclusively
// owns write access: all mutation happens through its operations under one
// writer lock, so two concurrent callers can never both claim the same
// number. Reads run concurrently with each other but see either fully
// before or fully after a mutation.
type Service struct {
	mu     sync.RWMutex
	ledger *Ledger
	store  Store

	holdMonths int
	now        func() time.Time
	log        *logger.Logger
}

// NewService loads durable state from the store and builds the service.
func NewService(ctx context.Context, store Store, log *logger.Logger, opts ServiceOptions) (*Service, error) {
	if opts.HoldMonths <= 0 {
		opts.HoldMonths = DefaultHoldMonths
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	st, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &Service{
		ledger:     NewLedgerFromState(st),
		store:      store,
		holdMonths: opts.HoldMonths,
		now:        opts.Clock,
		log:        log.WithComponent("series"),
	}, nil
}

// Skip permanently retires a number from future issuance.
func (s *Service) Skip(ctx context.Context, number int64, reason, actor string) (HistoryEntry, error) {
	if strings.TrimSpace(reason) == "" {
		return HistoryEntry{}, apperror.NewInvalidInput("reason must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if err := CheckCandidate(s.ledger.Snapshot(), number, now); err != nil {
		return HistoryEntry{}, err
	}

	entry := SkipEntry{
		Number:    number,
		Reason:    reason,
		SkippedBy: actor,
		SkippedAt: now,
	}
	hist := s.historyEntry(ActionSkipped, number, actor, reason, now)

	if err := s.store.ApplySkip(ctx, entry, hist); err != nil {
		return HistoryEntry{}, apperror.NewDatabase(err)
	}
	s.ledger.applySkip(entry)
	s.ledger.appendHistory(hist)

	s.log.WithContext(ctx).Infow("number skipped", "number", number, "actor", actor)
	return hist, nil
}

// Reserve puts a number on hold for a named purpose. The hold lapses
// after the fixed hold period unless released or issued first.
func (s *Service) Reserve(ctx context.Context, number int64, reservedFor, notes, actor string) (HistoryEntry, error) {
	if strings.TrimSpace(reservedFor) == "" {
		return HistoryEntry{}, apperror.NewInvalidInput("reservedFor must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if err := CheckCandidate(s.ledger.Snapshot(), number, now); err != nil {
		return HistoryEntry{}, err
	}

	entry := ReserveEntry{
		Number:      number,
		ReservedFor: reservedFor,
		Notes:       notes,
		ReservedBy:  actor,
		ReservedAt:  now,
		ExpiresAt:   now.AddDate(0, s.holdMonths, 0),
	}
	hist := s.historyEntry(ActionReserved, number, actor, reservedFor, now)

	if err := s.store.ApplyReserve(ctx, entry, hist); err != nil {
		return HistoryEntry{}, apperror.NewDatabase(err)
	}
	s.ledger.applyReserve(entry)
	s.ledger.appendHistory(hist)

	s.log.WithContext(ctx).Infow("number reserved",
		"number", number, "reserved_for", reservedFor, "expires_at", entry.ExpiresAt)
	return hist, nil
}

// Release removes a live reservation, returning the number to the
// available pool. A lapsed hold is not releasable; the sweep records its
// expiry instead, so history distinguishes operator releases from lapses.
// Skips are never released; retirement is irreversible.
func (s *Service) Release(ctx context.Context, number int64, actor string) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	entry, ok := s.ledger.Reservation(number)
	if !ok || !entry.Live(now) {
		return HistoryEntry{}, apperror.NewNotFound("reservation", number)
	}

	hist := s.historyEntry(ActionReleased, number, actor, entry.ReservedFor, now)

	if err := s.store.ApplyRelease(ctx, number, hist); err != nil {
		return HistoryEntry{}, apperror.NewDatabase(err)
	}
	s.ledger.applyRelease(number)
	s.ledger.appendHistory(hist)

	s.log.WithContext(ctx).Infow("reservation released", "number", number, "actor", actor)
	return hist, nil
}

// NextAvailable returns the smallest issuable number, computed fresh from
// the current state on every call.
func (s *Service) NextAvailable() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.NextAvailable(s.now().UTC())
}

// Issue binds a number permanently to a real document and advances
// last_issued. The number must be the legitimate next-available candidate,
// or covered by a live reservation whose purpose matches reservedFor
// (empty reservedFor claims any live reservation on the number).
//
// NumberAlreadyTaken signals that a concurrent Issue claimed the number
// first; callers re-query NextAvailable and retry once.
func (s *Service) Issue(ctx context.Context, number int64, documentID, reservedFor, actor string) (HistoryEntry, error) {
	if err := CheckPositive(number); err != nil {
		return HistoryEntry{}, err
	}
	if strings.TrimSpace(documentID) == "" {
		return HistoryEntry{}, apperror.NewInvalidInput("documentId must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cfg := s.ledger.Config()

	switch {
	case number == s.ledger.NextAvailable(now):
		// free by construction of NextAvailable; a lapsed hold on the
		// number may still exist and is cleared by ApplyIssue

	case number <= cfg.LastIssued:
		// already claimed by an earlier Issue: benign race, retryable
		return HistoryEntry{}, apperror.NewNumberAlreadyTaken(number).WithDetail("state", "issued")

	case s.ledger.Skipped(number):
		return HistoryEntry{}, apperror.NewNumberAlreadyTaken(number).WithDetail("state", "skipped")

	default:
		r, held := s.ledger.Reservation(number)
		if !held || !r.Live(now) {
			return HistoryEntry{}, apperror.NewInvalidNumber(number,
				"number is not the next available and not reserved")
		}
		if reservedFor != "" && r.ReservedFor != reservedFor {
			return HistoryEntry{}, apperror.NewInvalidNumber(number,
				"number is reserved for another party").
				WithDetail("reservedFor", r.ReservedFor)
		}
	}

	hist := s.historyEntry(ActionCreated, number, actor, documentID, now)

	if err := s.store.ApplyIssue(ctx, number, hist); err != nil {
		return HistoryEntry{}, apperror.NewDatabase(err)
	}
	s.ledger.applyIssue(number)
	s.ledger.appendHistory(hist)

	s.log.WithContext(ctx).Infow("number issued",
		"number", number, "display", cfg.Display(number), "document_id", documentID)
	return hist, nil
}

// ExpireSweep removes every reservation whose hold has lapsed as of now
// and appends one EXPIRED history record per removal. Idempotent: a second
// pass with the same now produces no further entries.
func (s *Service) ExpireSweep(ctx context.Context, now time.Time) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.UTC()
	expired := s.ledger.expiredReserves(now)
	if len(expired) == 0 {
		return nil, nil
	}

	hist := make([]HistoryEntry, 0, len(expired))
	for _, r := range expired {
		hist = append(hist, s.historyEntry(ActionExpired, r.Number, "system", r.ReservedFor, now))
	}

	if err := s.store.ApplyExpire(ctx, expired, hist); err != nil {
		return nil, apperror.NewDatabase(err)
	}
	for i, r := range expired {
		s.ledger.applyRelease(r.Number)
		s.ledger.appendHistory(hist[i])
	}

	s.log.WithContext(ctx).Infow("reservations expired", "count", len(expired))
	return hist, nil
}

// Snapshot returns a read-only copy of the current ledger state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Snapshot()
}

// History returns a paged copy of the audit log, newest first.
func (s *Service) History(limit, offset int) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.History(limit, offset)
}

// Display renders a number with the current series format.
func (s *Service) Display(number int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Config().Display(number)
}

// Close flushes the store and releases its resources.
func (s *Service) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}

func (s *Service) historyEntry(action Action, number int64, actor, detail string, now time.Time) HistoryEntry {
	return HistoryEntry{
		ID:        id.New(),
		Action:    action,
		Number:    number,
		Actor:     actor,
		Timestamp: now,
		Detail:    detail,
	}
}
