package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"serio/internal/domain/series"
)

const (
	seriesConfigTable   = "series_config"
	seriesSkipsTable    = "series_skips"
	seriesReservesTable = "series_reserves"
	seriesHistoryTable  = "series_history"
)

// ErrNoSeries is returned by Load when the series was never initialized.
var ErrNoSeries = errors.New("series config not initialized")

// SeriesStore is the PostgreSQL implementation of series.Store.
// Every Apply method runs inside one transaction so that the entry and its
// history record land together or not at all.
type SeriesStore struct {
	pool      *Pool
	txManager *TxManager
}

// NewSeriesStore creates a series store on the given pool.
func NewSeriesStore(pool *Pool) *SeriesStore {
	return &SeriesStore{
		pool:      pool,
		txManager: NewTxManager(pool),
	}
}

func (s *SeriesStore) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Load reads the full durable state: config, skip set, reserve set and the
// complete history log, oldest first.
func (s *SeriesStore) Load(ctx context.Context) (*series.State, error) {
	st := &series.State{}
	querier := s.txManager.GetQuerier(ctx)

	cfgSQL, _, err := s.builder().
		Select("prefix", "fiscal_period", "pad_width", "last_issued").
		From(seriesConfigTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build config query: %w", err)
	}
	if err := pgxscan.Get(ctx, querier, &st.Config, cfgSQL); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNoSeries
		}
		return nil, fmt.Errorf("load series config: %w", err)
	}

	skipSQL, _, err := s.builder().
		Select("number", "reason", "skipped_by", "skipped_at").
		From(seriesSkipsTable).
		OrderBy("number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build skips query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &st.Skips, skipSQL); err != nil {
		return nil, fmt.Errorf("load skips: %w", err)
	}

	resSQL, _, err := s.builder().
		Select("number", "reserved_for", "notes", "reserved_by", "reserved_at", "expires_at").
		From(seriesReservesTable).
		OrderBy("number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reserves query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &st.Reserves, resSQL); err != nil {
		return nil, fmt.Errorf("load reserves: %w", err)
	}

	histSQL, _, err := s.builder().
		Select("id", "action", "number", "actor", "timestamp", "detail").
		From(seriesHistoryTable).
		OrderBy("timestamp", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &st.History, histSQL); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	return st, nil
}

// Init writes the initial configuration for a new series.
func (s *SeriesStore) Init(ctx context.Context, cfg series.Config) error {
	sql, args, err := s.builder().
		Insert(seriesConfigTable).
		Columns("prefix", "fiscal_period", "pad_width", "last_issued").
		Values(cfg.Prefix, cfg.FiscalPeriod, cfg.PadWidth, cfg.LastIssued).
		ToSql()
	if err != nil {
		return fmt.Errorf("build config insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert series config: %w", err)
	}
	return nil
}

// ApplySkip inserts the skip entry and its history record atomically.
func (s *SeriesStore) ApplySkip(ctx context.Context, entry series.SkipEntry, hist series.HistoryEntry) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := s.builder().
			Insert(seriesSkipsTable).
			Columns("number", "reason", "skipped_by", "skipped_at").
			Values(entry.Number, entry.Reason, entry.SkippedBy, entry.SkippedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build skip insert: %w", err)
		}
		if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert skip: %w", err)
		}
		return s.appendHistory(ctx, hist)
	})
}

// ApplyReserve inserts the reserve entry and its history record atomically.
// A lapsed hold may still occupy the row before any sweep runs; the upsert
// replaces it, matching the in-memory ledger's view that the number is free.
func (s *SeriesStore) ApplyReserve(ctx context.Context, entry series.ReserveEntry, hist series.HistoryEntry) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := s.reserveUpsert(entry)
		if err != nil {
			return fmt.Errorf("build reserve upsert: %w", err)
		}
		if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert reserve: %w", err)
		}
		return s.appendHistory(ctx, hist)
	})
}

// ApplyRelease removes the reserve entry and appends its history record.
func (s *SeriesStore) ApplyRelease(ctx context.Context, number int64, hist series.HistoryEntry) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.deleteReserve(ctx, number); err != nil {
			return err
		}
		return s.appendHistory(ctx, hist)
	})
}

// ApplyIssue advances last_issued, removes any covering reservation, and
// appends the history record.
func (s *SeriesStore) ApplyIssue(ctx context.Context, number int64, hist series.HistoryEntry) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := s.builder().
			Update(seriesConfigTable).
			Set("last_issued", number).
			Where(squirrel.Lt{"last_issued": number}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build issue update: %w", err)
		}
		tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("advance last_issued: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// last_issued never decreases; a zero update means the
			// in-memory ledger and the database disagree
			return fmt.Errorf("issue %d would not advance last_issued", number)
		}

		if err := s.deleteReserve(ctx, number); err != nil {
			return err
		}
		return s.appendHistory(ctx, hist)
	})
}

// ApplyExpire removes lapsed reservations and appends their history records.
func (s *SeriesStore) ApplyExpire(ctx context.Context, entries []series.ReserveEntry, hist []series.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		numbers := make([]int64, 0, len(entries))
		for _, e := range entries {
			numbers = append(numbers, e.Number)
		}

		sql, args, err := s.builder().
			Delete(seriesReservesTable).
			Where(squirrel.Eq{"number": numbers}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build expire delete: %w", err)
		}
		if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete expired reserves: %w", err)
		}

		for _, h := range hist {
			if err := s.appendHistory(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying pool.
func (s *SeriesStore) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}

// reserveUpsert builds the reserve insert. ON CONFLICT overwrites a row
// left behind by a lapsed hold the sweeper has not collected yet.
func (s *SeriesStore) reserveUpsert(entry series.ReserveEntry) (string, []any, error) {
	return s.builder().
		Insert(seriesReservesTable).
		Columns("number", "reserved_for", "notes", "reserved_by", "reserved_at", "expires_at").
		Values(entry.Number, entry.ReservedFor, entry.Notes, entry.ReservedBy, entry.ReservedAt, entry.ExpiresAt).
		Suffix(`ON CONFLICT (number) DO UPDATE SET
			reserved_for = EXCLUDED.reserved_for,
			notes = EXCLUDED.notes,
			reserved_by = EXCLUDED.reserved_by,
			reserved_at = EXCLUDED.reserved_at,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
}

func (s *SeriesStore) deleteReserve(ctx context.Context, number int64) error {
	sql, args, err := s.builder().
		Delete(seriesReservesTable).
		Where(squirrel.Eq{"number": number}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reserve delete: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete reserve: %w", err)
	}
	return nil
}

// appendHistory inserts one history record. The table is append-only;
// nothing in this store updates or deletes from it.
func (s *SeriesStore) appendHistory(ctx context.Context, hist series.HistoryEntry) error {
	sql, args, err := s.builder().
		Insert(seriesHistoryTable).
		Columns("id", "action", "number", "actor", "timestamp", "detail").
		Values(hist.ID, hist.Action, hist.Number, hist.Actor, hist.Timestamp, hist.Detail).
		ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
