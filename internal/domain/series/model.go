// Package series governs the document number series: which sequential
// invoice numbers may be issued, which are permanently retired (skipped)
// and which are temporarily held (reserved).
package series

import (
	"fmt"
	"time"

	"serio/internal/core/id"
)

// Action identifies the kind of mutation recorded in the history log.
type Action string

const (
	ActionCreated  Action = "CREATED"  // number bound to a real document
	ActionSkipped  Action = "SKIPPED"  // number permanently retired
	ActionReserved Action = "RESERVED" // number put on temporary hold
	ActionReleased Action = "RELEASED" // hold removed by an operator
	ActionExpired  Action = "EXPIRED"  // hold removed by the sweep
)

// Config holds the numbering configuration for the current fiscal period.
// LastIssued only ever increases within a fiscal period.
type Config struct {
	// Prefix added to all display numbers (e.g. "INV")
	Prefix string `db:"prefix" json:"prefix"`

	// FiscalPeriod identifies the current numbering epoch (e.g. "2026")
	FiscalPeriod string `db:"fiscal_period" json:"fiscalPeriod"`

	// PadWidth is the minimum sequence width (default 5)
	PadWidth int `db:"pad_width" json:"padWidth"`

	// LastIssued is the highest sequence number bound to a real document
	LastIssued int64 `db:"last_issued" json:"lastIssued"`
}

// DefaultConfig returns sensible defaults for a fiscal period.
func DefaultConfig(prefix, fiscalPeriod string) Config {
	return Config{
		Prefix:       prefix,
		FiscalPeriod: fiscalPeriod,
		PadWidth:     5,
	}
}

// Display renders the number as it appears on documents.
// Pattern: PREFIX-PERIOD-XXXXX (e.g. INV-2026-01006).
func (c Config) Display(number int64) string {
	padWidth := c.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if c.FiscalPeriod != "" {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, c.FiscalPeriod, padWidth, number)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, padWidth, number)
}

// SkipEntry records the permanent retirement of a number.
// No operation ever removes a skip entry.
type SkipEntry struct {
	Number    int64     `db:"number" json:"number"`
	Reason    string    `db:"reason" json:"reason"`
	SkippedBy string    `db:"skipped_by" json:"skippedBy"`
	SkippedAt time.Time `db:"skipped_at" json:"skippedAt"`
}

// ReserveEntry records a temporary hold on a number for a named purpose.
// Destroyed by an explicit release or by the expiry sweep.
type ReserveEntry struct {
	Number      int64     `db:"number" json:"number"`
	ReservedFor string    `db:"reserved_for" json:"reservedFor"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	ReservedBy  string    `db:"reserved_by" json:"reservedBy"`
	ReservedAt  time.Time `db:"reserved_at" json:"reservedAt"`
	ExpiresAt   time.Time `db:"expires_at" json:"expiresAt"`
}

// Live reports whether the hold is still in force at the given time.
func (r ReserveEntry) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// HistoryEntry is one record in the append-only audit log.
// Entries are never mutated or deleted; their total ordering is
// authoritative for audit purposes.
type HistoryEntry struct {
	ID        id.ID     `db:"id" json:"id"`
	Action    Action    `db:"action" json:"action"`
	Number    int64     `db:"number" json:"number"`
	Actor     string    `db:"actor" json:"actor"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`

	// Detail carries the reason, reserved_for or associated document id,
	// depending on the action.
	Detail string `db:"detail" json:"detail,omitempty"`
}
