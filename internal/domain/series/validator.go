package series

import (
	"time"

	"serio/internal/core/apperror"
)

// Validation is pure and side-effect free: every check takes a snapshot and
// a candidate number and returns a structured error or nil. The Service
// combines these checks for every mutating operation.

// CheckPositive rejects non-positive candidate numbers.
func CheckPositive(number int64) error {
	if number <= 0 {
		return apperror.NewInvalidInput("number must be positive").
			WithDetail("number", number)
	}
	return nil
}

// CheckGreaterThanLastIssued enforces monotonicity: a new skip or
// reservation must target a number strictly greater than the highest
// number already bound to a document.
func CheckGreaterThanLastIssued(snap Snapshot, number int64) error {
	if number <= snap.Config.LastIssued {
		return apperror.NewInvalidNumber(number, "number is not greater than last issued").
			WithDetail("lastIssued", snap.Config.LastIssued)
	}
	return nil
}

// CheckFree fails when the number is already in the skip set or covered by
// a reservation that has not expired as of now.
func CheckFree(snap Snapshot, number int64, now time.Time) error {
	for _, s := range snap.Skips {
		if s.Number == number {
			return apperror.NewNumberAlreadyTaken(number).WithDetail("state", "skipped")
		}
	}
	for _, r := range snap.Reserves {
		if r.Number == number && r.Live(now) {
			return apperror.NewNumberAlreadyTaken(number).WithDetail("state", "reserved")
		}
	}
	return nil
}

// CheckCandidate combines all checks required before introducing a new
// skip or reservation.
func CheckCandidate(snap Snapshot, number int64, now time.Time) error {
	if err := CheckPositive(number); err != nil {
		return err
	}
	if err := CheckGreaterThanLastIssued(snap, number); err != nil {
		return err
	}
	return CheckFree(snap, number, now)
}
