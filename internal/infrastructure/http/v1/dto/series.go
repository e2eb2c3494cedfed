package dto

import (
	"time"

	"serio/internal/domain/series"
)

// --- Requests ---

// SkipRequest marks a number as permanently unusable.
type SkipRequest struct {
	Number int64  `json:"number" binding:"required,min=1"`
	Reason string `json:"reason" binding:"required"`
}

// ReserveRequest places a temporary hold on a number.
type ReserveRequest struct {
	Number      int64  `json:"number" binding:"required,min=1"`
	ReservedFor string `json:"reservedFor" binding:"required"`
	Notes       string `json:"notes"`
}

// HistoryQuery pages through the event history, newest first.
type HistoryQuery struct {
	Limit  int `form:"limit" binding:"min=0,max=500"`
	Offset int `form:"offset" binding:"min=0"`
}

// Defaults sets default paging values.
func (q *HistoryQuery) Defaults() {
	if q.Limit == 0 {
		q.Limit = 50
	}
}

// --- Responses ---

// SeriesResponse is the full series state for the dashboard.
type SeriesResponse struct {
	Config   series.Config         `json:"config"`
	Skips    []series.SkipEntry    `json:"skips"`
	Reserves []series.ReserveEntry `json:"reserves"`
}

// FromSnapshot converts a series snapshot to its API shape.
func FromSnapshot(snap series.Snapshot) SeriesResponse {
	return SeriesResponse{
		Config:   snap.Config,
		Skips:    snap.Skips,
		Reserves: snap.Reserves,
	}
}

// NextResponse carries the next issuable number and its display form.
type NextResponse struct {
	Number  int64  `json:"number"`
	Display string `json:"display"`
}

// HistoryEntryResponse is one event in the series history.
type HistoryEntryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Number    int64     `json:"number"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// FromHistory converts history entries to their API shape.
func FromHistory(entries []series.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			ID:        e.ID.String(),
			Action:    string(e.Action),
			Number:    e.Number,
			Actor:     e.Actor,
			Timestamp: e.Timestamp,
			Detail:    e.Detail,
		}
	}
	return out
}

// HistoryResponse wraps a page of history entries.
type HistoryResponse struct {
	Items  []HistoryEntryResponse `json:"items"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}
