package invoicing

import (
	"context"
	"strings"
	"time"

	"serio/internal/core/apperror"
	"serio/internal/core/id"
	"serio/internal/core/types"
	"serio/internal/domain/series"
	"serio/pkg/logger"
)

// Workflow turns a finalized draft into a numbered, archived invoice.
// It previews the next available number (or takes the caller's reserved
// one), issues it through the allocator, and retries exactly once when a
// concurrent issue wins the race.
type Workflow struct {
	alloc   *series.Service
	archive Archiver     // optional; nil skips archiving
	rates   RateProvider // optional; nil skips display conversion
	log     *logger.Logger
}

// NewWorkflow creates the invoice-creation workflow.
func NewWorkflow(alloc *series.Service, archive Archiver, rates RateProvider, log *logger.Logger) *Workflow {
	return &Workflow{
		alloc:   alloc,
		archive: archive,
		rates:   rates,
		log:     log.WithComponent("invoicing"),
	}
}

// CreateInvoice finalizes the draft and binds a number to it.
func (w *Workflow) CreateInvoice(ctx context.Context, draft Draft, actor string) (*Invoice, error) {
	if strings.TrimSpace(draft.CustomerName) == "" {
		return nil, apperror.NewInvalidInput("customerName must not be empty")
	}
	if len(draft.Lines) == 0 {
		return nil, apperror.NewInvalidInput("invoice needs at least one line")
	}
	currency := draft.Currency
	if currency == "" {
		currency = "EUR"
	}

	total := types.Zero()
	for _, line := range draft.Lines {
		if line.Quantity <= 0 {
			return nil, apperror.NewInvalidInput("line quantity must be positive").
				WithDetail("description", line.Description)
		}
		total = total.Add(line.Amount())
	}

	inv := &Invoice{
		DocumentID:   id.New().String(),
		CustomerName: draft.CustomerName,
		Currency:     currency,
		Lines:        draft.Lines,
		Total:        total,
		IssuedBy:     actor,
		IssuedAt:     time.Now().UTC(),
	}

	if err := w.issueNumber(ctx, inv, draft, actor); err != nil {
		return nil, err
	}

	if w.rates != nil && draft.DisplayCurrency != "" && draft.DisplayCurrency != currency {
		rate, err := w.rates.Rate(ctx, currency, draft.DisplayCurrency)
		if err != nil {
			// Display conversion is cosmetic; the invoice stands without it.
			w.log.WithContext(ctx).Warnw("rate lookup failed",
				"from", currency, "to", draft.DisplayCurrency, "error", err)
		} else {
			inv.DisplayCurrency = draft.DisplayCurrency
			inv.DisplayTotal = total.Mul(rate)
		}
	}

	if w.archive != nil {
		if _, err := w.archive.ArchiveInvoice(ctx, inv, actor); err != nil {
			return nil, apperror.NewDatabase(err)
		}
	}

	w.log.WithContext(ctx).Infow("invoice created",
		"document_id", inv.DocumentID, "number", inv.DisplayNumber, "total", inv.Total)
	return inv, nil
}

// issueNumber claims a number for the invoice. A NumberAlreadyTaken on the
// auto-picked candidate is a benign race: re-query NextAvailable and retry
// once. A caller-specified number is never substituted.
func (w *Workflow) issueNumber(ctx context.Context, inv *Invoice, draft Draft, actor string) error {
	number := draft.Number
	autoPick := number == 0
	if autoPick {
		number = w.alloc.NextAvailable()
	}

	_, err := w.alloc.Issue(ctx, number, inv.DocumentID, draft.CustomerName, actor)
	if err != nil && autoPick && apperror.IsNumberAlreadyTaken(err) {
		number = w.alloc.NextAvailable()
		_, err = w.alloc.Issue(ctx, number, inv.DocumentID, draft.CustomerName, actor)
	}
	if err != nil {
		return err
	}

	inv.Number = number
	inv.DisplayNumber = w.alloc.Display(number)
	return nil
}
