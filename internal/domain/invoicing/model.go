// Package invoicing implements the invoice-creation workflow that consumes
// numbers from the series allocator.
package invoicing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"serio/internal/core/id"
	"serio/internal/core/types"
)

// Draft is the caller's input: an invoice that is otherwise finalized and
// only needs a number bound to it.
type Draft struct {
	// CustomerName is the billed party. When the draft targets a number
	// reserved for this customer, it must match the reservation's purpose.
	CustomerName string `json:"customerName"`

	// Number optionally targets a specific number (the caller's own
	// reservation). Zero means "use the next available".
	Number int64 `json:"number,omitempty"`

	Currency        string `json:"currency"`
	DisplayCurrency string `json:"displayCurrency,omitempty"`

	Lines []Line `json:"lines"`
}

// Line is one invoice position.
type Line struct {
	Description string      `json:"description"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
}

// Amount returns quantity times unit price.
func (l Line) Amount() types.Money {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Invoice is the finished, immutable record produced by the workflow.
type Invoice struct {
	DocumentID    string      `json:"documentId"`
	Number        int64       `json:"number"`
	DisplayNumber string      `json:"displayNumber"`
	CustomerName  string      `json:"customerName"`
	Currency      string      `json:"currency"`
	Lines         []Line      `json:"lines"`
	Total         types.Money `json:"total"`

	// Display conversion is a read-only rate lookup for the dashboard;
	// the stored record keeps the original currency authoritative.
	DisplayCurrency string      `json:"displayCurrency,omitempty"`
	DisplayTotal    types.Money `json:"displayTotal,omitempty"`

	IssuedBy string    `json:"issuedBy"`
	IssuedAt time.Time `json:"issuedAt"`
}

// RateProvider is the external currency-rate collaborator. Pure read-only
// lookup; not part of the allocator.
type RateProvider interface {
	// Rate returns the multiplier converting from one currency to another.
	Rate(ctx context.Context, from, to string) (types.Money, error)
}

// Renderer is the external print/PDF collaborator. It consumes a finished,
// immutable invoice record.
type Renderer interface {
	Render(ctx context.Context, inv *Invoice) ([]byte, error)
}

// Archiver stores the finished record in the document archive.
type Archiver interface {
	ArchiveInvoice(ctx context.Context, inv *Invoice, actor string) (id.ID, error)
}
