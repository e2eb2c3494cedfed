package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"serio/internal/domain/invoicing"
)

// CreateInvoiceRequest creates and numbers a new invoice.
// Number zero means "allocate the next available number".
type CreateInvoiceRequest struct {
	CustomerName    string             `json:"customerName" binding:"required"`
	Number          int64              `json:"number" binding:"min=0"`
	Currency        string             `json:"currency"`
	DisplayCurrency string             `json:"displayCurrency"`
	Lines           []InvoiceLineInput `json:"lines" binding:"required,min=1,dive"`
}

// InvoiceLineInput is one billable line.
type InvoiceLineInput struct {
	Description string `json:"description" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice   string `json:"unitPrice" binding:"required"`
}

// ToDraft converts the request into a domain draft. Unit prices are
// decimal strings; a parse failure is reported per line.
func (r *CreateInvoiceRequest) ToDraft() (*invoicing.Draft, error) {
	lines := make([]invoicing.Line, len(r.Lines))
	for i, in := range r.Lines {
		price, err := decimal.NewFromString(in.UnitPrice)
		if err != nil {
			return nil, err
		}
		lines[i] = invoicing.Line{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   price,
		}
	}
	return &invoicing.Draft{
		CustomerName:    r.CustomerName,
		Number:          r.Number,
		Currency:        r.Currency,
		DisplayCurrency: r.DisplayCurrency,
		Lines:           lines,
	}, nil
}

// InvoiceResponse is the created invoice.
type InvoiceResponse struct {
	DocumentID      string    `json:"documentId"`
	Number          int64     `json:"number"`
	DisplayNumber   string    `json:"displayNumber"`
	CustomerName    string    `json:"customerName"`
	Currency        string    `json:"currency"`
	Total           string    `json:"total"`
	DisplayCurrency string    `json:"displayCurrency,omitempty"`
	DisplayTotal    string    `json:"displayTotal,omitempty"`
	IssuedBy        string    `json:"issuedBy"`
	IssuedAt        time.Time `json:"issuedAt"`
}

// FromInvoice converts a domain invoice to its API shape.
func FromInvoice(inv *invoicing.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		DocumentID:    inv.DocumentID,
		Number:        inv.Number,
		DisplayNumber: inv.DisplayNumber,
		CustomerName:  inv.CustomerName,
		Currency:      inv.Currency,
		Total:         inv.Total.StringFixed(2),
		IssuedBy:      inv.IssuedBy,
		IssuedAt:      inv.IssuedAt,
	}
	if inv.DisplayCurrency != "" {
		resp.DisplayCurrency = inv.DisplayCurrency
		resp.DisplayTotal = inv.DisplayTotal.StringFixed(2)
	}
	return resp
}
