package invoicing

import (
	"context"
	"sync"
	"testing"

	"serio/internal/core/apperror"
	"serio/internal/core/id"
	"serio/internal/core/types"
	"serio/internal/domain/series"
	"serio/internal/infrastructure/storage/memory"
	"serio/pkg/logger"
)

type recordingArchiver struct {
	mu       sync.Mutex
	archived []*Invoice
}

func (a *recordingArchiver) ArchiveInvoice(_ context.Context, inv *Invoice, _ string) (id.ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, inv)
	return id.New(), nil
}

func newTestWorkflow(t *testing.T) (*Workflow, *series.Service, *recordingArchiver) {
	t.Helper()
	store := memory.New(series.Config{Prefix: "INV", FiscalPeriod: "2026", PadWidth: 5})
	alloc, err := series.NewService(context.Background(), store, logger.Default(), series.ServiceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	archiver := &recordingArchiver{}
	wf := NewWorkflow(alloc, archiver, DefaultRates(), logger.Default())
	return wf, alloc, archiver
}

func draftFor(customer string, lines ...Line) Draft {
	if len(lines) == 0 {
		lines = []Line{{Description: "Consulting", Quantity: 2, UnitPrice: types.MustMoney("150.00")}}
	}
	return Draft{CustomerName: customer, Currency: "EUR", Lines: lines}
}

func TestCreateInvoiceAutoNumber(t *testing.T) {
	wf, alloc, archiver := newTestWorkflow(t)
	ctx := context.Background()

	inv, err := wf.CreateInvoice(ctx, draftFor("Acme Ltd"), "ops@example.com")
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	if inv.Number != 1 {
		t.Errorf("number: want 1, got %d", inv.Number)
	}
	if inv.DisplayNumber != "INV-2026-00001" {
		t.Errorf("display number: want INV-2026-00001, got %s", inv.DisplayNumber)
	}
	if got := inv.Total.StringFixed(2); got != "300.00" {
		t.Errorf("total: want 300.00, got %s", got)
	}
	if len(archiver.archived) != 1 {
		t.Errorf("archive: want 1 record, got %d", len(archiver.archived))
	}
	if alloc.NextAvailable() != 2 {
		t.Errorf("allocator did not advance: next is %d", alloc.NextAvailable())
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		draft Draft
	}{
		{"empty customer", draftFor("")},
		{"no lines", Draft{CustomerName: "Acme Ltd", Lines: nil}},
		{"zero quantity", draftFor("Acme Ltd", Line{Description: "x", Quantity: 0, UnitPrice: types.MustMoney("1")})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wf.CreateInvoice(ctx, tt.draft, "ops")
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeInvalidInput {
				t.Fatalf("expected InvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateInvoiceOnOwnReservation(t *testing.T) {
	wf, alloc, _ := newTestWorkflow(t)
	ctx := context.Background()

	if _, err := alloc.Reserve(ctx, 5, "Acme Ltd", "pre-printed forms", "ops"); err != nil {
		t.Fatal(err)
	}

	draft := draftFor("Acme Ltd")
	draft.Number = 5
	inv, err := wf.CreateInvoice(ctx, draft, "ops")
	if err != nil {
		t.Fatalf("CreateInvoice on reservation failed: %v", err)
	}
	if inv.Number != 5 {
		t.Errorf("number: want 5, got %d", inv.Number)
	}
	if len(alloc.Snapshot().Reserves) != 0 {
		t.Error("reservation should be consumed")
	}
}

func TestCreateInvoiceRejectsForeignReservation(t *testing.T) {
	wf, alloc, _ := newTestWorkflow(t)
	ctx := context.Background()

	if _, err := alloc.Reserve(ctx, 5, "Globex Inc", "", "ops"); err != nil {
		t.Fatal(err)
	}

	draft := draftFor("Acme Ltd")
	draft.Number = 5
	_, err := wf.CreateInvoice(ctx, draft, "ops")
	if !apperror.IsInvalidNumber(err) {
		t.Fatalf("expected InvalidNumber, got %v", err)
	}
}

func TestCreateInvoiceCallerNumberNeverSubstituted(t *testing.T) {
	wf, alloc, _ := newTestWorkflow(t)
	ctx := context.Background()

	// Claim number 1 so a caller asking for it explicitly loses.
	if _, err := alloc.Issue(ctx, 1, "doc-000", "", "ops"); err != nil {
		t.Fatal(err)
	}

	draft := draftFor("Acme Ltd")
	draft.Number = 1
	_, err := wf.CreateInvoice(ctx, draft, "ops")
	if !apperror.IsNumberAlreadyTaken(err) {
		t.Fatalf("expected NumberAlreadyTaken without retry, got %v", err)
	}
}

func TestCreateInvoiceConcurrentAutoNumbers(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	// Two racers: both may preview the same candidate, the loser re-queries
	// and retries once, which always resolves a two-way race.
	const n = 2
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := wf.CreateInvoice(ctx, draftFor("Acme Ltd"), "ops")
			if err != nil {
				t.Errorf("concurrent CreateInvoice failed: %v", err)
				return
			}
			numbers <- inv.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool)
	for num := range numbers {
		if seen[num] {
			t.Fatalf("number %d issued twice", num)
		}
		seen[num] = true
	}
}

func TestCreateInvoiceDisplayConversion(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	draft := draftFor("Acme Ltd")
	draft.DisplayCurrency = "USD"
	inv, err := wf.CreateInvoice(ctx, draft, "ops")
	if err != nil {
		t.Fatal(err)
	}
	if inv.DisplayCurrency != "USD" {
		t.Errorf("display currency: want USD, got %s", inv.DisplayCurrency)
	}
	if got := inv.DisplayTotal.StringFixed(2); got != "324.00" {
		t.Errorf("display total: want 324.00, got %s", got)
	}

	// An unknown pair only drops the conversion, never the invoice.
	draft = draftFor("Acme Ltd")
	draft.DisplayCurrency = "JPY"
	inv, err = wf.CreateInvoice(ctx, draft, "ops")
	if err != nil {
		t.Fatal(err)
	}
	if inv.DisplayCurrency != "" {
		t.Errorf("display currency should be empty, got %s", inv.DisplayCurrency)
	}
}
