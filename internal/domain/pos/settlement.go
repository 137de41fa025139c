package pos

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/shopspring/decimal"
)

// Summarize aggregates sales against the opening cash fund. Refunded sales
// are listed but do not count towards any total.
func Summarize(openingCashFund decimal.Decimal, sales []SaleSummary) ShiftSettlement {
	s := ShiftSettlement{
		OpeningCashFund: openingCashFund,
		Sales:           sales,
		TotalSales:      money.Zero,
		TotalCash:       money.Zero,
		TotalCashless:   money.Zero,
		TotalDiscount:   money.Zero,
		TotalTax:        money.Zero,
	}
	if s.Sales == nil {
		s.Sales = []SaleSummary{}
	}

	type key struct {
		kind enum.ItemKind
		ref  string
	}
	breakdown := map[key]*ProductLine{}

	for _, sale := range sales {
		if sale.Refunded {
			s.NumRefunded++
			continue
		}
		s.NumTransactions++
		s.TotalSales = s.TotalSales.Add(sale.Subtotal)
		s.TotalDiscount = s.TotalDiscount.Add(sale.DiscountTotal)
		s.TotalTax = s.TotalTax.Add(sale.Tax)
		if sale.TenderMode == enum.TenderCashless {
			s.TotalCashless = s.TotalCashless.Add(sale.GrandTotal)
		} else {
			s.TotalCash = s.TotalCash.Add(sale.GrandTotal)
		}

		for _, line := range sale.Lines {
			k := key{line.Kind, line.ProductRef}
			pl, ok := breakdown[k]
			if !ok {
				pl = &ProductLine{Kind: line.Kind, ProductRef: line.ProductRef, Name: line.Name, Amount: money.Zero}
				breakdown[k] = pl
			}
			pl.Quantity += line.Quantity
			pl.Amount = pl.Amount.Add(line.Amount)
		}
	}

	s.NetSales = s.TotalCash.Add(s.TotalCashless)
	s.ExpectedCash = openingCashFund.Add(s.TotalCash)

	s.ProductBreakdown = make([]ProductLine, 0, len(breakdown))
	for _, pl := range breakdown {
		s.ProductBreakdown = append(s.ProductBreakdown, *pl)
	}
	sort.Slice(s.ProductBreakdown, func(i, j int) bool {
		a, b := s.ProductBreakdown[i], s.ProductBreakdown[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Name < b.Name
	})
	return s
}

// SettlementCoordinator runs the two-step end of shift for one cashier:
// any number of previews, then a single confirmation whose result is kept
// for reprinting.
type SettlementCoordinator struct {
	ledger  LedgerService
	printer ReportPrinter

	mu             sync.Mutex
	confirming     bool
	confirmed      *SettlementRecord
	confirmedShift uuid.UUID
}

// NewSettlementCoordinator creates a coordinator. printer may be nil.
func NewSettlementCoordinator(ledger LedgerService, printer ReportPrinter) *SettlementCoordinator {
	return &SettlementCoordinator{ledger: ledger, printer: printer}
}

// Preview fetches the current aggregate. It is read-only and safe to repeat.
func (c *SettlementCoordinator) Preview(ctx context.Context, session SessionContext) (*ShiftSettlement, error) {
	preview, err := c.ledger.PreviewSettlement(ctx, session.BranchID, session.CashierID)
	if err != nil {
		return nil, settlementError("Failed to load settlement preview", err)
	}
	return preview, nil
}

// Confirm finalizes the shift. It calls the ledger at most once per shift:
// a confirm while another is in flight is rejected, and a confirm after a
// successful one returns the stored record. A failed confirm is never
// retried here.
//
// When printing fails the confirmed record is still returned, together
// with a print error.
func (c *SettlementCoordinator) Confirm(ctx context.Context, session SessionContext) (*SettlementRecord, error) {
	c.mu.Lock()
	// The ledger closes the shift on confirm, so a session without a shift
	// right after a confirmation still refers to the confirmed one.
	if c.confirmed != nil && (c.confirmedShift == session.ShiftID || !session.HasOpenShift()) {
		rec := c.confirmed
		c.mu.Unlock()
		return rec, nil
	}
	if c.confirming {
		c.mu.Unlock()
		return nil, apperror.NewLockedError("Settlement confirmation is already in progress")
	}
	c.confirming = true
	c.mu.Unlock()

	rec, err := c.ledger.ConfirmSettlement(ctx, session.BranchID, session.CashierID)

	c.mu.Lock()
	c.confirming = false
	if err == nil {
		c.confirmed = rec
		c.confirmedShift = session.ShiftID
	}
	c.mu.Unlock()

	if err != nil {
		return nil, settlementError("Failed to confirm settlement", err)
	}
	if err := c.print(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// RetryPrint reprints the last confirmed record without confirming again.
func (c *SettlementCoordinator) RetryPrint(ctx context.Context) (*SettlementRecord, error) {
	rec := c.LastConfirmed()
	if rec == nil {
		return nil, invalid("settlement", "There is no confirmed settlement to print")
	}
	if err := c.print(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// LastConfirmed returns the stored confirmation, if any.
func (c *SettlementCoordinator) LastConfirmed() *SettlementRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// InFlight reports whether a confirmation is currently running.
func (c *SettlementCoordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirming
}

func (c *SettlementCoordinator) print(ctx context.Context, rec *SettlementRecord) error {
	if c.printer == nil {
		return nil
	}
	if err := c.printer.PrintSettlement(ctx, rec); err != nil {
		return apperror.NewPrintError("Settlement confirmed but the report could not be printed", err)
	}
	return nil
}

// settlementError keeps specific ledger errors (no open shift, validation)
// and wraps anything else.
func settlementError(message string, err error) error {
	switch apperror.KindOf(err) {
	case apperror.KindInternal:
		return apperror.NewSettlementError(message, err)
	default:
		return err
	}
}
