package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/shopspring/decimal"
)

const testPasscode = "123456"

type stubAuthorizer struct {
	code     string
	approver string
	calls    int
}

func newStubAuthorizer() *stubAuthorizer {
	return &stubAuthorizer{code: testPasscode, approver: "supervisor"}
}

func (s *stubAuthorizer) Authorize(_ context.Context, passcode string) (string, error) {
	s.calls++
	if passcode != s.code {
		return "", apperror.ErrInvalidPasscode
	}
	return s.approver, nil
}

type fakeLedger struct {
	mu sync.Mutex

	submitErr  error
	confirmErr error
	previewErr error

	submitted    []SaleSubmission
	confirmCalls int
	previewCalls int

	opening decimal.Decimal
	sales   []SaleSummary
	// recordShift is stamped on confirmed records.
	recordShift uuid.UUID

	// block, when set, holds ConfirmSettlement until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func newFakeLedger(opening string, sales ...SaleSummary) *fakeLedger {
	return &fakeLedger{opening: money.MustParse(opening), sales: sales}
}

func (f *fakeLedger) SubmitSale(_ context.Context, sale SaleSubmission) (*SaleReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, sale)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &SaleReceipt{
		SaleID:     uuid.New(),
		InvoiceNo:  "INV-0001",
		RecordedAt: time.Now(),
		GrandTotal: sale.Totals.GrandTotal,
		Tendered:   sale.Tender.Tendered,
		Change:     sale.Tender.Change,
	}, nil
}

func (f *fakeLedger) PreviewSettlement(_ context.Context, branchID, cashierID uuid.UUID) (*ShiftSettlement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewCalls++
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	s := Summarize(f.opening, f.sales)
	s.BranchID, s.CashierID = branchID, cashierID
	return &s, nil
}

func (f *fakeLedger) ConfirmSettlement(_ context.Context, branchID, cashierID uuid.UUID) (*SettlementRecord, error) {
	f.mu.Lock()
	f.confirmCalls++
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	s := Summarize(f.opening, f.sales)
	s.BranchID, s.CashierID, s.ShiftID = branchID, cashierID, f.recordShift
	// Confirmed sales are settled and drop out of the next aggregate.
	f.sales = nil
	return &SettlementRecord{ID: uuid.New(), ConfirmedAt: time.Now(), ShiftSettlement: s}, nil
}

type fakePrinter struct {
	err     error
	printed []*SettlementRecord
}

func (p *fakePrinter) PrintSettlement(_ context.Context, rec *SettlementRecord) error {
	p.printed = append(p.printed, rec)
	return p.err
}

var errUnreachable = errors.New("ledger unreachable")

func testSession() SessionContext {
	return SessionContext{
		CashierID:       uuid.New(),
		CashierName:     "Ana",
		BranchID:        uuid.New(),
		BranchName:      "Makati",
		ShiftID:         uuid.New(),
		OpeningCashFund: money.MustParse("1000"),
		ShiftOpenedAt:   time.Now(),
	}
}

func cashSale(grand string, lines ...SaleLine) SaleSummary {
	g := money.MustParse(grand)
	return SaleSummary{
		SaleID:        uuid.New(),
		Subtotal:      g,
		DiscountTotal: money.Zero,
		Tax:           money.Zero,
		GrandTotal:    g,
		TenderMode:    enum.TenderCash,
		Lines:         lines,
	}
}

func product(ref, price string) ItemInput {
	return ItemInput{Kind: enum.ItemKindProduct, ProductRef: ref, Name: ref, UnitPrice: money.MustParse(price), Quantity: 1}
}

func meal(ref, price string) ItemInput {
	return ItemInput{Kind: enum.ItemKindMeal, ProductRef: ref, Name: ref, UnitPrice: money.MustParse(price), Quantity: 1}
}

func amt(s string) decimal.Decimal {
	return money.MustParse(s)
}

func amtInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
