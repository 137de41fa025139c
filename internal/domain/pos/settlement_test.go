package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settlementSales() []SaleSummary {
	burger := func(qty int, amount string) SaleLine {
		return SaleLine{Kind: enum.ItemKindProduct, ProductRef: "burger", Name: "Burger", Quantity: qty, Amount: amt(amount)}
	}
	combo := SaleLine{Kind: enum.ItemKindMeal, ProductRef: "combo", Name: "Combo", Quantity: 1, Amount: amt("150")}

	cash := cashSale("112", burger(1, "100"))
	cash.Subtotal, cash.Tax = amt("100"), amt("12")

	cashless := cashSale("336", burger(2, "200"), combo)
	cashless.Subtotal, cashless.Tax, cashless.DiscountTotal = amt("350"), amt("42"), amt("56")
	cashless.TenderMode, cashless.CashlessType = enum.TenderCashless, "gcash"

	refunded := cashSale("50", burger(5, "500"))
	refunded.Refunded = true

	return []SaleSummary{cash, cashless, refunded}
}

func TestSummarize(t *testing.T) {
	s := Summarize(amt("1000"), settlementSales())

	assert.Equal(t, 2, s.NumTransactions)
	assert.Equal(t, 1, s.NumRefunded)
	assert.True(t, s.TotalSales.Equal(amt("450")))
	assert.True(t, s.TotalDiscount.Equal(amt("56")))
	assert.True(t, s.TotalTax.Equal(amt("54")))
	assert.True(t, s.TotalCash.Equal(amt("112")))
	assert.True(t, s.TotalCashless.Equal(amt("336")))
	assert.True(t, s.NetSales.Equal(amt("448")))
	assert.True(t, s.ExpectedCash.Equal(s.OpeningCashFund.Add(s.TotalCash)))
	assert.True(t, s.ExpectedCash.Equal(amt("1112")))

	require.Len(t, s.ProductBreakdown, 2)
	assert.Equal(t, "burger", s.ProductBreakdown[0].ProductRef)
	assert.Equal(t, 3, s.ProductBreakdown[0].Quantity)
	assert.True(t, s.ProductBreakdown[0].Amount.Equal(amt("300")))
	assert.Equal(t, enum.ItemKindMeal, s.ProductBreakdown[1].Kind)
}

func TestSummarize_NoSales(t *testing.T) {
	s := Summarize(amt("500"), nil)
	assert.NotNil(t, s.Sales)
	assert.NotNil(t, s.ProductBreakdown)
	assert.Zero(t, s.NumTransactions)
	assert.True(t, s.ExpectedCash.Equal(amt("500")))
}

func TestPreview_IsRepeatable(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	c := NewSettlementCoordinator(ledger, nil)
	session := testSession()

	first, err := c.Preview(context.Background(), session)
	require.NoError(t, err)
	second, err := c.Preview(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, 2, ledger.previewCalls)
	assert.True(t, first.NetSales.Equal(second.NetSales))
	assert.Zero(t, ledger.confirmCalls)
}

func TestPreview_FailureIsSettlementError(t *testing.T) {
	ledger := newFakeLedger("0")
	ledger.previewErr = errUnreachable
	c := NewSettlementCoordinator(ledger, nil)

	_, err := c.Preview(context.Background(), testSession())
	assert.Equal(t, apperror.KindSettlement, apperror.KindOf(err))
	assert.True(t, errors.Is(err, errUnreachable))
}

func TestConfirm_TwiceDoesNotDoubleCount(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	printer := &fakePrinter{}
	c := NewSettlementCoordinator(ledger, printer)
	session := testSession()

	first, err := c.Confirm(context.Background(), session)
	require.NoError(t, err)
	second, err := c.Confirm(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, 1, ledger.confirmCalls)
	assert.Same(t, first, second)
	assert.True(t, second.TotalCash.Equal(amt("112")))
	assert.True(t, second.ExpectedCash.Equal(amt("1112")))
	assert.Len(t, printer.printed, 1)
}

func TestConfirm_IgnoresShiftOnReturnedRecord(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	ledger.recordShift = uuid.New()
	printer := &fakePrinter{}
	c := NewSettlementCoordinator(ledger, printer)
	session := testSession()

	first, err := c.Confirm(context.Background(), session)
	require.NoError(t, err)
	require.NotEqual(t, session.ShiftID, first.ShiftID)

	second, err := c.Confirm(context.Background(), session)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, ledger.confirmCalls)
	assert.Len(t, printer.printed, 1)
}

func TestConfirm_RejectsWhileInFlight(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	ledger.block = make(chan struct{})
	ledger.entered = make(chan struct{})
	c := NewSettlementCoordinator(ledger, nil)
	session := testSession()

	done := make(chan error, 1)
	go func() {
		_, err := c.Confirm(context.Background(), session)
		done <- err
	}()

	select {
	case <-ledger.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("confirm never reached the ledger")
	}
	assert.True(t, c.InFlight())

	_, err := c.Confirm(context.Background(), session)
	assert.Equal(t, apperror.KindLocked, apperror.KindOf(err))

	close(ledger.block)
	require.NoError(t, <-done)
	assert.False(t, c.InFlight())
	assert.Equal(t, 1, ledger.confirmCalls)
}

func TestConfirm_FailureIsNotRetried(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	ledger.confirmErr = errUnreachable
	printer := &fakePrinter{}
	c := NewSettlementCoordinator(ledger, printer)

	rec, err := c.Confirm(context.Background(), testSession())
	assert.Nil(t, rec)
	assert.Equal(t, apperror.KindSettlement, apperror.KindOf(err))
	assert.Equal(t, 1, ledger.confirmCalls)
	assert.Nil(t, c.LastConfirmed())
	assert.Empty(t, printer.printed)

	_, err = c.RetryPrint(context.Background())
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, 1, ledger.confirmCalls)
}

func TestConfirm_KeepsSpecificLedgerErrors(t *testing.T) {
	ledger := newFakeLedger("0")
	ledger.confirmErr = apperror.NewNotFoundError("Open shift")
	c := NewSettlementCoordinator(ledger, nil)

	_, err := c.Confirm(context.Background(), testSession())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestConfirm_PrintFailureThenRetryPrint(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	printer := &fakePrinter{err: errors.New("paper out")}
	c := NewSettlementCoordinator(ledger, printer)

	rec, err := c.Confirm(context.Background(), testSession())
	require.NotNil(t, rec, "a print failure must not hide the confirmed record")
	assert.Equal(t, apperror.KindPrint, apperror.KindOf(err))

	printer.err = nil
	again, err := c.RetryPrint(context.Background())
	require.NoError(t, err)
	assert.Same(t, rec, again)
	assert.Len(t, printer.printed, 2)
	assert.Equal(t, 1, ledger.confirmCalls)
}

func TestConfirm_NewShiftConfirmsAgain(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	c := NewSettlementCoordinator(ledger, nil)

	_, err := c.Confirm(context.Background(), testSession())
	require.NoError(t, err)
	rec, err := c.Confirm(context.Background(), testSession())
	require.NoError(t, err)

	assert.Equal(t, 2, ledger.confirmCalls)
	assert.Zero(t, rec.NumTransactions, "sales of the first shift were already settled")
}

func TestConfirm_AfterShiftClosedReturnsStoredRecord(t *testing.T) {
	ledger := newFakeLedger("1000", settlementSales()...)
	c := NewSettlementCoordinator(ledger, nil)
	session := testSession()

	first, err := c.Confirm(context.Background(), session)
	require.NoError(t, err)

	session.ShiftID = uuid.Nil
	second, err := c.Confirm(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, 1, ledger.confirmCalls)
	assert.Same(t, first, second)
}
