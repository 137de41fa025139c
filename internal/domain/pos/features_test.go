package pos

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/shopspring/decimal"
)

type featureContext struct {
	ctx     context.Context
	session SessionContext

	checkout *Checkout
	last     CheckoutSnapshot
	keys     []string

	ledger      *fakeLedger
	printer     *fakePrinter
	coordinator *SettlementCoordinator
	settlement  *ShiftSettlement

	err error
}

func (f *featureContext) reset() {
	f.ctx = context.Background()
	f.session = testSession()
	f.checkout = nil
	f.last = CheckoutSnapshot{}
	f.keys = nil
	f.ledger = newFakeLedger("0")
	f.printer = &fakePrinter{}
	f.coordinator = NewSettlementCoordinator(f.ledger, f.printer)
	f.settlement = nil
	f.err = nil
}

func (f *featureContext) record(snap CheckoutSnapshot, err error) {
	f.last, f.err = snap, err
}

func parseAmount(s string) (decimal.Decimal, error) {
	return money.Parse(s)
}

func expectAmount(label string, got decimal.Decimal, want string) error {
	w, err := parseAmount(want)
	if err != nil {
		return err
	}
	if !got.Equal(w) {
		return fmt.Errorf("expected %s %s, got %s", label, money.Format(w), money.Format(got))
	}
	return nil
}

// Checkout steps

func (f *featureContext) aNewCheckoutWithPasscode(code string) error {
	auth := newStubAuthorizer()
	auth.code = code
	f.checkout = NewCheckout(auth)
	f.last = f.checkout.Snapshot()
	return nil
}

func (f *featureContext) iAddAnItem(kind, ref, price string, qty int) error {
	p, err := parseAmount(price)
	if err != nil {
		return err
	}
	k, err := enum.ParseItemKind(kind)
	if err != nil {
		return err
	}
	f.record(f.checkout.AddItem(ItemInput{Kind: k, ProductRef: ref, Name: ref, UnitPrice: p, Quantity: qty}))
	return f.err
}

func (f *featureContext) findItem(ref string) (LineItem, error) {
	for _, it := range f.checkout.Snapshot().Order.Items {
		if it.ProductRef == ref {
			return it.LineItem, nil
		}
	}
	return LineItem{}, fmt.Errorf("no item %q on the order", ref)
}

func (f *featureContext) iApplyAPercentDiscount(pct, note, ref, passcode string) error {
	it, err := f.findItem(ref)
	if err != nil {
		return err
	}
	v, err := parseAmount(pct)
	if err != nil {
		return err
	}
	in := DiscountInput{Category: enum.DiscountPercentage, Value: v, Note: note}
	f.record(f.checkout.ApplyItemDiscount(f.ctx, it.ID, it.Kind, in, passcode))
	return nil
}

func (f *featureContext) iApplyASeniorDiscount(ref, passcode string) error {
	it, err := f.findItem(ref)
	if err != nil {
		return err
	}
	in := DiscountInput{Category: enum.DiscountSeniorPWD}
	f.record(f.checkout.ApplyItemDiscount(f.ctx, it.ID, it.Kind, in, passcode))
	return nil
}

func (f *featureContext) iTenderCash(amount string) error {
	v, err := parseAmount(amount)
	if err != nil {
		return err
	}
	f.record(f.checkout.AddCash(v))
	return f.err
}

func (f *featureContext) iTenderTheExactAmount() error {
	f.record(f.checkout.ExactAmount())
	return f.err
}

func (f *featureContext) theLedgerIsUnreachable() error {
	f.ledger.submitErr = errUnreachable
	return nil
}

func (f *featureContext) theLedgerIsReachable() error {
	f.ledger.submitErr = nil
	return nil
}

func (f *featureContext) iFinalizeTheSale() error {
	sub, err := f.checkout.BeginFinalize(f.session)
	if err != nil {
		f.err = err
		return nil
	}
	f.keys = append(f.keys, sub.SubmissionKey)
	receipt, err := f.ledger.SubmitSale(f.ctx, sub)
	if err != nil {
		f.last = f.checkout.FailFinalize()
		f.err = apperror.NewSubmissionError("Sale could not be recorded", err)
		return nil
	}
	f.record(f.checkout.CompleteFinalize(*receipt))
	return nil
}

func (f *featureContext) theSubtotalIs(want string) error {
	return expectAmount("subtotal", f.checkout.Snapshot().Order.Totals.Subtotal, want)
}

func (f *featureContext) theItemDiscountTotalIs(want string) error {
	return expectAmount("item discount total", f.checkout.Snapshot().Order.Totals.ItemDiscountTotal, want)
}

func (f *featureContext) theOrderDiscountIs(want string) error {
	return expectAmount("order discount", f.checkout.Snapshot().Order.Totals.OrderDiscountAmount, want)
}

func (f *featureContext) theTaxIs(want string) error {
	return expectAmount("tax", f.checkout.Snapshot().Order.Totals.Tax, want)
}

func (f *featureContext) theGrandTotalIs(want string) error {
	return expectAmount("grand total", f.checkout.Snapshot().Order.Totals.GrandTotal, want)
}

func (f *featureContext) theRemainingBalanceIs(want string) error {
	return expectAmount("remaining", f.checkout.Snapshot().Tender.Remaining, want)
}

func (f *featureContext) theChangeIs(want string) error {
	return expectAmount("change", f.checkout.Snapshot().Tender.Change, want)
}

func (f *featureContext) thePaymentStateIs(want string) error {
	if got := f.checkout.State(); string(got) != want {
		return fmt.Errorf("expected state %s, got %s", want, got)
	}
	return nil
}

func (f *featureContext) theSaleJustBecameCovered() error {
	if !f.last.BecameCovered {
		return errors.New("expected the last call to report the covered edge")
	}
	return nil
}

func (f *featureContext) theOrderIsEmpty() error {
	if n := len(f.checkout.Snapshot().Order.Items); n != 0 {
		return fmt.Errorf("expected an empty order, got %d items", n)
	}
	return nil
}

func (f *featureContext) theOrderHasItems(n int) error {
	if got := len(f.checkout.Snapshot().Order.Items); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (f *featureContext) theLedgerRecordedSales(n int) error {
	ok := 0
	if f.ledger.submitErr == nil {
		ok = len(f.ledger.submitted)
	}
	if ok != n {
		return fmt.Errorf("expected %d recorded sales, got %d", n, ok)
	}
	return nil
}

func (f *featureContext) everySubmissionUsedTheSameKey() error {
	if len(f.keys) < 2 {
		return fmt.Errorf("expected at least two submissions, got %d", len(f.keys))
	}
	for _, k := range f.keys[1:] {
		if k != f.keys[0] {
			return fmt.Errorf("submission keys differ: %v", f.keys)
		}
	}
	return nil
}

func (f *featureContext) theLastCallFailedWith(kind string) error {
	if f.err == nil {
		return errors.New("expected the last call to fail")
	}
	if got := apperror.KindOf(f.err); string(got) != kind {
		return fmt.Errorf("expected a %s error, got %s: %v", kind, got, f.err)
	}
	return nil
}

// Settlement steps

func (f *featureContext) anOpeningCashFundOf(amount string) error {
	v, err := parseAmount(amount)
	if err != nil {
		return err
	}
	f.ledger.opening = v
	f.session.OpeningCashFund = v
	return nil
}

func (f *featureContext) aCompletedSale(mode, amount string) error {
	sale := cashSale(amount, SaleLine{Kind: enum.ItemKindProduct, ProductRef: "burger", Name: "Burger", Quantity: 1, Amount: money.MustParse(amount)})
	if mode == "cashless" {
		sale.TenderMode, sale.CashlessType = enum.TenderCashless, "gcash"
	}
	f.ledger.sales = append(f.ledger.sales, sale)
	return nil
}

func (f *featureContext) aRefundedCashSale(amount string) error {
	sale := cashSale(amount)
	sale.Refunded = true
	f.ledger.sales = append(f.ledger.sales, sale)
	return nil
}

func (f *featureContext) thePrinterIsOutOfPaper() error {
	f.printer.err = errors.New("paper out")
	return nil
}

func (f *featureContext) thePrinterIsFixed() error {
	f.printer.err = nil
	return nil
}

func (f *featureContext) iPreviewTheSettlement() error {
	f.settlement, f.err = f.coordinator.Preview(f.ctx, f.session)
	return f.err
}

func (f *featureContext) iConfirmTheSettlement() error {
	rec, err := f.coordinator.Confirm(f.ctx, f.session)
	f.err = err
	if rec != nil {
		f.settlement = &rec.ShiftSettlement
	}
	return nil
}

func (f *featureContext) iRetryPrinting() error {
	_, f.err = f.coordinator.RetryPrint(f.ctx)
	return f.err
}

func (f *featureContext) settled() (*ShiftSettlement, error) {
	if f.settlement == nil {
		return nil, errors.New("no settlement has been loaded")
	}
	return f.settlement, nil
}

func (f *featureContext) theExpectedCashIs(want string) error {
	s, err := f.settled()
	if err != nil {
		return err
	}
	return expectAmount("expected cash", s.ExpectedCash, want)
}

func (f *featureContext) theNetSalesAre(want string) error {
	s, err := f.settled()
	if err != nil {
		return err
	}
	return expectAmount("net sales", s.NetSales, want)
}

func (f *featureContext) theTotalCashIs(want string) error {
	s, err := f.settled()
	if err != nil {
		return err
	}
	return expectAmount("total cash", s.TotalCash, want)
}

func (f *featureContext) theTransactionCountIs(n int) error {
	s, err := f.settled()
	if err != nil {
		return err
	}
	if s.NumTransactions != n {
		return fmt.Errorf("expected %d transactions, got %d", n, s.NumTransactions)
	}
	return nil
}

func (f *featureContext) theLedgerReceivedConfirmations(n int) error {
	if f.ledger.confirmCalls != n {
		return fmt.Errorf("expected %d confirmations, got %d", n, f.ledger.confirmCalls)
	}
	return nil
}

func (f *featureContext) thePrinterPrintedReports(n int) error {
	if got := len(f.printer.printed); got != n {
		return fmt.Errorf("expected %d printed reports, got %d", n, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	f := &featureContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	const amount = `(\d+(?:\.\d+)?)`

	ctx.Step(`^a new checkout with discount passcode "([^"]*)"$`, f.aNewCheckoutWithPasscode)
	ctx.Step(`^the ledger is unreachable$`, f.theLedgerIsUnreachable)
	ctx.Step(`^the ledger is reachable$`, f.theLedgerIsReachable)
	ctx.Step(`^I add a (product|meal) "([^"]*)" priced `+amount+` with quantity (\d+)$`, f.iAddAnItem)
	ctx.Step(`^I apply a `+amount+` percent discount with note "([^"]*)" to "([^"]*)" using passcode "([^"]*)"$`, f.iApplyAPercentDiscount)
	ctx.Step(`^I apply a senior discount to "([^"]*)" using passcode "([^"]*)"$`, f.iApplyASeniorDiscount)
	ctx.Step(`^I tender cash `+amount+`$`, f.iTenderCash)
	ctx.Step(`^I tender the exact amount$`, f.iTenderTheExactAmount)
	ctx.Step(`^I finalize the sale$`, f.iFinalizeTheSale)
	ctx.Step(`^the subtotal is `+amount+`$`, f.theSubtotalIs)
	ctx.Step(`^the item discount total is `+amount+`$`, f.theItemDiscountTotalIs)
	ctx.Step(`^the order discount is `+amount+`$`, f.theOrderDiscountIs)
	ctx.Step(`^the tax is `+amount+`$`, f.theTaxIs)
	ctx.Step(`^the grand total is `+amount+`$`, f.theGrandTotalIs)
	ctx.Step(`^the remaining balance is `+amount+`$`, f.theRemainingBalanceIs)
	ctx.Step(`^the change is `+amount+`$`, f.theChangeIs)
	ctx.Step(`^the payment state is "([^"]*)"$`, f.thePaymentStateIs)
	ctx.Step(`^the sale just became covered$`, f.theSaleJustBecameCovered)
	ctx.Step(`^the order is empty$`, f.theOrderIsEmpty)
	ctx.Step(`^the order has (\d+) items?$`, f.theOrderHasItems)
	ctx.Step(`^the ledger recorded (\d+) sales?$`, f.theLedgerRecordedSales)
	ctx.Step(`^every submission used the same key$`, f.everySubmissionUsedTheSameKey)
	ctx.Step(`^the last call failed with an? "([^"]*)" error$`, f.theLastCallFailedWith)

	ctx.Step(`^an opening cash fund of `+amount+`$`, f.anOpeningCashFundOf)
	ctx.Step(`^a completed (cash|cashless) sale of `+amount+`$`, f.aCompletedSale)
	ctx.Step(`^a refunded cash sale of `+amount+`$`, f.aRefundedCashSale)
	ctx.Step(`^the printer is out of paper$`, f.thePrinterIsOutOfPaper)
	ctx.Step(`^the printer is fixed$`, f.thePrinterIsFixed)
	ctx.Step(`^I preview the settlement$`, f.iPreviewTheSettlement)
	ctx.Step(`^I confirm the settlement$`, f.iConfirmTheSettlement)
	ctx.Step(`^I retry printing$`, f.iRetryPrinting)
	ctx.Step(`^the expected cash is `+amount+`$`, f.theExpectedCashIs)
	ctx.Step(`^the net sales are `+amount+`$`, f.theNetSalesAre)
	ctx.Step(`^the total cash is `+amount+`$`, f.theTotalCashIs)
	ctx.Step(`^the transaction count is (\d+)$`, f.theTransactionCountIs)
	ctx.Step(`^the ledger received (\d+) confirmations?$`, f.theLedgerReceivedConfirmations)
	ctx.Step(`^the printer printed (\d+) reports?$`, f.thePrinterPrintedReports)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
