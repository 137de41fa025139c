package pos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/shopspring/decimal"
)

// DefaultDenominations are the peso bills and coins offered as quick-tender
// buttons.
var DefaultDenominations = []decimal.Decimal{
	decimal.NewFromInt(1),
	decimal.NewFromInt(5),
	decimal.NewFromInt(10),
	decimal.NewFromInt(20),
	decimal.NewFromInt(50),
	decimal.NewFromInt(100),
	decimal.NewFromInt(200),
	decimal.NewFromInt(500),
	decimal.NewFromInt(1000),
}

// CheckoutSnapshot is the read-only state handed to the terminal after every
// call.
type CheckoutSnapshot struct {
	State         enum.PaymentState `json:"state"`
	Order         OrderSnapshot     `json:"order"`
	Tender        TenderSnapshot    `json:"tender"`
	LastSale      *SaleReceipt      `json:"last_sale,omitempty"`
	BecameCovered bool              `json:"became_covered"`
}

// Checkout owns one order and its tender and walks them through
// Idle → AccumulatingTender → Covered → Finalizing → Completed.
// It is not safe for concurrent use; callers serialize access per terminal.
type Checkout struct {
	order *Order
	state enum.PaymentState

	mode          enum.TenderMode
	cashlessType  string
	cashReceived  decimal.Decimal
	denominations []decimal.Decimal

	submissionKey string
	lastSale      *SaleReceipt

	newKey func() string
	now    func() time.Time
}

// CheckoutOption customizes a Checkout.
type CheckoutOption func(*Checkout)

// WithDenominations restricts cash taps to the given amounts. An empty list
// accepts any positive amount.
func WithDenominations(d []decimal.Decimal) CheckoutOption {
	return func(c *Checkout) { c.denominations = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CheckoutOption {
	return func(c *Checkout) { c.now = now }
}

// WithKeyGenerator overrides how submission keys are generated.
func WithKeyGenerator(gen func() string) CheckoutOption {
	return func(c *Checkout) { c.newKey = gen }
}

// NewCheckout starts an idle checkout with an empty order.
func NewCheckout(authorizer Authorizer, opts ...CheckoutOption) *Checkout {
	c := &Checkout{
		order:         NewOrder(authorizer),
		state:         enum.PaymentIdle,
		mode:          enum.TenderCash,
		cashReceived:  money.Zero,
		denominations: DefaultDenominations,
		newKey:        uuid.NewString,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the payment state.
func (c *Checkout) State() enum.PaymentState {
	return c.state
}

// Snapshot returns the current state without changing anything.
func (c *Checkout) Snapshot() CheckoutSnapshot {
	order := c.order.Snapshot()
	return CheckoutSnapshot{
		State:    c.state,
		Order:    order,
		Tender:   c.tenderSnapshot(order.Totals.GrandTotal),
		LastSale: c.lastSale,
	}
}

func (c *Checkout) tendered(total decimal.Decimal) decimal.Decimal {
	if c.mode == enum.TenderCashless {
		return total
	}
	return c.cashReceived
}

func (c *Checkout) covered(total decimal.Decimal) bool {
	return total.IsPositive() && c.tendered(total).GreaterThanOrEqual(total)
}

func (c *Checkout) tenderSnapshot(total decimal.Decimal) TenderSnapshot {
	tendered := c.tendered(total)
	ts := TenderSnapshot{
		Mode:         c.mode,
		CashlessType: c.cashlessType,
		CashReceived: c.cashReceived,
		Tendered:     tendered,
		Remaining:    money.Zero,
		Change:       money.Zero,
		Covered:      c.covered(total),
	}
	switch {
	case ts.Covered && c.mode == enum.TenderCash:
		ts.Change = tendered.Sub(total)
	case !ts.Covered && total.IsPositive():
		ts.Remaining = total.Sub(tendered)
	}
	return ts
}

func (c *Checkout) resetTender() {
	c.mode = enum.TenderCash
	c.cashlessType = ""
	c.cashReceived = money.Zero
}

// startIfDone opens a fresh transaction after a completed or cancelled one.
func (c *Checkout) startIfDone() {
	switch c.state {
	case enum.PaymentCompleted:
		c.lastSale = nil
		c.state = enum.PaymentIdle
	case enum.PaymentCancelled:
		c.state = enum.PaymentIdle
	}
}

// settle re-evaluates coverage. Covered is entered on the rising edge only.
func (c *Checkout) settle() CheckoutSnapshot {
	covered := c.covered(c.order.Totals().GrandTotal)
	rose := false
	switch {
	case covered && c.state != enum.PaymentCovered:
		c.state = enum.PaymentCovered
		rose = true
	case !covered && c.state == enum.PaymentCovered:
		c.state = enum.PaymentAccumulatingTender
	}
	snap := c.Snapshot()
	snap.BecameCovered = rose
	return snap
}

func (c *Checkout) editOrder(fn func() error) (CheckoutSnapshot, error) {
	if c.state == enum.PaymentFinalizing {
		return c.Snapshot(), errOrderLocked()
	}
	c.startIfDone()
	if err := fn(); err != nil {
		return c.Snapshot(), err
	}
	c.submissionKey = ""
	return c.settle(), nil
}

func (c *Checkout) editTender(fn func(total decimal.Decimal) error) (CheckoutSnapshot, error) {
	if c.state == enum.PaymentFinalizing {
		return c.Snapshot(), errOrderLocked()
	}
	c.startIfDone()
	if err := fn(c.order.Totals().GrandTotal); err != nil {
		return c.Snapshot(), err
	}
	if c.state == enum.PaymentIdle {
		c.state = enum.PaymentAccumulatingTender
	}
	return c.settle(), nil
}

func (c *Checkout) AddItem(in ItemInput) (CheckoutSnapshot, error) {
	return c.editOrder(func() error {
		_, err := c.order.AddItem(in)
		return err
	})
}

func (c *Checkout) RemoveItem(id string) (CheckoutSnapshot, error) {
	return c.editOrder(func() error {
		_, err := c.order.RemoveItem(id)
		return err
	})
}

func (c *Checkout) SetQuantity(id string, kind enum.ItemKind, qty int) (CheckoutSnapshot, error) {
	return c.editOrder(func() error {
		_, err := c.order.SetQuantity(id, kind, qty)
		return err
	})
}

func (c *Checkout) ToggleVoid(id string, kind enum.ItemKind) (CheckoutSnapshot, error) {
	return c.editOrder(func() error {
		_, err := c.order.ToggleVoid(id, kind)
		return err
	})
}

func (c *Checkout) ApplyItemDiscount(ctx context.Context, id string, kind enum.ItemKind, in DiscountInput, passcode string) (CheckoutSnapshot, error) {
	return c.editOrder(func() error {
		_, err := c.order.ApplyItemDiscount(ctx, id, kind, in, passcode)
		return err
	})
}

func (c *Checkout) ClearItemDiscount(id string, kind enum.ItemKind) (CheckoutSnapshot, error) {
	return c.editOrder(func() error {
		_, err := c.order.ClearItemDiscount(id, kind)
		return err
	})
}

// ApplyOrderDiscount also returns the order discount that was replaced.
func (c *Checkout) ApplyOrderDiscount(ctx context.Context, in DiscountInput, passcode string) (CheckoutSnapshot, *Discount, error) {
	var replaced *Discount
	snap, err := c.editOrder(func() error {
		var err error
		_, replaced, err = c.order.ApplyOrderDiscount(ctx, in, passcode)
		return err
	})
	return snap, replaced, err
}

func (c *Checkout) RemoveOrderDiscount() (CheckoutSnapshot, error) {
	return c.editOrder(func() error {
		c.order.RemoveOrderDiscount()
		return nil
	})
}

// ClearOrder voids the whole transaction: items, discount and tender.
func (c *Checkout) ClearOrder() (CheckoutSnapshot, error) {
	if c.state == enum.PaymentFinalizing {
		return c.Snapshot(), errOrderLocked()
	}
	c.order.Clear()
	c.resetTender()
	c.submissionKey = ""
	c.lastSale = nil
	c.state = enum.PaymentIdle
	return c.Snapshot(), nil
}

// AddCash adds one denomination tap to the cash received.
func (c *Checkout) AddCash(amount decimal.Decimal) (CheckoutSnapshot, error) {
	return c.editTender(func(decimal.Decimal) error {
		if !amount.IsPositive() {
			return invalid("amount", "Amount must be greater than 0")
		}
		if !c.acceptsDenomination(amount) {
			return invalid("amount", "Unsupported denomination "+money.Format(amount))
		}
		if c.mode != enum.TenderCash {
			c.resetTender()
		}
		c.cashReceived = c.cashReceived.Add(amount)
		return nil
	})
}

func (c *Checkout) acceptsDenomination(amount decimal.Decimal) bool {
	if len(c.denominations) == 0 {
		return true
	}
	for _, d := range c.denominations {
		if d.Equal(amount) {
			return true
		}
	}
	return false
}

// ExactAmount sets the cash received to the grand total.
func (c *Checkout) ExactAmount() (CheckoutSnapshot, error) {
	return c.editTender(func(total decimal.Decimal) error {
		if !total.IsPositive() {
			return invalid("amount", "There is nothing to pay")
		}
		c.resetTender()
		c.cashReceived = total
		return nil
	})
}

// ClearTender resets the cash received to zero.
func (c *Checkout) ClearTender() (CheckoutSnapshot, error) {
	return c.editTender(func(decimal.Decimal) error {
		c.resetTender()
		return nil
	})
}

// PayCashless switches to a single cashless tender equal to the grand total.
func (c *Checkout) PayCashless(cashlessType string) (CheckoutSnapshot, error) {
	return c.editTender(func(total decimal.Decimal) error {
		cashlessType = strings.TrimSpace(cashlessType)
		if cashlessType == "" {
			return invalid("cashless_type", "Cashless type is required")
		}
		if !total.IsPositive() {
			return invalid("amount", "There is nothing to pay")
		}
		c.mode = enum.TenderCashless
		c.cashlessType = cashlessType
		c.cashReceived = money.Zero
		return nil
	})
}

// CancelPayment discards the tender. The order is kept as is.
func (c *Checkout) CancelPayment() (CheckoutSnapshot, error) {
	switch c.state {
	case enum.PaymentFinalizing:
		return c.Snapshot(), errOrderLocked()
	case enum.PaymentCompleted:
		return c.Snapshot(), invalid("state", "There is no payment in progress")
	}
	c.resetTender()
	c.state = enum.PaymentCancelled
	return c.Snapshot(), nil
}

// BeginFinalize moves a covered checkout to Finalizing and returns the
// snapshot to submit. The order accepts no edits until CompleteFinalize or
// FailFinalize is called.
func (c *Checkout) BeginFinalize(session SessionContext) (SaleSubmission, error) {
	switch c.state {
	case enum.PaymentFinalizing:
		return SaleSubmission{}, errOrderLocked()
	case enum.PaymentCovered:
	default:
		return SaleSubmission{}, invalid("tender", "Tender does not cover the total")
	}
	if !session.HasOpenShift() {
		return SaleSubmission{}, invalid("shift", "No open shift")
	}
	if c.submissionKey == "" {
		c.submissionKey = c.newKey()
	}

	totals := c.order.Totals()
	sub := SaleSubmission{
		SubmissionKey: c.submissionKey,
		Session:       session,
		Items:         c.order.Items(),
		OrderDiscount: c.order.OrderDiscount(),
		Totals:        totals,
		Tender:        c.tenderSnapshot(totals.GrandTotal),
		SubmittedAt:   c.now().UTC(),
	}
	c.state = enum.PaymentFinalizing
	return sub, nil
}

// CompleteFinalize records the ledger receipt, clears the order and marks
// the transaction completed.
func (c *Checkout) CompleteFinalize(receipt SaleReceipt) (CheckoutSnapshot, error) {
	if c.state != enum.PaymentFinalizing {
		return c.Snapshot(), invalid("state", "No submission in progress")
	}
	c.lastSale = &receipt
	c.order.Clear()
	c.resetTender()
	c.submissionKey = ""
	c.state = enum.PaymentCompleted
	return c.Snapshot(), nil
}

// FailFinalize reopens the checkout after a failed submission. Order,
// tender and submission key are kept so the same sale can be resubmitted.
func (c *Checkout) FailFinalize() CheckoutSnapshot {
	if c.state == enum.PaymentFinalizing {
		c.state = enum.PaymentCovered
	}
	return c.Snapshot()
}
