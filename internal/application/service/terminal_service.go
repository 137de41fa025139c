package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AuthorizerSource hands out a passcode authorizer bound to one cashier.
type AuthorizerSource interface {
	For(cashierID uuid.UUID) pos.Authorizer
}

// ReceiptPrinter prints the customer receipt of a completed sale.
type ReceiptPrinter interface {
	PrintSaleReceipt(ctx context.Context, sub pos.SaleSubmission, rec pos.SaleReceipt) (*entity.Receipt, error)
}

// TerminalState is what every terminal call returns.
type TerminalState struct {
	pos.CheckoutSnapshot
	ReplacedDiscount *pos.Discount      `json:"replaced_discount,omitempty"`
	Receipt          *entity.Receipt    `json:"receipt,omitempty"`
	FinalizeError    *apperror.AppError `json:"finalize_error,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
}

// TerminalService keeps one checkout per cashier and finalizes a sale the
// moment its tender covers the total.
type TerminalService struct {
	sessions      pos.SessionStore
	ledger        pos.LedgerService
	authorizers   AuthorizerSource
	receipts      ReceiptPrinter
	denominations []decimal.Decimal
	submitTimeout time.Duration
	log           *zap.Logger

	mu        sync.Mutex
	terminals map[uuid.UUID]*terminal
}

type terminal struct {
	mu       sync.Mutex
	checkout *pos.Checkout
}

// NewTerminalService creates a new terminal service. receipts may be nil.
func NewTerminalService(
	sessions pos.SessionStore,
	ledger pos.LedgerService,
	authorizers AuthorizerSource,
	receipts ReceiptPrinter,
	denominations []decimal.Decimal,
	submitTimeout time.Duration,
	log *zap.Logger,
) *TerminalService {
	return &TerminalService{
		sessions:      sessions,
		ledger:        ledger,
		authorizers:   authorizers,
		receipts:      receipts,
		denominations: denominations,
		submitTimeout: submitTimeout,
		log:           log,
		terminals:     make(map[uuid.UUID]*terminal),
	}
}

func (s *TerminalService) terminal(cashierID uuid.UUID) *terminal {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.terminals[cashierID]
	if !ok {
		t = &terminal{
			checkout: pos.NewCheckout(s.authorizers.For(cashierID), pos.WithDenominations(s.denominations)),
		}
		s.terminals[cashierID] = t
	}
	return t
}

// mutate applies fn under the terminal lock and, when the tender has just
// become sufficient, submits the sale.
func (s *TerminalService) mutate(ctx context.Context, cashierID uuid.UUID, fn func(c *pos.Checkout) (pos.CheckoutSnapshot, error)) (*TerminalState, error) {
	t := s.terminal(cashierID)
	t.mu.Lock()
	snap, err := fn(t.checkout)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	if !snap.BecameCovered {
		t.mu.Unlock()
		return &TerminalState{CheckoutSnapshot: snap}, nil
	}

	state, err := s.finalizeLocked(ctx, cashierID, t)
	if err != nil {
		state.FinalizeError = apperror.GetAppError(err)
		state.BecameCovered = true
	}
	return state, nil
}

// finalizeLocked must be entered holding t.mu and returns with it released.
// The lock is dropped while the ledger call is in flight; the checkout
// itself rejects edits until the outcome is applied.
func (s *TerminalService) finalizeLocked(ctx context.Context, cashierID uuid.UUID, t *terminal) (*TerminalState, error) {
	session, err := s.sessions.Current(ctx, cashierID)
	if err != nil {
		state := &TerminalState{CheckoutSnapshot: t.checkout.Snapshot()}
		t.mu.Unlock()
		return state, err
	}

	sub, err := t.checkout.BeginFinalize(*session)
	if err != nil {
		state := &TerminalState{CheckoutSnapshot: t.checkout.Snapshot()}
		t.mu.Unlock()
		return state, err
	}
	t.mu.Unlock()

	submitCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	rec, submitErr := s.ledger.SubmitSale(submitCtx, sub)
	cancel()

	t.mu.Lock()
	if submitErr != nil {
		snap := t.checkout.FailFinalize()
		t.mu.Unlock()
		s.log.Warn("sale submission failed",
			zap.String("cashier_id", cashierID.String()),
			zap.String("submission_key", sub.SubmissionKey),
			zap.Error(submitErr),
		)
		return &TerminalState{CheckoutSnapshot: snap}, submissionError(submitErr)
	}
	snap, err := t.checkout.CompleteFinalize(*rec)
	t.mu.Unlock()
	if err != nil {
		return &TerminalState{CheckoutSnapshot: snap}, err
	}

	state := &TerminalState{CheckoutSnapshot: snap}
	if s.receipts != nil {
		receipt, printErr := s.receipts.PrintSaleReceipt(ctx, sub, *rec)
		state.Receipt = receipt
		if printErr != nil {
			state.Warnings = append(state.Warnings, "Sale recorded but the receipt could not be printed")
		}
	}
	return state, nil
}

// submissionError keeps specific ledger errors and wraps anything else.
func submissionError(err error) error {
	switch apperror.KindOf(err) {
	case apperror.KindInternal:
		return apperror.NewSubmissionError("Failed to record sale, please retry", err)
	default:
		return err
	}
}

// Snapshot returns the cashier's current checkout.
func (s *TerminalService) Snapshot(cashierID uuid.UUID) *TerminalState {
	t := s.terminal(cashierID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return &TerminalState{CheckoutSnapshot: t.checkout.Snapshot()}
}

func (s *TerminalService) AddItem(ctx context.Context, cashierID uuid.UUID, in pos.ItemInput) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.AddItem(in)
	})
}

func (s *TerminalService) RemoveItem(ctx context.Context, cashierID uuid.UUID, id string) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.RemoveItem(id)
	})
}

func (s *TerminalService) SetQuantity(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind, qty int) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.SetQuantity(id, kind, qty)
	})
}

func (s *TerminalService) ToggleVoid(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.ToggleVoid(id, kind)
	})
}

func (s *TerminalService) ApplyItemDiscount(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind, in pos.DiscountInput, passcode string) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.ApplyItemDiscount(ctx, id, kind, in, passcode)
	})
}

func (s *TerminalService) ClearItemDiscount(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.ClearItemDiscount(id, kind)
	})
}

// ApplyOrderDiscount sets the order discount and reports the one it replaced.
func (s *TerminalService) ApplyOrderDiscount(ctx context.Context, cashierID uuid.UUID, in pos.DiscountInput, passcode string) (*TerminalState, error) {
	var replaced *pos.Discount
	state, err := s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		snap, prev, err := c.ApplyOrderDiscount(ctx, in, passcode)
		replaced = prev
		return snap, err
	})
	if err != nil {
		return nil, err
	}
	state.ReplacedDiscount = replaced
	return state, nil
}

func (s *TerminalService) RemoveOrderDiscount(ctx context.Context, cashierID uuid.UUID) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.RemoveOrderDiscount()
	})
}

func (s *TerminalService) ClearOrder(ctx context.Context, cashierID uuid.UUID) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.ClearOrder()
	})
}

func (s *TerminalService) AddCash(ctx context.Context, cashierID uuid.UUID, amount decimal.Decimal) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.AddCash(amount)
	})
}

func (s *TerminalService) ExactAmount(ctx context.Context, cashierID uuid.UUID) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.ExactAmount()
	})
}

func (s *TerminalService) ClearTender(ctx context.Context, cashierID uuid.UUID) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.ClearTender()
	})
}

func (s *TerminalService) PayCashless(ctx context.Context, cashierID uuid.UUID, cashlessType string) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.PayCashless(cashlessType)
	})
}

func (s *TerminalService) CancelPayment(ctx context.Context, cashierID uuid.UUID) (*TerminalState, error) {
	return s.mutate(ctx, cashierID, func(c *pos.Checkout) (pos.CheckoutSnapshot, error) {
		return c.CancelPayment()
	})
}

// Finalize resubmits a covered sale after a failed attempt. The submission
// key of the first attempt is reused.
func (s *TerminalService) Finalize(ctx context.Context, cashierID uuid.UUID) (*TerminalState, error) {
	t := s.terminal(cashierID)
	t.mu.Lock()
	return s.finalizeLocked(ctx, cashierID, t)
}
