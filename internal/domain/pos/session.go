package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionContext identifies who is ringing up sales, where, and against
// which opening cash fund. It is passed explicitly into every entry point
// that needs it.
type SessionContext struct {
	CashierID       uuid.UUID       `json:"cashier_id"`
	CashierName     string          `json:"cashier_name"`
	BranchID        uuid.UUID       `json:"branch_id"`
	BranchName      string          `json:"branch_name"`
	ShiftID         uuid.UUID       `json:"shift_id"`
	OpeningCashFund decimal.Decimal `json:"opening_cash_fund"`
	ShiftOpenedAt   time.Time       `json:"shift_opened_at"`
	OnBreak         bool            `json:"on_break"`
	BreakStartedAt  *time.Time      `json:"break_started_at,omitempty"`
}

// HasOpenShift reports whether the session is bound to a shift.
func (s SessionContext) HasOpenShift() bool {
	return s.ShiftID != uuid.Nil
}

// SessionStore resolves the current session of a cashier.
type SessionStore interface {
	Current(ctx context.Context, cashierID uuid.UUID) (*SessionContext, error)
}
