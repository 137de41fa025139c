package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/internal/domain/repository"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShiftService opens shifts, tracks breaks and resolves the session a
// cashier is working in. It is the terminal's SessionStore.
type ShiftService struct {
	userRepo  repository.UserRepository
	shiftRepo repository.ShiftRepository
	log       *zap.Logger
	now       func() time.Time
}

var _ pos.SessionStore = (*ShiftService)(nil)

// NewShiftService creates a new shift service
func NewShiftService(
	userRepo repository.UserRepository,
	shiftRepo repository.ShiftRepository,
	log *zap.Logger,
) *ShiftService {
	return &ShiftService{
		userRepo:  userRepo,
		shiftRepo: shiftRepo,
		log:       log,
		now:       time.Now,
	}
}

// Current returns the cashier's session. A cashier without an open shift
// still gets a session, with no shift bound to it.
func (s *ShiftService) Current(ctx context.Context, cashierID uuid.UUID) (*pos.SessionContext, error) {
	user, err := s.cashier(ctx, cashierID)
	if err != nil {
		return nil, err
	}

	shift, err := s.shiftRepo.GetOpenByCashier(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	return buildSession(user, shift), nil
}

// OpenShift starts a shift with the counted opening cash fund.
func (s *ShiftService) OpenShift(ctx context.Context, cashierID uuid.UUID, openingCashFund decimal.Decimal) (*pos.SessionContext, error) {
	if openingCashFund.IsNegative() {
		return nil, apperror.NewInvalidInputError("opening_cash_fund", "Opening cash fund cannot be negative")
	}

	user, err := s.cashier(ctx, cashierID)
	if err != nil {
		return nil, err
	}

	existing, err := s.shiftRepo.GetOpenByCashier(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("A shift is already open for this cashier")
	}

	shift := &entity.Shift{
		BranchID:        *user.BranchID,
		CashierID:       user.ID,
		OpeningCashFund: openingCashFund.Round(2),
		Status:          enum.ShiftOpen,
		OpenedAt:        s.now(),
	}
	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		return nil, err
	}

	s.log.Info("shift opened",
		zap.String("cashier_id", cashierID.String()),
		zap.String("shift_id", shift.ID.String()),
		zap.String("opening_cash_fund", shift.OpeningCashFund.StringFixed(2)),
	)
	return buildSession(user, shift), nil
}

// StartBreak marks the cashier as on break.
func (s *ShiftService) StartBreak(ctx context.Context, cashierID uuid.UUID) (*pos.SessionContext, error) {
	return s.updateShift(ctx, cashierID, func(shift *entity.Shift) error {
		if shift.OnBreak() {
			return apperror.NewConflictError("Break already started")
		}
		now := s.now()
		shift.BreakStartedAt = &now
		return nil
	})
}

// EndBreak ends the current break and adds its length to the shift.
func (s *ShiftService) EndBreak(ctx context.Context, cashierID uuid.UUID) (*pos.SessionContext, error) {
	return s.updateShift(ctx, cashierID, func(shift *entity.Shift) error {
		if !shift.OnBreak() {
			return apperror.NewConflictError("No break in progress")
		}
		elapsed := s.now().Sub(*shift.BreakStartedAt)
		if elapsed > 0 {
			shift.BreakSeconds += int64(elapsed / time.Second)
		}
		shift.BreakStartedAt = nil
		return nil
	})
}

func (s *ShiftService) updateShift(ctx context.Context, cashierID uuid.UUID, fn func(*entity.Shift) error) (*pos.SessionContext, error) {
	user, err := s.cashier(ctx, cashierID)
	if err != nil {
		return nil, err
	}

	shift, err := s.shiftRepo.GetOpenByCashier(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, apperror.NewInvalidInputError("shift", "No open shift")
	}

	if err := fn(shift); err != nil {
		return nil, err
	}
	if err := s.shiftRepo.Update(ctx, shift); err != nil {
		return nil, err
	}
	return buildSession(user, shift), nil
}

func (s *ShiftService) cashier(ctx context.Context, cashierID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperror.NewNotFoundError("Cashier")
	}
	if user.BranchID == nil {
		return nil, apperror.NewInvalidInputError("branch_id", "Cashier is not assigned to a branch")
	}
	return user, nil
}

func buildSession(user *entity.User, shift *entity.Shift) *pos.SessionContext {
	session := &pos.SessionContext{
		CashierID:       user.ID,
		CashierName:     user.FullName(),
		BranchID:        *user.BranchID,
		OpeningCashFund: decimal.Zero,
	}
	if user.Branch != nil {
		session.BranchName = user.Branch.Name
	}
	if shift != nil {
		session.ShiftID = shift.ID
		session.OpeningCashFund = shift.OpeningCashFund
		session.ShiftOpenedAt = shift.OpenedAt
		session.OnBreak = shift.OnBreak()
		session.BreakStartedAt = shift.BreakStartedAt
	}
	return session
}
