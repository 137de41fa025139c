package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
)

// SettlementBuilder computes a shift's settlement from the sales it covers.
type SettlementBuilder func(shift *entity.Shift, sales []entity.Sale) (*entity.Settlement, error)

// SettlementRepository defines the interface for settlement records
type SettlementRepository interface {
	GetByShift(ctx context.Context, shiftID uuid.UUID) (*entity.Settlement, error)
	// Settle locks the shift and its unsettled sales, builds the settlement
	// from exactly those sales, stores it, attaches the sales to it and
	// closes the shift, all in one transaction. It fails with
	// ErrShiftNotOpen when the shift was closed in the meantime.
	Settle(ctx context.Context, shiftID uuid.UUID, build SettlementBuilder) (*entity.Settlement, error)
}
