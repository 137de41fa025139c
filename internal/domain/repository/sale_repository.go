package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/pagination"
)

// SaleRepository defines the interface for recorded sale operations
type SaleRepository interface {
	// Create stores a sale and its items in one transaction.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	GetBySubmissionKey(ctx context.Context, key string) (*entity.Sale, error)
	GetByInvoiceNo(ctx context.Context, branchID uuid.UUID, invoiceNo string) (*entity.Sale, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
	// ListByShift returns every sale of the shift with its items, oldest first.
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]entity.Sale, error)
	// MarkRefunded refunds a completed sale that is not settled yet and
	// returns ErrSaleNotRefundable otherwise.
	MarkRefunded(ctx context.Context, id uuid.UUID, reason, refundedBy string, at time.Time) error
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination *pagination.PaginationParams
	BranchID   uuid.UUID
	ShiftID    *uuid.UUID
	CashierID  *uuid.UUID
	Status     *enum.SaleStatus
	Search     string
}
