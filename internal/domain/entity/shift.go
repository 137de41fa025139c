package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shift is one cashier's working session at a branch, from the opening cash
// fund count to the confirmed settlement.
type Shift struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	BranchID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"branch_id"`
	CashierID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"cashier_id"`
	OpeningCashFund decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"opening_cash_fund"`
	Status          enum.ShiftStatus `gorm:"size:20;not null;default:'open';index" json:"status"`
	OpenedAt        time.Time        `gorm:"not null" json:"opened_at"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	BreakStartedAt  *time.Time       `json:"break_started_at,omitempty"`
	BreakSeconds    int64            `gorm:"default:0" json:"break_seconds"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Relationships
	Branch  Branch `gorm:"foreignKey:BranchID" json:"-"`
	Cashier User   `gorm:"foreignKey:CashierID" json:"-"`
}

func (s *Shift) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Shift) TableName() string {
	return "shifts"
}

// IsOpen reports whether sales can still be recorded against the shift.
func (s *Shift) IsOpen() bool {
	return s.Status == enum.ShiftOpen
}

// OnBreak reports whether the cashier is currently on break.
func (s *Shift) OnBreak() bool {
	return s.BreakStartedAt != nil
}
