package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settlement is the confirmed end-of-shift record. It is written once and
// never updated.
type Settlement struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ShiftID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"shift_id"`
	BranchID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"branch_id"`
	CashierID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"cashier_id"`
	OpeningCashFund decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"opening_cash_fund"`
	TotalSales      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_sales"`
	TotalCash       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_cash"`
	TotalCashless   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_cashless"`
	TotalDiscount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_discount"`
	TotalTax        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_tax"`
	NetSales        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"net_sales"`
	ExpectedCash    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"expected_cash"`
	NumTransactions int             `gorm:"not null" json:"num_transactions"`
	NumRefunded     int             `gorm:"not null;default:0" json:"num_refunded"`
	ConfirmedAt     time.Time       `gorm:"not null" json:"confirmed_at"`
	CreatedAt       time.Time       `json:"created_at"`

	// Relationships
	Lines []SettlementLine `gorm:"foreignKey:SettlementID" json:"lines,omitempty"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Settlement) TableName() string {
	return "settlements"
}

// SettlementLine is one row of the per-product breakdown.
type SettlementLine struct {
	ID           uint            `gorm:"primary_key" json:"id"`
	SettlementID uuid.UUID       `gorm:"type:uuid;not null;index" json:"settlement_id"`
	Kind         enum.ItemKind   `gorm:"size:20;not null" json:"kind"`
	ProductRef   string          `gorm:"size:100;not null" json:"product_ref"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
}

func (SettlementLine) TableName() string {
	return "settlement_lines"
}
