package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is a finalized transaction as recorded by the ledger.
type Sale struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNo     string     `gorm:"size:50;unique;not null" json:"invoice_no"`
	SubmissionKey string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	BranchID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"branch_id"`
	CashierID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"cashier_id"`
	ShiftID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"shift_id"`
	SettlementID  *uuid.UUID `gorm:"type:uuid;index" json:"settlement_id,omitempty"`

	Subtotal            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ItemDiscountTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"item_discount_total"`
	OrderDiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"order_discount_amount"`
	Tax                 decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	GrandTotal          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"grand_total"`
	ItemCount           int             `gorm:"default:0" json:"item_count"`

	TenderMode     enum.TenderMode `gorm:"size:20;not null" json:"tender_mode"`
	CashlessType   string          `gorm:"size:50" json:"cashless_type,omitempty"`
	AmountTendered decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_tendered"`
	Change         decimal.Decimal `gorm:"column:change_due;type:decimal(12,2);not null;default:0" json:"change"`

	OrderDiscountCategory   enum.DiscountCategory `gorm:"size:20" json:"order_discount_category,omitempty"`
	OrderDiscountNote       string                `gorm:"size:255" json:"order_discount_note,omitempty"`
	OrderDiscountCode       string                `gorm:"size:100" json:"order_discount_code,omitempty"`
	OrderDiscountCardNumber string                `gorm:"size:50" json:"-"`
	OrderDiscountApprovedBy string                `gorm:"size:255" json:"order_discount_approved_by,omitempty"`

	Status       enum.SaleStatus `gorm:"size:20;not null;default:'completed';index" json:"status"`
	RefundReason string          `gorm:"type:text" json:"refund_reason,omitempty"`
	RefundedBy   string          `gorm:"size:255" json:"refunded_by,omitempty"`
	RefundedAt   *time.Time      `json:"refunded_at,omitempty"`

	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Sale) TableName() string {
	return "sales"
}

// DiscountTotal is the sum of item and order discounts.
func (s *Sale) DiscountTotal() decimal.Decimal {
	return s.ItemDiscountTotal.Add(s.OrderDiscountAmount)
}

// IsRefunded reports whether the sale has been reversed.
func (s *Sale) IsRefunded() bool {
	return s.Status == enum.SaleRefunded
}

// SaleItem is one line of a recorded sale. Voided lines are kept for audit.
type SaleItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	LineID     string          `gorm:"size:50;not null" json:"line_id"`
	Kind       enum.ItemKind   `gorm:"size:20;not null" json:"kind"`
	ProductRef string          `gorm:"size:100;not null;index" json:"product_ref"`
	Variant    string          `gorm:"size:100" json:"variant,omitempty"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Voided     bool            `gorm:"default:false" json:"voided"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`

	DiscountCategory   enum.DiscountCategory `gorm:"size:20" json:"discount_category,omitempty"`
	DiscountBasis      enum.DiscountBasis    `gorm:"size:20" json:"discount_basis,omitempty"`
	DiscountValue      decimal.Decimal       `gorm:"type:decimal(12,2);default:0" json:"discount_value"`
	DiscountAmount     decimal.Decimal       `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	DiscountNote       string                `gorm:"size:255" json:"discount_note,omitempty"`
	DiscountCode       string                `gorm:"size:100" json:"discount_code,omitempty"`
	DiscountApprovedBy string                `gorm:"size:255" json:"discount_approved_by,omitempty"`

	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
}

func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (SaleItem) TableName() string {
	return "sale_items"
}
