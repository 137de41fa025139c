package request

import (
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/shopspring/decimal"
)

// OpenShiftRequest opens a shift with the counted cash in the drawer.
type OpenShiftRequest struct {
	OpeningCashFund decimal.Decimal `json:"opening_cash_fund"`
}

// AddItemRequest adds a meal or product to the order.
type AddItemRequest struct {
	Kind       enum.ItemKind   `json:"kind" binding:"required"`
	ProductRef string          `json:"product_ref" binding:"required,max=100"`
	Name       string          `json:"name" binding:"required,max=255"`
	Variant    string          `json:"variant" binding:"omitempty,max=100"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity" binding:"omitempty,min=1"`
}

// ToInput converts the request. A missing quantity means one.
func (r *AddItemRequest) ToInput() pos.ItemInput {
	qty := r.Quantity
	if qty == 0 {
		qty = 1
	}
	return pos.ItemInput{
		Kind:       r.Kind,
		ProductRef: r.ProductRef,
		Name:       r.Name,
		Variant:    r.Variant,
		UnitPrice:  r.UnitPrice,
		Quantity:   qty,
	}
}

// SetQuantityRequest replaces an item's quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// DiscountRequest applies an item or order discount. Every discount needs
// the supervisor passcode.
type DiscountRequest struct {
	Category   enum.DiscountCategory `json:"category" binding:"required"`
	Basis      enum.DiscountBasis    `json:"basis"`
	Value      decimal.Decimal       `json:"value"`
	Note       string                `json:"note" binding:"omitempty,max=255"`
	Code       string                `json:"code" binding:"omitempty,max=100"`
	CardNumber string                `json:"card_number" binding:"omitempty,max=50"`
	CardExpiry string                `json:"card_expiry" binding:"omitempty,max=20"`
	Passcode   string                `json:"passcode" binding:"required"`
}

func (r *DiscountRequest) ToInput() pos.DiscountInput {
	return pos.DiscountInput{
		Category:   r.Category,
		Basis:      r.Basis,
		Value:      r.Value,
		Note:       r.Note,
		Code:       r.Code,
		CardNumber: r.CardNumber,
		CardExpiry: r.CardExpiry,
	}
}

// CashRequest is one denomination tap.
type CashRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CashlessRequest pays the whole total with one cashless method.
type CashlessRequest struct {
	CashlessType string `json:"cashless_type" binding:"required,max=50"`
}

// RefundRequest reverses a completed sale.
type RefundRequest struct {
	Reason   string `json:"reason" binding:"required,max=500"`
	Passcode string `json:"passcode" binding:"required"`
}

// SaleFilterRequest represents sale list parameters
type SaleFilterRequest struct {
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
