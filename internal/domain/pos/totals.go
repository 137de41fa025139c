package pos

import (
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/shopspring/decimal"
)

// Totals is derived from the order on demand and never stored.
type Totals struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	ItemDiscountTotal   decimal.Decimal `json:"item_discount_total"`
	OrderDiscountAmount decimal.Decimal `json:"order_discount_amount"`
	Tax                 decimal.Decimal `json:"tax"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
	ItemCount           int             `json:"item_count"`
}

// DiscountTotal is the sum of item and order discounts.
func (t Totals) DiscountTotal() decimal.Decimal {
	return t.ItemDiscountTotal.Add(t.OrderDiscountAmount)
}

// OrderBase is what an order-level discount is computed against.
func (t Totals) OrderBase() decimal.Decimal {
	return t.Subtotal.Sub(t.ItemDiscountTotal)
}

// ComputeTotals derives the order totals. VAT is taken on the gross
// subtotal, before any discount.
func ComputeTotals(items []LineItem, orderDiscount *Discount) Totals {
	t := Totals{
		Subtotal:            money.Zero,
		ItemDiscountTotal:   money.Zero,
		OrderDiscountAmount: money.Zero,
	}
	for _, it := range items {
		if it.Voided {
			continue
		}
		sub := it.Subtotal()
		t.Subtotal = t.Subtotal.Add(sub)
		t.ItemDiscountTotal = t.ItemDiscountTotal.Add(it.Discount.Amount(sub))
		t.ItemCount += it.Quantity
	}

	t.OrderDiscountAmount = orderDiscount.Amount(t.OrderBase())
	t.Tax = money.Round(t.Subtotal.Mul(VATRate))
	t.GrandTotal = t.Subtotal.Sub(t.ItemDiscountTotal).Sub(t.OrderDiscountAmount).Add(t.Tax)
	return t
}
