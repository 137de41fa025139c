package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/shopspring/decimal"
)

// LineItem is one meal or product entry on an order.
type LineItem struct {
	ID         string          `json:"id"`
	Kind       enum.ItemKind   `json:"kind"`
	ProductRef string          `json:"product_ref"`
	Variant    string          `json:"variant,omitempty"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Voided     bool            `json:"voided"`
	Discount   *Discount       `json:"discount,omitempty"`
}

// Subtotal is unit price times quantity, ignoring discounts and void state.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// DiscountAmount resolves the item discount against the item subtotal.
func (li LineItem) DiscountAmount() decimal.Decimal {
	return li.Discount.Amount(li.Subtotal())
}

// ItemInput describes an item to add.
type ItemInput struct {
	Kind       enum.ItemKind   `json:"kind"`
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name"`
	Variant    string          `json:"variant,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// ItemSnapshot is a read-only view of a line item with resolved amounts.
type ItemSnapshot struct {
	LineItem
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// OrderSnapshot is a read-only view of the whole order.
type OrderSnapshot struct {
	Items         []ItemSnapshot `json:"items"`
	OrderDiscount *Discount      `json:"order_discount,omitempty"`
	Totals        Totals         `json:"totals"`
}

// Order is the aggregate holding the items of the transaction in progress.
// It owns its items exclusively; callers only ever see copies.
type Order struct {
	items         []LineItem
	orderDiscount *Discount
	nextID        int
	authorizer    Authorizer
}

// NewOrder creates an empty order. Discounts are approved through authorizer.
func NewOrder(authorizer Authorizer) *Order {
	return &Order{authorizer: authorizer}
}

type draft struct {
	items         []LineItem
	orderDiscount *Discount
	nextID        int
}

func (d *draft) find(id string, kind enum.ItemKind) (int, error) {
	for i := range d.items {
		if d.items[i].ID == id && (kind == "" || d.items[i].Kind == kind) {
			return i, nil
		}
	}
	return -1, errItemNotFound()
}

func (o *Order) newDraft() *draft {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return &draft{items: items, orderDiscount: o.orderDiscount, nextID: o.nextID}
}

// apply runs change on a copy of the order, checks the discount bases, runs
// gate, and only then commits. Any error leaves the order untouched.
func (o *Order) apply(change func(d *draft) error, gate func() error) (OrderSnapshot, error) {
	d := o.newDraft()
	if err := change(d); err != nil {
		return o.Snapshot(), err
	}
	if err := checkBases(d.items, d.orderDiscount); err != nil {
		return o.Snapshot(), err
	}
	if gate != nil {
		if err := gate(); err != nil {
			return o.Snapshot(), err
		}
	}
	o.items, o.orderDiscount, o.nextID = d.items, d.orderDiscount, d.nextID
	return o.Snapshot(), nil
}

// checkBases rejects states where a fixed discount exceeds what it applies to.
func checkBases(items []LineItem, orderDiscount *Discount) error {
	for _, it := range items {
		if it.Voided || it.Discount == nil || it.Discount.Basis != enum.BasisAmount {
			continue
		}
		if it.Discount.Value.GreaterThan(it.Subtotal()) {
			return invalid("quantity", fmt.Sprintf("Discount on %s would exceed the item subtotal", it.Name))
		}
	}
	if orderDiscount != nil && orderDiscount.Basis == enum.BasisAmount {
		t := ComputeTotals(items, nil)
		if orderDiscount.Value.GreaterThan(t.OrderBase()) {
			return invalid("order_discount", "Order discount would exceed the discounted subtotal; remove it first")
		}
	}
	return nil
}

// AddItem merges into a matching non-voided item or appends a new one.
// A quantity below 1 is treated as 1.
func (o *Order) AddItem(in ItemInput) (OrderSnapshot, error) {
	if !in.Kind.IsValid() {
		return o.Snapshot(), invalid("kind", "Unknown item kind")
	}
	ref := strings.TrimSpace(in.ProductRef)
	if ref == "" {
		return o.Snapshot(), invalid("product_ref", "Product reference is required")
	}
	if in.UnitPrice.IsNegative() {
		return o.Snapshot(), invalid("unit_price", "Unit price cannot be negative")
	}
	if !in.UnitPrice.Equal(money.Round(in.UnitPrice)) {
		return o.Snapshot(), invalid("unit_price", "Unit price cannot have more than 2 decimal places")
	}
	qty := max(1, in.Quantity)
	variant := strings.TrimSpace(in.Variant)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = ref
	}

	return o.apply(func(d *draft) error {
		for i := range d.items {
			it := &d.items[i]
			if !it.Voided && it.Kind == in.Kind && it.ProductRef == ref && it.Variant == variant {
				it.Quantity += qty
				return nil
			}
		}
		d.nextID++
		d.items = append(d.items, LineItem{
			ID:         fmt.Sprintf("%s-%d", in.Kind, d.nextID),
			Kind:       in.Kind,
			ProductRef: ref,
			Variant:    variant,
			Name:       name,
			UnitPrice:  in.UnitPrice,
			Quantity:   qty,
		})
		return nil
	}, nil)
}

// RemoveItem deletes an item outright, voided or not.
func (o *Order) RemoveItem(id string) (OrderSnapshot, error) {
	return o.apply(func(d *draft) error {
		i, err := d.find(id, "")
		if err != nil {
			return err
		}
		d.items = append(d.items[:i], d.items[i+1:]...)
		return nil
	}, nil)
}

// SetQuantity sets the quantity, clamped to at least 1. Voided items are
// left as they are.
func (o *Order) SetQuantity(id string, kind enum.ItemKind, qty int) (OrderSnapshot, error) {
	return o.apply(func(d *draft) error {
		i, err := d.find(id, kind)
		if err != nil {
			return err
		}
		if d.items[i].Voided {
			return nil
		}
		d.items[i].Quantity = max(1, qty)
		return nil
	}, nil)
}

// ToggleVoid flips the void flag. Quantity and discount are kept.
func (o *Order) ToggleVoid(id string, kind enum.ItemKind) (OrderSnapshot, error) {
	return o.apply(func(d *draft) error {
		i, err := d.find(id, kind)
		if err != nil {
			return err
		}
		d.items[i].Voided = !d.items[i].Voided
		return nil
	}, nil)
}

// ApplyItemDiscount validates the discount, checks the passcode, and
// attaches it to the item, replacing any previous item discount.
func (o *Order) ApplyItemDiscount(ctx context.Context, id string, kind enum.ItemKind, in DiscountInput, passcode string) (OrderSnapshot, error) {
	var disc *Discount
	gate := func() error {
		by, err := Authorize(ctx, o.authorizer, passcode)
		if err != nil {
			return err
		}
		disc.AuthorizedBy = by
		return nil
	}
	return o.apply(func(d *draft) error {
		i, err := d.find(id, kind)
		if err != nil {
			return err
		}
		if d.items[i].Voided {
			return errVoidedItem()
		}
		disc, err = buildDiscount(itemLevel, in, d.items[i].Subtotal())
		if err != nil {
			return err
		}
		d.items[i].Discount = disc
		return nil
	}, gate)
}

// ClearItemDiscount removes the discount from a non-voided item.
func (o *Order) ClearItemDiscount(id string, kind enum.ItemKind) (OrderSnapshot, error) {
	return o.apply(func(d *draft) error {
		i, err := d.find(id, kind)
		if err != nil {
			return err
		}
		if d.items[i].Voided {
			return errVoidedItem()
		}
		d.items[i].Discount = nil
		return nil
	}, nil)
}

// ApplyOrderDiscount sets the order-level discount, computed against the
// subtotal net of item discounts. The discount it replaced, if any, is
// returned so the caller can tell the cashier.
func (o *Order) ApplyOrderDiscount(ctx context.Context, in DiscountInput, passcode string) (OrderSnapshot, *Discount, error) {
	previous := o.orderDiscount
	var disc *Discount
	gate := func() error {
		by, err := Authorize(ctx, o.authorizer, passcode)
		if err != nil {
			return err
		}
		disc.AuthorizedBy = by
		return nil
	}
	snap, err := o.apply(func(d *draft) error {
		base := ComputeTotals(d.items, nil).OrderBase()
		var err error
		disc, err = buildDiscount(orderLevel, in, base)
		if err != nil {
			return err
		}
		d.orderDiscount = disc
		return nil
	}, gate)
	if err != nil {
		return snap, nil, err
	}
	return snap, previous, nil
}

// RemoveOrderDiscount drops the order-level discount.
func (o *Order) RemoveOrderDiscount() OrderSnapshot {
	o.orderDiscount = nil
	return o.Snapshot()
}

// Clear empties the order.
func (o *Order) Clear() OrderSnapshot {
	o.items = nil
	o.orderDiscount = nil
	o.nextID = 0
	return o.Snapshot()
}

// IsEmpty reports whether the order has no items at all.
func (o *Order) IsEmpty() bool {
	return len(o.items) == 0
}

// Items returns a copy of the line items.
func (o *Order) Items() []LineItem {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return items
}

// OrderDiscount returns the active order-level discount.
func (o *Order) OrderDiscount() *Discount {
	return o.orderDiscount
}

// Totals recomputes the totals from the current items.
func (o *Order) Totals() Totals {
	return ComputeTotals(o.items, o.orderDiscount)
}

// Snapshot returns a read-only view of the order.
func (o *Order) Snapshot() OrderSnapshot {
	items := make([]ItemSnapshot, 0, len(o.items))
	for _, it := range o.items {
		sub := it.Subtotal()
		disc := it.DiscountAmount()
		items = append(items, ItemSnapshot{
			LineItem:       it,
			Subtotal:       sub,
			DiscountAmount: disc,
			Total:          sub.Sub(disc),
		})
	}
	return OrderSnapshot{
		Items:         items,
		OrderDiscount: o.orderDiscount,
		Totals:        o.Totals(),
	}
}
