package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	// VATRate is applied to the gross subtotal.
	VATRate = decimal.RequireFromString("0.12")

	seniorNetFactor = decimal.RequireFromString("0.8")
	vatDivisor      = decimal.NewFromInt(1).Add(VATRate)
	maxPercent      = decimal.NewFromInt(100)
)

const (
	passcodeLength      = 6
	minSeniorCardLength = 8
)

// Discount is a committed discount on a line item or on the whole order.
// A Discount is never modified after it is attached; replacing it swaps
// the pointer.
type Discount struct {
	Category     enum.DiscountCategory `json:"category"`
	Basis        enum.DiscountBasis    `json:"basis"`
	Value        decimal.Decimal       `json:"value"`
	Note         string                `json:"note,omitempty"`
	Code         string                `json:"code,omitempty"`
	CardNumber   string                `json:"card_number,omitempty"`
	CardExpiry   string                `json:"card_expiry,omitempty"`
	AuthorizedBy string                `json:"authorized_by,omitempty"`
}

// Amount resolves the discount against base.
func (d *Discount) Amount(base decimal.Decimal) decimal.Decimal {
	if d == nil || !base.IsPositive() {
		return money.Zero
	}
	switch d.Basis {
	case enum.BasisStatutory:
		return SeniorPWDDiscount(base)
	case enum.BasisPercent:
		return money.Percent(base, d.Value)
	default:
		return money.Round(d.Value)
	}
}

// SeniorPWDDiscount is 20% off the VAT-exclusive price, expressed as a
// deduction from the VAT-inclusive amount: base - (base*0.8)/1.12.
func SeniorPWDDiscount(base decimal.Decimal) decimal.Decimal {
	net := base.Mul(seniorNetFactor).Div(vatDivisor)
	return money.Round(base.Sub(net))
}

// DiscountInput is what the cashier keys in.
type DiscountInput struct {
	Category enum.DiscountCategory `json:"category"`
	// Basis selects percent or amount for vouchers and manual discounts.
	Basis      enum.DiscountBasis `json:"basis,omitempty"`
	Value      decimal.Decimal    `json:"value"`
	Note       string             `json:"note,omitempty"`
	Code       string             `json:"code,omitempty"`
	CardNumber string             `json:"card_number,omitempty"`
	CardExpiry string             `json:"card_expiry,omitempty"`
}

// Authorizer checks a supervisor passcode and returns who approved.
type Authorizer interface {
	Authorize(ctx context.Context, passcode string) (authorizedBy string, err error)
}

type discountLevel int

const (
	itemLevel discountLevel = iota
	orderLevel
)

func requiresNote(level discountLevel, c enum.DiscountCategory) bool {
	switch c {
	case enum.DiscountPercentage, enum.DiscountFixedAmount:
		return true
	case enum.DiscountManual:
		return level == itemLevel
	}
	return false
}

// buildDiscount validates in against base and returns the discount to attach.
func buildDiscount(level discountLevel, in DiscountInput, base decimal.Decimal) (*Discount, error) {
	if !in.Category.IsValid() {
		return nil, invalid("category", "Unknown discount category")
	}
	if !base.IsPositive() {
		return nil, invalid("value", "There is nothing to discount")
	}

	d := &Discount{
		Category:   in.Category,
		Note:       strings.TrimSpace(in.Note),
		Code:       strings.TrimSpace(in.Code),
		CardNumber: strings.TrimSpace(in.CardNumber),
		CardExpiry: strings.TrimSpace(in.CardExpiry),
	}

	switch in.Category {
	case enum.DiscountSeniorPWD:
		d.Basis = enum.BasisStatutory
		if level == orderLevel {
			if len(d.CardNumber) < minSeniorCardLength {
				return nil, invalid("card_number", fmt.Sprintf("Card number must be at least %d characters", minSeniorCardLength))
			}
			if d.CardExpiry == "" {
				return nil, invalid("card_expiry", "Card expiry is required")
			}
		}
	case enum.DiscountPercentage:
		d.Basis = enum.BasisPercent
	case enum.DiscountFixedAmount:
		d.Basis = enum.BasisAmount
	case enum.DiscountVoucher, enum.DiscountManual:
		d.Basis = in.Basis
		if d.Basis == "" {
			d.Basis = enum.BasisAmount
		}
		if d.Basis != enum.BasisPercent && d.Basis != enum.BasisAmount {
			return nil, invalid("basis", "Basis must be percent or amount")
		}
	}

	if in.Category == enum.DiscountVoucher && d.Code == "" {
		return nil, invalid("code", "Voucher code is required")
	}
	if requiresNote(level, in.Category) && d.Note == "" {
		return nil, invalid("note", "A note is required for this discount")
	}

	if d.Basis != enum.BasisStatutory {
		if err := validateValue(d.Basis, in.Value, base); err != nil {
			return nil, err
		}
		d.Value = in.Value
	}
	return d, nil
}

func validateValue(basis enum.DiscountBasis, v, base decimal.Decimal) error {
	if basis == enum.BasisPercent {
		if !v.IsPositive() {
			return invalid("value", "Percentage must be greater than 0")
		}
		if v.GreaterThan(maxPercent) {
			return invalid("value", "Percentage cannot exceed 100")
		}
		return nil
	}
	if !v.IsPositive() {
		return invalid("value", "Discount amount must be greater than 0")
	}
	if !v.Equal(money.Round(v)) {
		return invalid("value", "Discount amount cannot have more than 2 decimal places")
	}
	if v.GreaterThan(base) {
		return invalid("value", "Discount amount cannot exceed "+money.Format(base))
	}
	return nil
}

// Authorize is the passcode gate every discount and refund passes through
// right before it is committed. The code must be 6 digits.
func Authorize(ctx context.Context, a Authorizer, passcode string) (string, error) {
	if a == nil {
		return "", apperror.NewAuthorizationError("Discount authorization is not configured")
	}
	passcode = strings.TrimSpace(passcode)
	if len(passcode) != passcodeLength || strings.Trim(passcode, "0123456789") != "" {
		return "", apperror.NewAuthorizationError("Authorization code must be 6 digits")
	}
	by, err := a.Authorize(ctx, passcode)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindAuthorization {
			return "", err
		}
		return "", apperror.NewAuthorizationError("Authorization failed: " + err.Error())
	}
	return by, nil
}
