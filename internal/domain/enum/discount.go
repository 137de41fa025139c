package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DiscountCategory identifies how a discount amount is derived.
type DiscountCategory string

const (
	DiscountSeniorPWD   DiscountCategory = "senior_pwd"
	DiscountPercentage  DiscountCategory = "percentage"
	DiscountFixedAmount DiscountCategory = "fixed_amount"
	DiscountVoucher     DiscountCategory = "voucher"
	DiscountManual      DiscountCategory = "manual"
)

func (c DiscountCategory) String() string {
	return string(c)
}

func (c DiscountCategory) IsValid() bool {
	switch c {
	case DiscountSeniorPWD, DiscountPercentage, DiscountFixedAmount, DiscountVoucher, DiscountManual:
		return true
	}
	return false
}

// Label is the text printed on receipts.
func (c DiscountCategory) Label() string {
	switch c {
	case DiscountSeniorPWD:
		return "Senior/PWD"
	case DiscountPercentage:
		return "Percentage"
	case DiscountFixedAmount:
		return "Fixed"
	case DiscountVoucher:
		return "Voucher"
	case DiscountManual:
		return "Manual"
	}
	return string(c)
}

// ParseDiscountCategory accepts the canonical names and a few spellings the
// terminal UI has historically sent.
func ParseDiscountCategory(s string) (DiscountCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "senior_pwd", "senior", "pwd", "seniorpwd", "senior/pwd":
		return DiscountSeniorPWD, nil
	case "percentage", "percent":
		return DiscountPercentage, nil
	case "fixed_amount", "fixed", "amount":
		return DiscountFixedAmount, nil
	case "voucher":
		return DiscountVoucher, nil
	case "manual":
		return DiscountManual, nil
	}
	return "", fmt.Errorf("unknown discount category %q", s)
}

func (c *DiscountCategory) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseDiscountCategory(str)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DiscountBasis says whether a discount value is a percentage or an amount.
type DiscountBasis string

const (
	BasisPercent   DiscountBasis = "percent"
	BasisAmount    DiscountBasis = "amount"
	BasisStatutory DiscountBasis = "statutory"
)

func (b DiscountBasis) IsValid() bool {
	return b == BasisPercent || b == BasisAmount || b == BasisStatutory
}
