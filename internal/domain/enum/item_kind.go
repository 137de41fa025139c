package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemKind distinguishes composite meals from simple products on an order.
type ItemKind string

const (
	ItemKindMeal    ItemKind = "meal"
	ItemKindProduct ItemKind = "product"
)

func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k ItemKind) IsValid() bool {
	return k == ItemKindMeal || k == ItemKindProduct
}

// ParseItemKind accepts "meal"/"product" in any case, plus the plural forms
// used in route paths.
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "meal", "meals":
		return ItemKindMeal, nil
	case "product", "products":
		return ItemKindProduct, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

func (k *ItemKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseItemKind(str)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
