package entity

import "github.com/shopspring/decimal"

// ReceiptHeader holds the branch header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Total          decimal.Decimal `json:"total"`
	Voided         bool            `json:"voided,omitempty"`
	DiscountLabel  string          `json:"discount_label,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Receipt is a value object representing a printable sale receipt.
// It is not a database entity; it is composed from a sale at print time.
type Receipt struct {
	Header             ReceiptHeader   `json:"header"`
	InvoiceNo          string          `json:"invoice_no"`
	Date               string          `json:"date"`
	Cashier            string          `json:"cashier,omitempty"`
	PaymentType        string          `json:"payment_type,omitempty"`
	Items              []ReceiptItem   `json:"items"`
	SubTotal           decimal.Decimal `json:"sub_total"`
	ItemDiscount       decimal.Decimal `json:"item_discount"`
	OrderDiscountLabel string          `json:"order_discount_label,omitempty"`
	OrderDiscount      decimal.Decimal `json:"order_discount"`
	VAT                decimal.Decimal `json:"vat"`
	Total              decimal.Decimal `json:"total"`
	Tendered           decimal.Decimal `json:"tendered"`
	Change             decimal.Decimal `json:"change"`
	Refunded           bool            `json:"refunded,omitempty"`
	Reprint            bool            `json:"reprint,omitempty"`
}
