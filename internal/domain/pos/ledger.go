package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// TenderSnapshot is a read-only view of the payment side of a transaction.
type TenderSnapshot struct {
	Mode         enum.TenderMode `json:"mode"`
	CashlessType string          `json:"cashless_type,omitempty"`
	CashReceived decimal.Decimal `json:"cash_received"`
	Tendered     decimal.Decimal `json:"tendered"`
	Remaining    decimal.Decimal `json:"remaining"`
	Change       decimal.Decimal `json:"change"`
	Covered      bool            `json:"covered"`
}

// SaleSubmission is the order and tender snapshot sent to the ledger when a
// sale is finalized. SubmissionKey stays the same across retries of the same
// transaction so the ledger can drop duplicates.
type SaleSubmission struct {
	SubmissionKey string         `json:"submission_key"`
	Session       SessionContext `json:"session"`
	Items         []LineItem     `json:"items"`
	OrderDiscount *Discount      `json:"order_discount,omitempty"`
	Totals        Totals         `json:"totals"`
	Tender        TenderSnapshot `json:"tender"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}

// SaleReceipt is what the ledger returns for a recorded sale.
type SaleReceipt struct {
	SaleID     uuid.UUID       `json:"sale_id"`
	InvoiceNo  string          `json:"invoice_no"`
	RecordedAt time.Time       `json:"recorded_at"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Tendered   decimal.Decimal `json:"tendered"`
	Change     decimal.Decimal `json:"change"`
}

// SaleLine is one persisted, non-voided item of a sale as used by settlement.
type SaleLine struct {
	Kind       enum.ItemKind   `json:"kind"`
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
}

// SaleSummary is a persisted sale as seen by shift settlement.
type SaleSummary struct {
	SaleID        uuid.UUID       `json:"sale_id"`
	InvoiceNo     string          `json:"invoice_no"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Tax           decimal.Decimal `json:"tax"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	TenderMode    enum.TenderMode `json:"tender_mode"`
	CashlessType  string          `json:"cashless_type,omitempty"`
	Refunded      bool            `json:"refunded"`
	RecordedAt    time.Time       `json:"recorded_at"`
	Lines         []SaleLine      `json:"lines,omitempty"`
}

// ProductLine is one row of the per-product breakdown.
type ProductLine struct {
	Kind       enum.ItemKind   `json:"kind"`
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
}

// ShiftSettlement aggregates a cashier's sales for the open shift.
type ShiftSettlement struct {
	BranchID         uuid.UUID       `json:"branch_id"`
	CashierID        uuid.UUID       `json:"cashier_id"`
	ShiftID          uuid.UUID       `json:"shift_id"`
	OpeningCashFund  decimal.Decimal `json:"opening_cash_fund"`
	Sales            []SaleSummary   `json:"sales"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalCash        decimal.Decimal `json:"total_cash"`
	TotalCashless    decimal.Decimal `json:"total_cashless"`
	TotalDiscount    decimal.Decimal `json:"total_discount"`
	TotalTax         decimal.Decimal `json:"total_tax"`
	NetSales         decimal.Decimal `json:"net_sales"`
	ExpectedCash     decimal.Decimal `json:"expected_cash"`
	NumTransactions  int             `json:"num_transactions"`
	NumRefunded      int             `json:"num_refunded"`
	ProductBreakdown []ProductLine   `json:"product_breakdown"`
}

// SettlementRecord is a confirmed, immutable settlement.
type SettlementRecord struct {
	ID          uuid.UUID `json:"id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	ShiftSettlement
}

// LedgerService records sales and settles shifts.
type LedgerService interface {
	SubmitSale(ctx context.Context, sale SaleSubmission) (*SaleReceipt, error)
	PreviewSettlement(ctx context.Context, branchID, cashierID uuid.UUID) (*ShiftSettlement, error)
	ConfirmSettlement(ctx context.Context, branchID, cashierID uuid.UUID) (*SettlementRecord, error)
}

// ReportPrinter prints a confirmed settlement.
type ReportPrinter interface {
	PrintSettlement(ctx context.Context, record *SettlementRecord) error
}
