package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/internal/domain/repository"
	"github.com/sangkips/tillpoint-api/pkg/metrics"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/sangkips/tillpoint-api/pkg/printer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const receiptDateLayout = "2006-01-02 15:04"

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer     printer.Printer
	branchRepo  repository.BranchRepository
	printerType string
	charWidth   int
	currency    string
	metrics     *metrics.Metrics
	log         *zap.Logger
}

var _ pos.ReportPrinter = (*PrinterService)(nil)

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	branchRepo repository.BranchRepository,
	printerType string,
	charWidth int,
	currency string,
	m *metrics.Metrics,
	log *zap.Logger,
) *PrinterService {
	if charWidth <= 0 {
		charWidth = 32 // 58mm paper
	}
	return &PrinterService{
		printer:     p,
		branchRepo:  branchRepo,
		printerType: printerType,
		charWidth:   charWidth,
		currency:    currency,
		metrics:     m,
		log:         log,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	CharWidth  int    `json:"char_width"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
		CharWidth:  s.charWidth,
	}
}

// TestPrint sends a test page to the printer.
// Returns the receipt data so the handler can return it as JSON when printer is disabled.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header: entity.ReceiptHeader{
			StoreName: "PRINTER TEST",
		},
		InvoiceNo:   "TEST-001",
		Date:        time.Now().Format(receiptDateLayout),
		Cashier:     "System",
		PaymentType: "Cash",
		Items: []entity.ReceiptItem{
			{Name: "Test Item 1", Quantity: 1, UnitPrice: money.MustParse("10.00"), Total: money.MustParse("10.00")},
			{Name: "Test Item 2", Quantity: 2, UnitPrice: money.MustParse("5.00"), Total: money.MustParse("10.00")},
		},
		SubTotal: money.MustParse("20.00"),
		VAT:      money.MustParse("2.40"),
		Total:    money.MustParse("22.40"),
		Tendered: money.MustParse("50.00"),
		Change:   money.MustParse("27.60"),
	}

	if err := s.send(ctx, "test", s.FormatReceipt(receipt)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// PrintSaleReceipt prints the customer receipt of a completed sale.
func (s *PrinterService) PrintSaleReceipt(ctx context.Context, sub pos.SaleSubmission, rec pos.SaleReceipt) (*entity.Receipt, error) {
	receipt := ReceiptFromSubmission(sub, rec)
	s.fillHeader(ctx, receipt, sub.Session)

	if err := s.send(ctx, "receipt", s.FormatReceipt(receipt)); err != nil {
		s.log.Warn("receipt not printed", zap.String("invoice_no", rec.InvoiceNo), zap.Error(err))
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

// ReprintSale prints a copy of a stored sale.
func (s *PrinterService) ReprintSale(ctx context.Context, sale *entity.Sale, session pos.SessionContext) (*entity.Receipt, error) {
	receipt := ReceiptFromSale(sale)
	receipt.Cashier = session.CashierName
	receipt.Reprint = true
	s.fillHeader(ctx, receipt, session)

	if err := s.send(ctx, "receipt", s.FormatReceipt(receipt)); err != nil {
		s.log.Warn("receipt not reprinted", zap.String("invoice_no", sale.InvoiceNo), zap.Error(err))
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

// PrintSettlement prints the end-of-shift report.
func (s *PrinterService) PrintSettlement(ctx context.Context, record *pos.SettlementRecord) error {
	header := entity.ReceiptHeader{StoreName: "SHIFT SETTLEMENT"}
	if branch, err := s.branchRepo.GetByID(ctx, record.BranchID); err == nil && branch != nil {
		header.StoreName = branch.Name
		header.Address = branch.Address
	}

	if err := s.send(ctx, "settlement", s.FormatSettlement(header, record)); err != nil {
		s.log.Warn("settlement report not printed", zap.String("shift_id", record.ShiftID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *PrinterService) send(ctx context.Context, document string, data []byte) error {
	if err := s.printer.Print(ctx, data); err != nil {
		s.metrics.PrintJobs.WithLabelValues(document, "failed").Inc()
		return err
	}
	s.metrics.PrintJobs.WithLabelValues(document, "printed").Inc()
	return nil
}

func (s *PrinterService) fillHeader(ctx context.Context, r *entity.Receipt, session pos.SessionContext) {
	r.Header.StoreName = session.BranchName
	branch, err := s.branchRepo.GetByID(ctx, session.BranchID)
	if err != nil {
		s.log.Warn("branch lookup failed, printing without full header", zap.Error(err))
	}
	if branch != nil {
		r.Header = entity.ReceiptHeader{
			StoreName: branch.Name,
			Address:   branch.Address,
			Phone:     branch.Phone,
			TaxID:     branch.TaxID,
		}
	}
}

func (s *PrinterService) amount(d decimal.Decimal) string {
	return money.FormatWithSymbol(s.currency, d)
}

// ReceiptFromSubmission builds a receipt from what the terminal submitted
// and what the ledger recorded.
func ReceiptFromSubmission(sub pos.SaleSubmission, rec pos.SaleReceipt) *entity.Receipt {
	receipt := &entity.Receipt{
		InvoiceNo:     rec.InvoiceNo,
		Date:          rec.RecordedAt.Format(receiptDateLayout),
		Cashier:       sub.Session.CashierName,
		PaymentType:   paymentLabel(sub.Tender.Mode, sub.Tender.CashlessType),
		SubTotal:      sub.Totals.Subtotal,
		ItemDiscount:  sub.Totals.ItemDiscountTotal,
		OrderDiscount: sub.Totals.OrderDiscountAmount,
		VAT:           sub.Totals.Tax,
		Total:         rec.GrandTotal,
		Tendered:      rec.Tendered,
		Change:        rec.Change,
	}
	if d := sub.OrderDiscount; d != nil {
		receipt.OrderDiscountLabel = discountLabel(d.Category, d.Basis, d.Value, d.Code)
	}

	for _, li := range sub.Items {
		item := entity.ReceiptItem{
			Name:           itemName(li.Name, li.Variant),
			Quantity:       li.Quantity,
			UnitPrice:      li.UnitPrice,
			Total:          li.Subtotal(),
			Voided:         li.Voided,
			DiscountAmount: money.Zero,
		}
		if li.Discount != nil && !li.Voided {
			item.DiscountLabel = discountLabel(li.Discount.Category, li.Discount.Basis, li.Discount.Value, li.Discount.Code)
			item.DiscountAmount = li.DiscountAmount()
		}
		receipt.Items = append(receipt.Items, item)
	}
	return receipt
}

// ReceiptFromSale builds a receipt from a stored sale.
func ReceiptFromSale(sale *entity.Sale) *entity.Receipt {
	receipt := &entity.Receipt{
		InvoiceNo:     sale.InvoiceNo,
		Date:          sale.RecordedAt.Format(receiptDateLayout),
		PaymentType:   paymentLabel(sale.TenderMode, sale.CashlessType),
		SubTotal:      sale.Subtotal,
		ItemDiscount:  sale.ItemDiscountTotal,
		OrderDiscount: sale.OrderDiscountAmount,
		VAT:           sale.Tax,
		Total:         sale.GrandTotal,
		Tendered:      sale.AmountTendered,
		Change:        sale.Change,
		Refunded:      sale.IsRefunded(),
	}
	if sale.OrderDiscountCategory != "" {
		receipt.OrderDiscountLabel = discountLabel(sale.OrderDiscountCategory, "", decimal.Zero, sale.OrderDiscountCode)
	}

	for _, it := range sale.Items {
		item := entity.ReceiptItem{
			Name:           itemName(it.Name, it.Variant),
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			Total:          it.Subtotal,
			Voided:         it.Voided,
			DiscountAmount: it.DiscountAmount,
		}
		if it.DiscountCategory != "" && !it.Voided {
			item.DiscountLabel = discountLabel(it.DiscountCategory, it.DiscountBasis, it.DiscountValue, it.DiscountCode)
		}
		receipt.Items = append(receipt.Items, item)
	}
	return receipt
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func (s *PrinterService) FormatReceipt(r *entity.Receipt) []byte {
	doc := printer.NewDocument(s.charWidth)

	doc.Title(r.Header.StoreName)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	if r.Header.TaxID != "" {
		doc.TextF("TIN: %s", r.Header.TaxID)
	}
	if r.Reprint {
		doc.Banner("REPRINT")
	}
	if r.Refunded {
		doc.Banner("REFUNDED")
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	// Invoice info
	doc.KeyValue("Invoice:", r.InvoiceNo).
		KeyValue("Date:", r.Date)

	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}
	if r.PaymentType != "" {
		doc.KeyValue("Payment:", r.PaymentType)
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, money.Format(item.Total))
		if item.Quantity > 1 {
			doc.TextF("  @ %s each", money.Format(item.UnitPrice))
		}
		if item.Voided {
			doc.Indented("VOID", "-"+money.Format(item.Total))
			continue
		}
		if item.DiscountLabel != "" {
			doc.Indented(item.DiscountLabel, "-"+money.Format(item.DiscountAmount))
		}
	}

	doc.Separator('-')

	// Totals
	doc.KeyValue("Subtotal:", s.amount(r.SubTotal))
	if r.ItemDiscount.IsPositive() {
		doc.Deduction("Item discounts:", s.amount(r.ItemDiscount))
	}
	if r.OrderDiscount.IsPositive() {
		label := "Discount:"
		if r.OrderDiscountLabel != "" {
			label = r.OrderDiscountLabel + ":"
		}
		doc.Deduction(label, s.amount(r.OrderDiscount))
	}
	doc.KeyValue("VAT 12%:", s.amount(r.VAT))
	doc.Total("TOTAL:", s.amount(r.Total))

	doc.KeyValue("Tendered:", s.amount(r.Tendered))
	if r.Change.IsPositive() {
		doc.KeyValue("Change:", s.amount(r.Change))
	}

	doc.Separator('-')

	// Footer
	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Thank you, come again!").
		LineFeed().
		SetAlign(printer.AlignLeft)

	doc.Finish()

	return doc.Bytes()
}

// FormatSettlement converts a confirmed settlement into ESC/POS bytes.
func (s *PrinterService) FormatSettlement(header entity.ReceiptHeader, rec *pos.SettlementRecord) []byte {
	doc := printer.NewDocument(s.charWidth)

	doc.Title(header.StoreName)
	if header.Address != "" {
		doc.Text(header.Address)
	}
	doc.SetBold(true).
		Text("SHIFT SETTLEMENT").
		SetBold(false).
		SetAlign(printer.AlignLeft).
		Separator('=')

	doc.KeyValue("Confirmed:", rec.ConfirmedAt.Format(receiptDateLayout)).
		KeyValue("Shift:", shortID(rec.ShiftID.String())).
		KeyValue("Transactions:", fmt.Sprintf("%d", rec.NumTransactions))
	if rec.NumRefunded > 0 {
		doc.KeyValue("Refunded:", fmt.Sprintf("%d", rec.NumRefunded))
	}

	doc.Separator('-')

	doc.KeyValue("Gross sales:", s.amount(rec.TotalSales)).
		Deduction("Discounts:", s.amount(rec.TotalDiscount)).
		KeyValue("VAT:", s.amount(rec.TotalTax)).
		Total("Net sales:", s.amount(rec.NetSales))

	doc.Separator('-')

	doc.KeyValue("Cash:", s.amount(rec.TotalCash)).
		KeyValue("Cashless:", s.amount(rec.TotalCashless)).
		KeyValue("Opening fund:", s.amount(rec.OpeningCashFund)).
		Total("Expected cash:", s.amount(rec.ExpectedCash))

	if len(rec.ProductBreakdown) > 0 {
		doc.Separator('-').
			Text("ITEMS SOLD")
		for _, line := range rec.ProductBreakdown {
			doc.ItemLine(line.Quantity, line.Name, money.Format(line.Amount))
		}
	}

	doc.Separator('=').
		LineFeed().
		Signature("Cashier signature:").
		Finish()

	return doc.Bytes()
}

func discountLabel(category enum.DiscountCategory, basis enum.DiscountBasis, value decimal.Decimal, code string) string {
	switch {
	case category == enum.DiscountVoucher && code != "":
		return "Voucher " + code
	case basis == enum.BasisPercent:
		return fmt.Sprintf("%s %s%%", category.Label(), value.String())
	}
	return category.Label()
}

func paymentLabel(mode enum.TenderMode, cashlessType string) string {
	if mode == enum.TenderCashless {
		if cashlessType != "" {
			return cashlessType
		}
		return "Cashless"
	}
	return "Cash"
}

func itemName(name, variant string) string {
	if variant == "" {
		return name
	}
	return name + " (" + variant + ")"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
