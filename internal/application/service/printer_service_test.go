package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/sangkips/tillpoint-api/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) printerService(p printer.Printer) *PrinterService {
	return NewPrinterService(p, f.branches, "memory", 0, "", f.metrics, f.log)
}

func sampleSale(f *fixture) (pos.SaleSubmission, pos.SaleReceipt) {
	items := []pos.LineItem{
		{ID: "1", Kind: enum.ItemKindProduct, ProductRef: "burger", Name: "Burger", UnitPrice: money.MustParse("150"), Quantity: 1},
		{ID: "2", Kind: enum.ItemKindProduct, ProductRef: "fries", Name: "Fries", UnitPrice: money.MustParse("50"), Quantity: 1, Voided: true},
		{
			ID: "3", Kind: enum.ItemKindMeal, ProductRef: "c1", Name: "Combo", Variant: "Large",
			UnitPrice: money.MustParse("100"), Quantity: 2,
			Discount: &pos.Discount{Category: enum.DiscountVoucher, Basis: enum.BasisAmount, Value: money.MustParse("20"), Code: "SAVE20"},
		},
	}
	totals := pos.ComputeTotals(items, nil)
	sub := pos.SaleSubmission{
		SubmissionKey: "key-1",
		Session: pos.SessionContext{
			CashierID:   f.cashier.ID,
			CashierName: "Ana Cruz",
			BranchID:    f.branch.ID,
			BranchName:  f.branch.Name,
			ShiftID:     uuid.New(),
		},
		Items:  items,
		Totals: totals,
		Tender: pos.TenderSnapshot{Mode: enum.TenderCash, Tendered: money.MustParse("500")},
	}
	rec := pos.SaleReceipt{
		SaleID:     uuid.New(),
		InvoiceNo:  "INV-MNL01-20240301-ABCDEF12",
		RecordedAt: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		GrandTotal: totals.GrandTotal,
		Tendered:   money.MustParse("500"),
		Change:     money.MustParse("500").Sub(totals.GrandTotal),
	}
	return sub, rec
}

func TestPrinterService_PrintSaleReceipt(t *testing.T) {
	f := newFixture()
	mem := printer.NewMemoryPrinter()
	svc := f.printerService(mem)
	sub, rec := sampleSale(f)

	receipt, err := svc.PrintSaleReceipt(context.Background(), sub, rec)
	require.NoError(t, err)

	assert.Equal(t, "Manila Main", receipt.Header.StoreName)
	assert.Equal(t, "000-111-222", receipt.Header.TaxID)
	assert.Equal(t, "Ana Cruz", receipt.Cashier)
	assert.Equal(t, "Cash", receipt.PaymentType)
	assert.Equal(t, "2024-03-01 12:30", receipt.Date)
	require.Len(t, receipt.Items, 3)
	assert.True(t, receipt.Items[1].Voided)
	assert.Equal(t, "Combo (Large)", receipt.Items[2].Name)
	assert.Equal(t, "Voucher SAVE20", receipt.Items[2].DiscountLabel)
	assert.Equal(t, "20.00", money.Format(receipt.Items[2].DiscountAmount))

	jobs := mem.Jobs()
	require.Len(t, jobs, 1)
	out := string(jobs[0])
	assert.Contains(t, out, "Manila Main")
	assert.Contains(t, out, "TIN: 000-111-222")
	assert.Contains(t, out, rec.InvoiceNo)
	assert.Contains(t, out, "1x Burger")
	assert.Contains(t, out, "VOID")
	assert.Contains(t, out, "Voucher SAVE20")
	assert.Contains(t, out, "@ 100.00 each")
	assert.Contains(t, out, "VAT 12%:")
	assert.Contains(t, out, "TOTAL:")
	assert.Contains(t, out, money.Format(rec.GrandTotal))
	assert.Contains(t, out, "Change:")

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PrintJobs.WithLabelValues("receipt", "printed")))
}

func TestPrinterService_PrintFailure(t *testing.T) {
	f := newFixture()
	mem := printer.NewMemoryPrinter()
	mem.Fail(errors.New("paper out"))
	svc := f.printerService(mem)
	sub, rec := sampleSale(f)

	receipt, err := svc.PrintSaleReceipt(context.Background(), sub, rec)
	require.Error(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, rec.InvoiceNo, receipt.InvoiceNo)
	assert.Empty(t, mem.Jobs())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PrintJobs.WithLabelValues("receipt", "failed")))
	assert.False(t, svc.GetStatus().Connected)
}

func TestPrinterService_ReprintSale(t *testing.T) {
	f := newFixture()
	mem := printer.NewMemoryPrinter()
	svc := f.printerService(mem)

	sale := &entity.Sale{
		InvoiceNo:      "INV-MNL01-20240301-0000AAAA",
		Subtotal:       money.MustParse("150"),
		Tax:            money.MustParse("18"),
		GrandTotal:     money.MustParse("168"),
		TenderMode:     enum.TenderCashless,
		CashlessType:   "GCash",
		AmountTendered: money.MustParse("168"),
		Change:         money.Zero,
		Status:         enum.SaleRefunded,
		Items: []entity.SaleItem{
			{Name: "Burger", Quantity: 1, UnitPrice: money.MustParse("150"), Subtotal: money.MustParse("150"), LineTotal: money.MustParse("150")},
		},
	}
	session := pos.SessionContext{CashierName: "Ana Cruz", BranchID: f.branch.ID}

	receipt, err := svc.ReprintSale(context.Background(), sale, session)
	require.NoError(t, err)
	assert.True(t, receipt.Reprint)
	assert.True(t, receipt.Refunded)
	assert.Equal(t, "GCash", receipt.PaymentType)

	out := string(mem.Jobs()[0])
	assert.Contains(t, out, "*** REPRINT ***")
	assert.Contains(t, out, "*** REFUNDED ***")
	assert.Contains(t, out, "GCash")
	assert.NotContains(t, out, "Change:")
}

func TestPrinterService_PrintSettlement(t *testing.T) {
	f := newFixture()
	mem := printer.NewMemoryPrinter()
	svc := f.printerService(mem)

	record := &pos.SettlementRecord{
		ID:          uuid.New(),
		ConfirmedAt: time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC),
		ShiftSettlement: pos.ShiftSettlement{
			BranchID:        f.branch.ID,
			ShiftID:         uuid.New(),
			OpeningCashFund: money.MustParse("1000"),
			TotalSales:      money.MustParse("200"),
			TotalCash:       money.MustParse("168"),
			TotalCashless:   money.MustParse("56"),
			TotalDiscount:   money.Zero,
			TotalTax:        money.MustParse("24"),
			NetSales:        money.MustParse("224"),
			ExpectedCash:    money.MustParse("1168"),
			NumTransactions: 2,
			NumRefunded:     1,
			ProductBreakdown: []pos.ProductLine{
				{Kind: enum.ItemKindProduct, ProductRef: "burger", Name: "Burger", Quantity: 1, Amount: money.MustParse("150")},
			},
		},
	}

	require.NoError(t, svc.PrintSettlement(context.Background(), record))

	out := string(mem.Jobs()[0])
	assert.Contains(t, out, "Manila Main")
	assert.Contains(t, out, "SHIFT SETTLEMENT")
	assert.Contains(t, out, "Transactions:")
	assert.Contains(t, out, "Refunded:")
	assert.Contains(t, out, "Expected cash:")
	assert.Contains(t, out, "1168.00")
	assert.Contains(t, out, "ITEMS SOLD")
	assert.Contains(t, out, "1x Burger")
}

func TestPrinterService_StatusAndTestPrint(t *testing.T) {
	f := newFixture()
	mem := printer.NewMemoryPrinter()
	svc := f.printerService(mem)

	status := svc.GetStatus()
	assert.True(t, status.Configured)
	assert.True(t, status.Connected)
	assert.Equal(t, 32, status.CharWidth)

	receipt, err := svc.TestPrint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TEST-001", receipt.InvoiceNo)
	assert.Len(t, mem.Jobs(), 1)

	disabled := NewPrinterService(printer.NewNullPrinter(), f.branches, "none", 48, "PHP", f.metrics, f.log)
	assert.False(t, disabled.GetStatus().Configured)
	assert.Equal(t, 48, disabled.GetStatus().CharWidth)
}
