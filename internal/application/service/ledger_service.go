package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/internal/domain/repository"
	"github.com/sangkips/tillpoint-api/internal/infrastructure/events"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/metrics"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/sangkips/tillpoint-api/pkg/pagination"
	"github.com/sangkips/tillpoint-api/pkg/utils"
	"go.uber.org/zap"
)

// LedgerService records sales, refunds and shift settlements in the
// database.
type LedgerService struct {
	saleRepo       repository.SaleRepository
	shiftRepo      repository.ShiftRepository
	settlementRepo repository.SettlementRepository
	branchRepo     repository.BranchRepository
	publisher      events.Publisher
	metrics        *metrics.Metrics
	log            *zap.Logger
	invoicePrefix  string
	now            func() time.Time
}

var _ pos.LedgerService = (*LedgerService)(nil)

// NewLedgerService creates a new ledger service
func NewLedgerService(
	saleRepo repository.SaleRepository,
	shiftRepo repository.ShiftRepository,
	settlementRepo repository.SettlementRepository,
	branchRepo repository.BranchRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
	invoicePrefix string,
) *LedgerService {
	return &LedgerService{
		saleRepo:       saleRepo,
		shiftRepo:      shiftRepo,
		settlementRepo: settlementRepo,
		branchRepo:     branchRepo,
		publisher:      publisher,
		metrics:        m,
		log:            log,
		invoicePrefix:  invoicePrefix,
		now:            time.Now,
	}
}

// SubmitSale records a finalized sale. Submitting the same key twice
// returns the sale recorded the first time.
func (s *LedgerService) SubmitSale(ctx context.Context, sub pos.SaleSubmission) (*pos.SaleReceipt, error) {
	if strings.TrimSpace(sub.SubmissionKey) == "" {
		return nil, apperror.NewInvalidInputError("submission_key", "Submission key is required")
	}

	existing, err := s.saleRepo.GetBySubmissionKey(ctx, sub.SubmissionKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.SalesSubmitted.WithLabelValues("duplicate").Inc()
		s.log.Info("duplicate sale submission",
			zap.String("submission_key", sub.SubmissionKey),
			zap.String("invoice_no", existing.InvoiceNo),
		)
		return saleReceipt(existing), nil
	}

	shift, err := s.shiftRepo.GetByID(ctx, sub.Session.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil || !shift.IsOpen() || shift.CashierID != sub.Session.CashierID {
		return nil, errNoOpenShift()
	}

	sale, err := s.buildSale(ctx, sub, shift)
	if err != nil {
		s.metrics.SalesSubmitted.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		switch {
		case errors.Is(err, repository.ErrShiftNotOpen):
			return nil, errNoOpenShift()
		case errors.Is(err, repository.ErrDuplicateSubmission):
			stored, getErr := s.saleRepo.GetBySubmissionKey(ctx, sub.SubmissionKey)
			if getErr != nil {
				return nil, getErr
			}
			if stored == nil {
				return nil, err
			}
			s.metrics.SalesSubmitted.WithLabelValues("duplicate").Inc()
			return saleReceipt(stored), nil
		}
		s.metrics.SalesSubmitted.WithLabelValues("error").Inc()
		return nil, err
	}

	s.metrics.SalesSubmitted.WithLabelValues("recorded").Inc()
	s.metrics.SalesAmount.Add(sale.GrandTotal.InexactFloat64())
	s.log.Info("sale recorded",
		zap.String("invoice_no", sale.InvoiceNo),
		zap.String("cashier_id", sale.CashierID.String()),
		zap.String("grand_total", money.Format(sale.GrandTotal)),
		zap.String("tender_mode", sale.TenderMode.String()),
	)

	evt := events.NewEvent(events.EventSaleCompleted, sale.BranchID, sale)
	if err := s.publisher.PublishSale(ctx, sale.InvoiceNo, evt); err != nil {
		s.log.Warn("failed to publish sale event", zap.String("invoice_no", sale.InvoiceNo), zap.Error(err))
	}

	return saleReceipt(sale), nil
}

// buildSale recomputes the totals from the submitted items rather than
// trusting the ones sent along, and checks the tender covers them.
func (s *LedgerService) buildSale(ctx context.Context, sub pos.SaleSubmission, shift *entity.Shift) (*entity.Sale, error) {
	totals := pos.ComputeTotals(sub.Items, sub.OrderDiscount)
	if totals.ItemCount == 0 {
		return nil, apperror.NewInvalidInputError("items", "Sale has no items")
	}
	if !totals.GrandTotal.Equal(sub.Totals.GrandTotal) {
		return nil, apperror.NewInvalidInputError("totals", "Submitted totals do not match the items")
	}

	mode := sub.Tender.Mode
	if mode == "" {
		mode = enum.TenderCash
	}
	tendered := sub.Tender.Tendered
	change := money.Zero
	switch mode {
	case enum.TenderCashless:
		if strings.TrimSpace(sub.Tender.CashlessType) == "" {
			return nil, apperror.NewInvalidInputError("cashless_type", "Cashless type is required")
		}
		tendered = totals.GrandTotal
	case enum.TenderCash:
		if tendered.LessThan(totals.GrandTotal) {
			return nil, apperror.NewInvalidInputError("tender", "Tendered amount does not cover the total")
		}
		change = tendered.Sub(totals.GrandTotal)
	default:
		return nil, apperror.NewInvalidInputError("tender_mode", "Unknown tender mode")
	}

	branchCode := ""
	branch, err := s.branchRepo.GetByID(ctx, shift.BranchID)
	if err != nil {
		return nil, err
	}
	if branch != nil {
		branchCode = branch.Code
	}

	recordedAt := s.now()
	sale := &entity.Sale{
		InvoiceNo:           utils.GenerateInvoiceNo(s.invoicePrefix, branchCode, recordedAt),
		SubmissionKey:       sub.SubmissionKey,
		BranchID:            shift.BranchID,
		CashierID:           shift.CashierID,
		ShiftID:             shift.ID,
		Subtotal:            totals.Subtotal,
		ItemDiscountTotal:   totals.ItemDiscountTotal,
		OrderDiscountAmount: totals.OrderDiscountAmount,
		Tax:                 totals.Tax,
		GrandTotal:          totals.GrandTotal,
		ItemCount:           totals.ItemCount,
		TenderMode:          mode,
		CashlessType:        strings.TrimSpace(sub.Tender.CashlessType),
		AmountTendered:      tendered,
		Change:              change,
		Status:              enum.SaleCompleted,
		RecordedAt:          recordedAt,
	}
	if d := sub.OrderDiscount; d != nil {
		sale.OrderDiscountCategory = d.Category
		sale.OrderDiscountNote = d.Note
		sale.OrderDiscountCode = d.Code
		sale.OrderDiscountCardNumber = d.CardNumber
		sale.OrderDiscountApprovedBy = d.AuthorizedBy
	}

	for _, li := range sub.Items {
		item := entity.SaleItem{
			LineID:     li.ID,
			Kind:       li.Kind,
			ProductRef: li.ProductRef,
			Variant:    li.Variant,
			Name:       li.Name,
			UnitPrice:  li.UnitPrice,
			Quantity:   li.Quantity,
			Voided:     li.Voided,
			Subtotal:   li.Subtotal(),
			LineTotal:  money.Zero,
		}
		if !li.Voided {
			item.DiscountAmount = li.DiscountAmount()
			item.LineTotal = item.Subtotal.Sub(item.DiscountAmount)
		}
		if d := li.Discount; d != nil {
			item.DiscountCategory = d.Category
			item.DiscountBasis = d.Basis
			item.DiscountValue = d.Value
			item.DiscountNote = d.Note
			item.DiscountCode = d.Code
			item.DiscountApprovedBy = d.AuthorizedBy
		}
		sale.Items = append(sale.Items, item)
	}
	return sale, nil
}

// PreviewSettlement aggregates the cashier's open shift without changing
// anything.
func (s *LedgerService) PreviewSettlement(ctx context.Context, branchID, cashierID uuid.UUID) (*pos.ShiftSettlement, error) {
	shift, err := s.openShift(ctx, branchID, cashierID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, shift)
}

// ConfirmSettlement stores the settlement and closes the shift.
func (s *LedgerService) ConfirmSettlement(ctx context.Context, branchID, cashierID uuid.UUID) (*pos.SettlementRecord, error) {
	shift, err := s.openShift(ctx, branchID, cashierID)
	if err != nil {
		return nil, err
	}

	var summary *pos.ShiftSettlement
	settlement, err := s.settlementRepo.Settle(ctx, shift.ID, func(locked *entity.Shift, sales []entity.Sale) (*entity.Settlement, error) {
		summary = summarizeSales(locked, sales)
		return newSettlement(locked, summary, s.now()), nil
	})
	if err != nil {
		s.metrics.SettlementConfirms.WithLabelValues("error").Inc()
		if errors.Is(err, repository.ErrShiftNotOpen) {
			return nil, errNoOpenShift()
		}
		return nil, err
	}

	s.metrics.SettlementConfirms.WithLabelValues("confirmed").Inc()
	s.log.Info("shift settled",
		zap.String("shift_id", shift.ID.String()),
		zap.String("cashier_id", cashierID.String()),
		zap.Int("transactions", summary.NumTransactions),
		zap.String("expected_cash", money.Format(summary.ExpectedCash)),
	)

	record := &pos.SettlementRecord{
		ID:              settlement.ID,
		ConfirmedAt:     settlement.ConfirmedAt,
		ShiftSettlement: *summary,
	}

	evt := events.NewEvent(events.EventSettlementConfirmed, shift.BranchID, record)
	if err := s.publisher.PublishSettlement(ctx, shift.ID.String(), evt); err != nil {
		s.log.Warn("failed to publish settlement event", zap.String("shift_id", shift.ID.String()), zap.Error(err))
	}

	return record, nil
}

// RefundSaleInput represents a refund request
type RefundSaleInput struct {
	Session   pos.SessionContext
	InvoiceNo string
	Reason    string
	Passcode  string
}

// RefundSale reverses a completed sale of the current, unsettled shift.
// A supervisor passcode is required.
func (s *LedgerService) RefundSale(ctx context.Context, input *RefundSaleInput, authorizer pos.Authorizer) (*entity.Sale, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperror.NewInvalidInputError("reason", "Refund reason is required")
	}

	sale, err := s.saleRepo.GetByInvoiceNo(ctx, input.Session.BranchID, input.InvoiceNo)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	if sale.IsRefunded() {
		return nil, apperror.NewConflictError("Sale is already refunded")
	}
	if sale.SettlementID != nil {
		return nil, errSettledSale()
	}

	by, err := pos.Authorize(ctx, authorizer, input.Passcode)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.saleRepo.MarkRefunded(ctx, sale.ID, reason, by, at); err != nil {
		if errors.Is(err, repository.ErrSaleNotRefundable) {
			return nil, s.notRefundable(ctx, sale.ID)
		}
		return nil, err
	}
	sale.Status = enum.SaleRefunded
	sale.RefundReason = reason
	sale.RefundedBy = by
	sale.RefundedAt = &at

	s.log.Info("sale refunded",
		zap.String("invoice_no", sale.InvoiceNo),
		zap.String("cashier_id", input.Session.CashierID.String()),
	)

	evt := events.NewEvent(events.EventSaleRefunded, sale.BranchID, sale)
	if err := s.publisher.PublishSale(ctx, sale.InvoiceNo, evt); err != nil {
		s.log.Warn("failed to publish refund event", zap.String("invoice_no", sale.InvoiceNo), zap.Error(err))
	}
	return sale, nil
}

// notRefundable explains why a sale that passed the checks above could
// not be refunded: another refund or a settlement got there first.
func (s *LedgerService) notRefundable(ctx context.Context, id uuid.UUID) error {
	current, err := s.saleRepo.GetByID(ctx, id)
	if err == nil && current != nil && current.SettlementID != nil && !current.IsRefunded() {
		return errSettledSale()
	}
	return apperror.NewConflictError("Sale is already refunded")
}

// ListShiftSales returns a page of the sales recorded in the session's shift.
func (s *LedgerService) ListShiftSales(ctx context.Context, session pos.SessionContext, params *pagination.PaginationParams, search string) ([]entity.Sale, int64, error) {
	if !session.HasOpenShift() {
		return []entity.Sale{}, 0, nil
	}
	shiftID := session.ShiftID
	return s.saleRepo.List(ctx, &repository.SaleFilterParams{
		Pagination: params,
		BranchID:   session.BranchID,
		ShiftID:    &shiftID,
		Search:     search,
	})
}

// GetSale returns a sale of the session's branch.
func (s *LedgerService) GetSale(ctx context.Context, branchID uuid.UUID, invoiceNo string) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetByInvoiceNo(ctx, branchID, invoiceNo)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

func (s *LedgerService) openShift(ctx context.Context, branchID, cashierID uuid.UUID) (*entity.Shift, error) {
	shift, err := s.shiftRepo.GetOpenByCashier(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if shift == nil || shift.BranchID != branchID {
		return nil, errNoOpenShift()
	}
	return shift, nil
}

func (s *LedgerService) summarize(ctx context.Context, shift *entity.Shift) (*pos.ShiftSettlement, error) {
	sales, err := s.saleRepo.ListByShift(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	return summarizeSales(shift, sales), nil
}

func summarizeSales(shift *entity.Shift, sales []entity.Sale) *pos.ShiftSettlement {
	summaries := make([]pos.SaleSummary, 0, len(sales))
	for i := range sales {
		summaries = append(summaries, saleSummary(&sales[i]))
	}

	summary := pos.Summarize(shift.OpeningCashFund, summaries)
	summary.BranchID = shift.BranchID
	summary.CashierID = shift.CashierID
	summary.ShiftID = shift.ID
	return &summary
}

func newSettlement(shift *entity.Shift, summary *pos.ShiftSettlement, at time.Time) *entity.Settlement {
	settlement := &entity.Settlement{
		ShiftID:         shift.ID,
		BranchID:        shift.BranchID,
		CashierID:       shift.CashierID,
		OpeningCashFund: summary.OpeningCashFund,
		TotalSales:      summary.TotalSales,
		TotalCash:       summary.TotalCash,
		TotalCashless:   summary.TotalCashless,
		TotalDiscount:   summary.TotalDiscount,
		TotalTax:        summary.TotalTax,
		NetSales:        summary.NetSales,
		ExpectedCash:    summary.ExpectedCash,
		NumTransactions: summary.NumTransactions,
		NumRefunded:     summary.NumRefunded,
		ConfirmedAt:     at,
	}
	for _, pl := range summary.ProductBreakdown {
		settlement.Lines = append(settlement.Lines, entity.SettlementLine{
			Kind:       pl.Kind,
			ProductRef: pl.ProductRef,
			Name:       pl.Name,
			Quantity:   pl.Quantity,
			Amount:     pl.Amount,
		})
	}
	return settlement
}

func saleSummary(sale *entity.Sale) pos.SaleSummary {
	summary := pos.SaleSummary{
		SaleID:        sale.ID,
		InvoiceNo:     sale.InvoiceNo,
		Subtotal:      sale.Subtotal,
		DiscountTotal: sale.DiscountTotal(),
		Tax:           sale.Tax,
		GrandTotal:    sale.GrandTotal,
		TenderMode:    sale.TenderMode,
		CashlessType:  sale.CashlessType,
		Refunded:      sale.IsRefunded(),
		RecordedAt:    sale.RecordedAt,
	}
	for _, item := range sale.Items {
		if item.Voided {
			continue
		}
		summary.Lines = append(summary.Lines, pos.SaleLine{
			Kind:       item.Kind,
			ProductRef: item.ProductRef,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Amount:     item.LineTotal,
		})
	}
	return summary
}

func saleReceipt(sale *entity.Sale) *pos.SaleReceipt {
	return &pos.SaleReceipt{
		SaleID:     sale.ID,
		InvoiceNo:  sale.InvoiceNo,
		RecordedAt: sale.RecordedAt,
		GrandTotal: sale.GrandTotal,
		Tendered:   sale.AmountTendered,
		Change:     sale.Change,
	}
}

func errNoOpenShift() *apperror.AppError {
	return apperror.NewInvalidInputError("shift", "No open shift")
}

func errSettledSale() *apperror.AppError {
	return apperror.NewInvalidInputError("invoice_no", "Sale belongs to a settled shift")
}
