package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillpoint-api/internal/application/service"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillpoint-api/pkg/pagination"
)

// SalesHandler handles recorded sales of the current shift
type SalesHandler struct {
	ledgerService  *service.LedgerService
	shiftService   *service.ShiftService
	authorizers    *service.PasscodeAuthorizer
	printerService *service.PrinterService
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(
	ledgerService *service.LedgerService,
	shiftService *service.ShiftService,
	authorizers *service.PasscodeAuthorizer,
	printerService *service.PrinterService,
) *SalesHandler {
	return &SalesHandler{
		ledgerService:  ledgerService,
		shiftService:   shiftService,
		authorizers:    authorizers,
		printerService: printerService,
	}
}

func (h *SalesHandler) session(c *gin.Context) (*pos.SessionContext, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	session, err := h.shiftService.Current(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return session, true
}

// List returns a page of the sales recorded in the open shift
// @Summary List shift sales
// @Tags sales
// @Security BearerAuth
// @Produce json
// @Param search query string false "Invoice number search"
// @Param page query int false "Page"
// @Param per_page query int false "Items per page"
// @Success 200 {object} response.APIResponse
// @Router /sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req request.SaleFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage}
	params.Validate()

	sales, total, err := h.ledgerService.ListShiftSales(c.Request.Context(), *session, params, req.Search)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := pagination.NewPaginatedResult(sales, pagination.NewPagination(params.Page, params.PerPage, total))
	response.SuccessWithPagination(c, 200, "Sales retrieved successfully", result)
}

// Get returns one sale of the cashier's branch
// @Router /sales/{invoice} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	sale, err := h.ledgerService.GetSale(c.Request.Context(), session.BranchID, c.Param("invoice"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}

// Refund reverses a completed sale with a supervisor passcode
// @Summary Refund sale
// @Tags sales
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.RefundRequest true "Refund"
// @Success 200 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /sales/{invoice}/refund [post]
func (h *SalesHandler) Refund(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req request.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sale, err := h.ledgerService.RefundSale(c.Request.Context(), &service.RefundSaleInput{
		Session:   *session,
		InvoiceNo: c.Param("invoice"),
		Reason:    req.Reason,
		Passcode:  req.Passcode,
	}, h.authorizers.For(session.CashierID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale refunded successfully", sale)
}

// Reprint prints a stored sale again
// @Router /sales/{invoice}/reprint [post]
func (h *SalesHandler) Reprint(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	sale, err := h.ledgerService.GetSale(c.Request.Context(), session.BranchID, c.Param("invoice"))
	if err != nil {
		response.Error(c, err)
		return
	}

	receipt, err := h.printerService.ReprintSale(c.Request.Context(), sale, *session)
	if err != nil {
		if receipt != nil {
			response.Warn(c, "Receipt generated but printing failed", gin.H{
				"receipt": receipt,
			}, response.NoticeOf(err))
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt reprinted successfully", gin.H{
		"receipt": receipt,
	})
}
