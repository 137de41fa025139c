package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/application/service"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Terminal is the checkout surface of one cashier. *service.TerminalService
// implements it.
type Terminal interface {
	Snapshot(cashierID uuid.UUID) *service.TerminalState
	AddItem(ctx context.Context, cashierID uuid.UUID, in pos.ItemInput) (*service.TerminalState, error)
	RemoveItem(ctx context.Context, cashierID uuid.UUID, id string) (*service.TerminalState, error)
	SetQuantity(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind, qty int) (*service.TerminalState, error)
	ToggleVoid(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind) (*service.TerminalState, error)
	ApplyItemDiscount(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind, in pos.DiscountInput, passcode string) (*service.TerminalState, error)
	ClearItemDiscount(ctx context.Context, cashierID uuid.UUID, id string, kind enum.ItemKind) (*service.TerminalState, error)
	ApplyOrderDiscount(ctx context.Context, cashierID uuid.UUID, in pos.DiscountInput, passcode string) (*service.TerminalState, error)
	RemoveOrderDiscount(ctx context.Context, cashierID uuid.UUID) (*service.TerminalState, error)
	ClearOrder(ctx context.Context, cashierID uuid.UUID) (*service.TerminalState, error)
	AddCash(ctx context.Context, cashierID uuid.UUID, amount decimal.Decimal) (*service.TerminalState, error)
	ExactAmount(ctx context.Context, cashierID uuid.UUID) (*service.TerminalState, error)
	ClearTender(ctx context.Context, cashierID uuid.UUID) (*service.TerminalState, error)
	PayCashless(ctx context.Context, cashierID uuid.UUID, cashlessType string) (*service.TerminalState, error)
	CancelPayment(ctx context.Context, cashierID uuid.UUID) (*service.TerminalState, error)
	Finalize(ctx context.Context, cashierID uuid.UUID) (*service.TerminalState, error)
}

// TerminalHandler handles checkout HTTP requests
type TerminalHandler struct {
	terminal Terminal
}

// NewTerminalHandler creates a new terminal handler
func NewTerminalHandler(terminal Terminal) *TerminalHandler {
	return &TerminalHandler{terminal: terminal}
}

// respond writes the terminal state. A failed automatic submission is still a
// 200: the order stays covered and the client retries with /finalize.
func (h *TerminalHandler) respond(c *gin.Context, message string, state *service.TerminalState, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	var notices []response.Notice
	switch {
	case state.FinalizeError != nil:
		message = "Payment covered but the sale was not recorded"
		notices = append(notices, response.NoticeOf(state.FinalizeError))
	case state.LastSale != nil && state.State == enum.PaymentCompleted:
		message = "Sale completed"
	}
	for _, w := range state.Warnings {
		notices = append(notices, response.Notice{Kind: apperror.KindPrint, Message: w})
	}
	if len(notices) > 0 {
		response.Warn(c, message, state, notices...)
		return
	}
	response.OK(c, message, state)
}

// Get returns the current checkout
// @Summary Checkout snapshot
// @Tags terminal
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /terminal [get]
func (h *TerminalHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	response.OK(c, "Checkout retrieved successfully", h.terminal.Snapshot(userID))
}

// AddItem adds a meal or product to the order
// @Summary Add item
// @Tags terminal
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.AddItemRequest true "Item"
// @Success 200 {object} response.APIResponse
// @Router /terminal/items [post]
func (h *TerminalHandler) AddItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	state, err := h.terminal.AddItem(c.Request.Context(), userID, req.ToInput())
	h.respond(c, "Item added", state, err)
}

// RemoveItem deletes an item from the order
// @Router /terminal/items/{kind}/{id} [delete]
func (h *TerminalHandler) RemoveItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	_, id, ok := itemParams(c)
	if !ok {
		return
	}

	state, err := h.terminal.RemoveItem(c.Request.Context(), userID, id)
	h.respond(c, "Item removed", state, err)
}

// SetQuantity replaces an item's quantity
// @Router /terminal/items/{kind}/{id}/quantity [put]
func (h *TerminalHandler) SetQuantity(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	kind, id, ok := itemParams(c)
	if !ok {
		return
	}

	var req request.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	state, err := h.terminal.SetQuantity(c.Request.Context(), userID, id, kind, req.Quantity)
	h.respond(c, "Quantity updated", state, err)
}

// ToggleVoid voids or restores an item
// @Router /terminal/items/{kind}/{id}/void [post]
func (h *TerminalHandler) ToggleVoid(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	kind, id, ok := itemParams(c)
	if !ok {
		return
	}

	state, err := h.terminal.ToggleVoid(c.Request.Context(), userID, id, kind)
	h.respond(c, "Item void toggled", state, err)
}

// ApplyItemDiscount discounts one item
// @Router /terminal/items/{kind}/{id}/discount [post]
func (h *TerminalHandler) ApplyItemDiscount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	kind, id, ok := itemParams(c)
	if !ok {
		return
	}

	var req request.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	state, err := h.terminal.ApplyItemDiscount(c.Request.Context(), userID, id, kind, req.ToInput(), req.Passcode)
	h.respond(c, "Item discount applied", state, err)
}

// ClearItemDiscount removes an item discount
// @Router /terminal/items/{kind}/{id}/discount [delete]
func (h *TerminalHandler) ClearItemDiscount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	kind, id, ok := itemParams(c)
	if !ok {
		return
	}

	state, err := h.terminal.ClearItemDiscount(c.Request.Context(), userID, id, kind)
	h.respond(c, "Item discount removed", state, err)
}

// ApplyOrderDiscount sets the order discount, reporting any replaced one
// @Router /terminal/discount [post]
func (h *TerminalHandler) ApplyOrderDiscount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	state, err := h.terminal.ApplyOrderDiscount(c.Request.Context(), userID, req.ToInput(), req.Passcode)
	message := "Order discount applied"
	if err == nil && state.ReplacedDiscount != nil {
		message = "Order discount replaced"
	}
	h.respond(c, message, state, err)
}

// RemoveOrderDiscount drops the order discount
// @Router /terminal/discount [delete]
func (h *TerminalHandler) RemoveOrderDiscount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	state, err := h.terminal.RemoveOrderDiscount(c.Request.Context(), userID)
	h.respond(c, "Order discount removed", state, err)
}

// Clear voids the whole transaction
// @Router /terminal/clear [post]
func (h *TerminalHandler) Clear(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	state, err := h.terminal.ClearOrder(c.Request.Context(), userID)
	h.respond(c, "Order cleared", state, err)
}

// AddCash adds one denomination to the tender
// @Router /terminal/tender/cash [post]
func (h *TerminalHandler) AddCash(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	state, err := h.terminal.AddCash(c.Request.Context(), userID, req.Amount)
	h.respond(c, "Cash added", state, err)
}

// ExactAmount tenders exactly the grand total in cash
// @Router /terminal/tender/exact [post]
func (h *TerminalHandler) ExactAmount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	state, err := h.terminal.ExactAmount(c.Request.Context(), userID)
	h.respond(c, "Exact amount tendered", state, err)
}

// ClearTender resets the cash tender
// @Router /terminal/tender/clear [post]
func (h *TerminalHandler) ClearTender(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	state, err := h.terminal.ClearTender(c.Request.Context(), userID)
	h.respond(c, "Tender cleared", state, err)
}

// PayCashless pays the total with a cashless method
// @Router /terminal/tender/cashless [post]
func (h *TerminalHandler) PayCashless(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CashlessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	state, err := h.terminal.PayCashless(c.Request.Context(), userID, req.CashlessType)
	h.respond(c, "Cashless payment tendered", state, err)
}

// CancelPayment abandons the payment and keeps the order
// @Router /terminal/tender/cancel [post]
func (h *TerminalHandler) CancelPayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	state, err := h.terminal.CancelPayment(c.Request.Context(), userID)
	h.respond(c, "Payment cancelled", state, err)
}

// Finalize retries a failed sale submission
// @Router /terminal/finalize [post]
func (h *TerminalHandler) Finalize(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	state, err := h.terminal.Finalize(c.Request.Context(), userID)
	h.respond(c, "Sale completed", state, err)
}
