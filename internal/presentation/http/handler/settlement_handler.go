package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
)

// Settlements closes out a cashier's shift. *service.SettlementService
// implements it.
type Settlements interface {
	Preview(ctx context.Context, cashierID uuid.UUID) (*pos.ShiftSettlement, error)
	Confirm(ctx context.Context, cashierID uuid.UUID) (*pos.SettlementRecord, error)
	RetryPrint(ctx context.Context, cashierID uuid.UUID) (*pos.SettlementRecord, error)
	LastConfirmed(cashierID uuid.UUID) *pos.SettlementRecord
}

// SettlementHandler handles end-of-shift HTTP requests
type SettlementHandler struct {
	settlements Settlements
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(settlements Settlements) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// Preview summarizes the open shift without closing it
// @Summary Preview settlement
// @Tags settlement
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /settlement/preview [get]
func (h *SettlementHandler) Preview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summary, err := h.settlements.Preview(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settlement preview retrieved successfully", summary)
}

// Confirm settles the open shift and prints the report
// @Summary Confirm settlement
// @Tags settlement
// @Security BearerAuth
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /settlement/confirm [post]
func (h *SettlementHandler) Confirm(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	record, err := h.settlements.Confirm(c.Request.Context(), userID)
	h.respondRecord(c, "Shift settled successfully", record, err)
}

// RetryPrint prints the last confirmed settlement again
// @Router /settlement/print [post]
func (h *SettlementHandler) RetryPrint(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	record, err := h.settlements.RetryPrint(c.Request.Context(), userID)
	h.respondRecord(c, "Settlement report printed", record, err)
}

// Last returns the settlement confirmed in this process, if any
// @Router /settlement/last [get]
func (h *SettlementHandler) Last(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	record := h.settlements.LastConfirmed(userID)
	if record == nil {
		response.NotFound(c, "No settlement confirmed")
		return
	}
	response.OK(c, "Settlement retrieved successfully", record)
}

// respondRecord reports a print failure as a warning next to the record.
func (h *SettlementHandler) respondRecord(c *gin.Context, message string, record *pos.SettlementRecord, err error) {
	if err != nil {
		if record != nil && apperror.KindOf(err) == apperror.KindPrint {
			response.Warn(c, "Shift settled but the report was not printed", gin.H{
				"settlement": record,
			}, response.NoticeOf(err))
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, message, gin.H{
		"settlement": record,
	})
}
