package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/tillpoint-api/internal/application/service"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/response"
)

// ShiftHandler handles shift-related HTTP requests
type ShiftHandler struct {
	shiftService *service.ShiftService
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shiftService *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// Open starts a shift with the counted opening cash fund
// @Summary Open shift
// @Tags shifts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.OpenShiftRequest true "Opening cash fund"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /shifts/open [post]
func (h *ShiftHandler) Open(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.shiftService.OpenShift(c.Request.Context(), userID, req.OpeningCashFund)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Shift opened successfully", session)
}

// Current returns the cashier's session
// @Summary Current session
// @Tags shifts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /shifts/current [get]
func (h *ShiftHandler) Current(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	session, err := h.shiftService.Current(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Session retrieved successfully", session)
}

// StartBreak puts the open shift on break
// @Summary Start break
// @Tags shifts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /shifts/break/start [post]
func (h *ShiftHandler) StartBreak(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	session, err := h.shiftService.StartBreak(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Break started", session)
}

// EndBreak resumes the open shift
// @Summary End break
// @Tags shifts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /shifts/break/end [post]
func (h *ShiftHandler) EndBreak(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	session, err := h.shiftService.EndBreak(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Break ended", session)
}
