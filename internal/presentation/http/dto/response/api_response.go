package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/pagination"
)

// APIResponse represents a standard API response. Failed responses carry
// the error kind so the till can tell a rejected edit from a submission it
// may retry. Successful responses may carry warnings, such as a receipt
// that did not print.
type APIResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Kind     apperror.Kind `json:"kind,omitempty"`
	Data     interface{}   `json:"data,omitempty"`
	Errors   interface{}   `json:"errors,omitempty"`
	Warnings []Notice      `json:"warnings,omitempty"`
	Meta     *Meta         `json:"meta,omitempty"`
}

// Notice is a problem reported next to a result that still succeeded.
type Notice struct {
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message"`
}

// NoticeOf converts an error into a notice.
func NoticeOf(err error) Notice {
	appErr := apperror.GetAppError(err)
	return Notice{Kind: appErr.Kind, Message: appErr.Message}
}

// Meta contains metadata about the response
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func newMeta(c *gin.Context) *Meta {
	requestID := c.Writer.Header().Get("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// Success sends a success response
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// SuccessWithPagination sends a success response with pagination
func SuccessWithPagination[T any](c *gin.Context, statusCode int, message string, result *pagination.PaginatedResult[T]) {
	Success(c, statusCode, message, result)
}

// Warn sends a 200 response whose operation succeeded with side problems.
func Warn(c *gin.Context, message string, data interface{}, notices ...Notice) {
	c.JSON(http.StatusOK, APIResponse{
		Success:  true,
		Message:  message,
		Data:     data,
		Warnings: notices,
		Meta:     newMeta(c),
	})
}

// Error sends the status, kind and field errors of err.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	c.JSON(appErr.Code, APIResponse{
		Success: false,
		Message: appErr.Message,
		Kind:    appErr.Kind,
		Errors:  appErr.Errors,
		Meta:    newMeta(c),
	})
}

// ErrorWithCode sends an error response with a specific status code
func ErrorWithCode(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Kind:    kindForStatus(statusCode),
		Meta:    newMeta(c),
	})
}

func kindForStatus(status int) apperror.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperror.KindValidation
	case http.StatusUnauthorized:
		return apperror.KindUnauthorized
	case http.StatusForbidden:
		return apperror.KindAuthorization
	case http.StatusNotFound:
		return apperror.KindNotFound
	case http.StatusConflict:
		return apperror.KindConflict
	case http.StatusLocked:
		return apperror.KindLocked
	}
	return apperror.KindInternal
}

// ValidationError sends a validation error response
func ValidationError(c *gin.Context, errors []apperror.FieldError) {
	c.JSON(http.StatusUnprocessableEntity, APIResponse{
		Success: false,
		Message: "Validation failed",
		Kind:    apperror.KindValidation,
		Errors:  errors,
		Meta:    newMeta(c),
	})
}

// Created sends a 201 Created response
func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

// OK sends a 200 OK response
func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusNotFound, message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusForbidden, message)
}

func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, message)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusInternalServerError, message)
}
