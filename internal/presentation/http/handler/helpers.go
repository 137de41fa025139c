package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetBranchID extracts the cashier's branch from the Gin context
func GetBranchID(c *gin.Context) *uuid.UUID {
	val, exists := c.Get("branch_id")
	if !exists {
		return nil
	}
	branchID, ok := val.(uuid.UUID)
	if !ok {
		return nil
	}
	return &branchID
}

// requireUser writes a 401 and returns false when the request carries no user.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return uuid.Nil, false
	}
	return *userID, true
}

// itemParams reads the :kind and :id route parameters.
func itemParams(c *gin.Context) (enum.ItemKind, string, bool) {
	kind, err := enum.ParseItemKind(c.Param("kind"))
	if err != nil {
		response.BadRequest(c, "Invalid item kind. Use 'meal' or 'product'")
		return "", "", false
	}
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "Item ID is required")
		return "", "", false
	}
	return kind, id, true
}

// bindError reports a binding failure. Field rule violations become a 422
// listing each field, anything else a 400.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.BadRequest(c, "Invalid request body")
		return
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   toSnake(fe.Field()),
			Message: "failed on the '" + fe.Tag() + "' rule",
		})
	}
	response.ValidationError(c, fields)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
