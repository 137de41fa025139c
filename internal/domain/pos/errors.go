package pos

import (
	"net/http"

	"github.com/sangkips/tillpoint-api/pkg/apperror"
)

func errItemNotFound() *apperror.AppError {
	return &apperror.AppError{
		Code:    http.StatusNotFound,
		Kind:    apperror.KindValidation,
		Message: "Item not found",
		Errors:  []apperror.FieldError{{Field: "item_id", Message: "Item not found"}},
	}
}

func errVoidedItem() *apperror.AppError {
	return apperror.NewInvalidInputError("item_id", "Item is voided")
}

func errOrderLocked() *apperror.AppError {
	return apperror.NewLockedError("Order is being finalized")
}

func invalid(field, message string) *apperror.AppError {
	return apperror.NewInvalidInputError(field, message)
}
