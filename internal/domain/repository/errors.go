package repository

import "errors"

// ErrShiftNotOpen is returned when a write needs an open shift and the
// shift has already been settled.
var ErrShiftNotOpen = errors.New("shift is not open")

// ErrSaleNotRefundable is returned when a sale is already refunded or settled.
var ErrSaleNotRefundable = errors.New("sale is not refundable")

// ErrDuplicateSubmission is returned when a sale with the same submission
// key was stored concurrently.
var ErrDuplicateSubmission = errors.New("duplicate sale submission")
