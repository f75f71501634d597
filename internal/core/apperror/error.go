// Package apperror provides structured error handling for the back office.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by failure class
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeBusinessRule          = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeCapacityExceeded      = "CAPACITY_EXCEEDED"
	CodeNegativeQuantity      = "NEGATIVE_QUANTITY"
	CodePaymentExceedsBalance = "PAYMENT_EXCEEDS_BALANCE"
	CodeInvalidTransition     = "INVALID_TRANSITION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock creates a stock shortage error.
// Requested and available quantities are exposed so the caller can resubmit.
func NewInsufficientStock(productID string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewCapacityExceeded is returned when an incoming lot does not fit the warehouse.
func NewCapacityExceeded(warehouseID string, incoming, free int64) *AppError {
	return &AppError{
		Code:       CodeCapacityExceeded,
		Message:    "Warehouse capacity exceeded",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"warehouse_id": warehouseID,
			"incoming":     incoming,
			"free":         free,
		},
	}
}

// NewNegativeQuantity is returned when a quantity adjustment would drop below zero.
func NewNegativeQuantity(lotID string, current, delta int64) *AppError {
	return &AppError{
		Code:       CodeNegativeQuantity,
		Message:    "Lot quantity cannot go negative",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"lot_id":  lotID,
			"current": current,
			"delta":   delta,
		},
	}
}

// NewPaymentExceedsBalance is returned when a payment is larger than the remaining balance.
func NewPaymentExceedsBalance(invoiceID string, amount, remaining string) *AppError {
	return &AppError{
		Code:       CodePaymentExceedsBalance,
		Message:    "Payment exceeds remaining invoice balance",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"invoice_id": invoiceID,
			"amount":     amount,
			"remaining":  remaining,
		},
	}
}

// NewInvalidTransition is returned on a forbidden lifecycle transition.
// Names both the current and the requested target state.
func NewInvalidTransition(entity, current, target string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("%s cannot move from %s to %s", entity, current, target),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"entity":  entity,
			"current": current,
			"target":  target,
		},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsCode checks if error carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
