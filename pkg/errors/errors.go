package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound               = errors.New("resource not found")
	ErrBadRequest             = errors.New("bad request")
	ErrConflict               = errors.New("resource conflict")
	ErrInternal               = errors.New("internal server error")
	ErrValidation             = errors.New("validation error")
	ErrItemInactive           = errors.New("item inactive")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidTimestamp       = errors.New("invalid timestamp")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrMissingReason          = errors.New("missing reason")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Ledger error constructors

// ItemInactive signals an operation against a soft-deleted item.
func ItemInactive(name string) *AppError {
	return &AppError{
		Err:        ErrItemInactive,
		Code:       "ITEM_INACTIVE",
		Message:    fmt.Sprintf("item %s is inactive", name),
		StatusCode: http.StatusConflict,
	}
}

// InvalidQuantity signals a zero or negative movement quantity.
func InvalidQuantity() *AppError {
	return &AppError{
		Err:        ErrInvalidQuantity,
		Code:       "INVALID_QUANTITY",
		Message:    "quantity must be greater than zero",
		StatusCode: http.StatusBadRequest,
	}
}

// InvalidTimestamp signals a future-dated movement.
func InvalidTimestamp() *AppError {
	return &AppError{
		Err:        ErrInvalidTimestamp,
		Code:       "INVALID_TIMESTAMP",
		Message:    "movement date cannot be in the future",
		StatusCode: http.StatusBadRequest,
	}
}

// InsufficientStock signals a usage that would drive the balance negative.
func InsufficientStock(name string) *AppError {
	return &AppError{
		Err:        ErrInsufficientStock,
		Code:       "INSUFFICIENT_STOCK",
		Message:    fmt.Sprintf("insufficient stock for %s", name),
		StatusCode: http.StatusConflict,
	}
}

// MissingReason signals a loss movement without a reason.
func MissingReason() *AppError {
	return &AppError{
		Err:        ErrMissingReason,
		Code:       "MISSING_REASON",
		Message:    "a reason is required for loss movements",
		StatusCode: http.StatusBadRequest,
	}
}

// ConcurrentModification signals a lost row-lock race; callers should retry.
func ConcurrentModification(resource string) *AppError {
	return &AppError{
		Err:        ErrConcurrentModification,
		Code:       "CONCURRENT_MODIFICATION",
		Message:    fmt.Sprintf("%s was modified concurrently, retry the operation", resource),
		StatusCode: http.StatusConflict,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
