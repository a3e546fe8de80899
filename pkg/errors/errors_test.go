package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapsSentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		sentinel   error
		code       string
		statusCode int
	}{
		{"not found", NotFound("item"), ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{"insufficient stock", InsufficientStock("Feed A"), ErrInsufficientStock, "INSUFFICIENT_STOCK", http.StatusConflict},
		{"invalid quantity", InvalidQuantity(), ErrInvalidQuantity, "INVALID_QUANTITY", http.StatusBadRequest},
		{"invalid timestamp", InvalidTimestamp(), ErrInvalidTimestamp, "INVALID_TIMESTAMP", http.StatusBadRequest},
		{"missing reason", MissingReason(), ErrMissingReason, "MISSING_REASON", http.StatusBadRequest},
		{"item inactive", ItemInactive("Feed A"), ErrItemInactive, "ITEM_INACTIVE", http.StatusConflict},
		{"concurrent modification", ConcurrentModification("item"), ErrConcurrentModification, "CONCURRENT_MODIFICATION", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestAppError_WrappedThroughFmt(t *testing.T) {
	err := fmt.Errorf("record movement: %w", InsufficientStock("Feed A"))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var appErr *AppError
	require.True(t, As(err, &appErr))
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, "UPSTREAM_ERROR", "broker unavailable", http.StatusServiceUnavailable)

	assert.True(t, Is(err, cause))
	assert.Equal(t, "UPSTREAM_ERROR", err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
}

func TestInternal(t *testing.T) {
	err := Internal("something broke")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
}

func TestValidation_CarriesDetails(t *testing.T) {
	err := Validation(map[string]string{"name": "is required"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "is required", err.Details["name"])
}

func TestWithDetails(t *testing.T) {
	err := InsufficientStock("Feed A").WithDetails(map[string]string{
		"requested": "15",
		"available": "10",
	})
	assert.Equal(t, "15", err.Details["requested"])
	assert.ErrorIs(t, err, ErrInsufficientStock)
}
