package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBalance(t *testing.T) {
	tests := []struct {
		name     string
		kind     repository.MovementKind
		before   string
		quantity string
		want     string
		wantErr  error
	}{
		{"purchase adds", repository.MovementEntryPurchase, "100", "25", "125", nil},
		{"donation adds", repository.MovementEntryDonation, "0", "10", "10", nil},
		{"consumption subtracts", repository.MovementUsageConsumption, "100", "30", "70", nil},
		{"loss subtracts", repository.MovementUsageLoss, "5", "5", "0", nil},
		{"usage cannot overdraw", repository.MovementUsageConsumption, "10", "15", "", errors.ErrInsufficientStock},
		{"adjustment sets absolute balance", repository.MovementAdjustment, "100", "42", "42", nil},
		{"adjustment to zero", repository.MovementAdjustment, "100", "0", "0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextBalance(tt.kind, d(tt.before), d(tt.quantity), "Feed A")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestRecordMovement_Validation(t *testing.T) {
	svc := NewInventoryService(nil, nil, nil, nil, nil, logger.New("test", "test"))
	itemID := uuid.New().String()

	tests := []struct {
		name    string
		input   MovementInput
		wantErr error
	}{
		{
			name: "zero quantity",
			input: MovementInput{
				ItemID:   itemID,
				Kind:     repository.MovementEntryPurchase,
				Quantity: decimal.Zero,
			},
			wantErr: errors.ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			input: MovementInput{
				ItemID:   itemID,
				Kind:     repository.MovementUsageConsumption,
				Quantity: decimal.NewFromInt(-5),
			},
			wantErr: errors.ErrInvalidQuantity,
		},
		{
			name: "negative adjustment",
			input: MovementInput{
				ItemID:   itemID,
				Kind:     repository.MovementAdjustment,
				Quantity: decimal.NewFromInt(-1),
			},
			wantErr: errors.ErrInvalidQuantity,
		},
		{
			name: "future timestamp",
			input: MovementInput{
				ItemID:     itemID,
				Kind:       repository.MovementEntryPurchase,
				Quantity:   decimal.NewFromInt(10),
				OccurredAt: time.Now().Add(48 * time.Hour),
			},
			wantErr: errors.ErrInvalidTimestamp,
		},
		{
			name: "loss without reason",
			input: MovementInput{
				ItemID:   itemID,
				Kind:     repository.MovementUsageLoss,
				Quantity: decimal.NewFromInt(3),
			},
			wantErr: errors.ErrMissingReason,
		},
		{
			name: "unknown kind",
			input: MovementInput{
				ItemID:   itemID,
				Kind:     repository.MovementKind("teleport"),
				Quantity: decimal.NewFromInt(3),
			},
			wantErr: errors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordMovement(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecordMovement_RejectsMissingItemID(t *testing.T) {
	svc := NewInventoryService(nil, nil, nil, nil, nil, logger.New("test", "test"))

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		Kind:     repository.MovementEntryPurchase,
		Quantity: decimal.NewFromInt(10),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestCreateItem_Validation(t *testing.T) {
	svc := NewInventoryService(nil, nil, nil, nil, nil, logger.New("test", "test"))

	tests := []struct {
		name  string
		input NewItemInput
	}{
		{"missing name", NewItemInput{Category: repository.CategoryFeed, Unit: "kg"}},
		{"missing unit", NewItemInput{Name: "Feed A", Category: repository.CategoryFeed}},
		{"unknown category", NewItemInput{Name: "Feed A", Category: "garden", Unit: "kg"}},
		{"single character name", NewItemInput{Name: "F", Category: repository.CategoryFeed, Unit: "kg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestCreateItem_RejectsNegativeBalances(t *testing.T) {
	svc := NewInventoryService(nil, nil, nil, nil, nil, logger.New("test", "test"))

	_, err := svc.CreateItem(context.Background(), NewItemInput{
		Name:           "Feed A",
		Category:       repository.CategoryFeed,
		Unit:           "kg",
		InitialBalance: decimal.NewFromInt(-10),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidQuantity)
}
