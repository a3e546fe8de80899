package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/database"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/farm"
	"github.com/sistema-granja/granja-backend/pkg/logger"
	"github.com/sistema-granja/granja-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemColumns() []string {
	return []string{
		"id", "farm_id", "internal_code", "name", "description", "category", "unit",
		"current_balance", "minimum_balance", "expiry_date", "storage_notes",
		"is_active", "created_by", "created_at", "updated_at",
	}
}

func TestItemRepository_GetByID_Unit(t *testing.T) {
	unit := testutil.NewUnitTestSuite(t)
	defer unit.Cleanup()
	mockDB := unit.MockDB

	repo := repository.NewItemRepository(database.NewFromSqlx(mockDB.DB, logger.New("test", "test")))

	farmID := uuid.New().String()
	itemID := uuid.New().String()
	ctx := farm.WithFarmID(context.Background(), farmID)

	now := time.Now()
	rows := testutil.MockRows(itemColumns()...).AddRow(
		itemID, farmID, "FEE0001", "Starter Feed", nil, "feed", "kg",
		"100", "20", nil, nil, true, nil, now, now,
	)

	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM inventory_items WHERE id = \$1 AND farm_id = \$2`).
		WithArgs(itemID, farmID).
		WillReturnRows(rows)

	item, err := repo.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, "Starter Feed", item.Name)
	assert.Equal(t, repository.CategoryFeed, item.Category)
	testutil.AssertDecimalEqual(t, decimal.NewFromInt(100), item.CurrentBalance)
}

func TestItemRepository_GetByID_NotFound_Unit(t *testing.T) {
	unit := testutil.NewUnitTestSuite(t)
	defer unit.Cleanup()
	mockDB := unit.MockDB

	repo := repository.NewItemRepository(database.NewFromSqlx(mockDB.DB, logger.New("test", "test")))

	farmID := uuid.New().String()
	ctx := farm.WithFarmID(context.Background(), farmID)

	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM inventory_items WHERE id = \$1 AND farm_id = \$2`).
		WithArgs(testutil.AnyUUID{}, farmID).
		WillReturnRows(testutil.MockRows(itemColumns()...))

	_, err := repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestItemRepository_RequiresFarmContext(t *testing.T) {
	unit := testutil.NewUnitTestSuite(t)
	defer unit.Cleanup()

	repo := repository.NewItemRepository(database.NewFromSqlx(unit.MockDB.DB, logger.New("test", "test")))

	// No farm in context: no query must ever reach the database
	_, err := repo.GetByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, farm.ErrNoFarmInContext)

	_, err = repo.List(context.Background(), repository.ItemFilter{})
	assert.ErrorIs(t, err, farm.ErrNoFarmInContext)
}

func TestItem_DaysUntilExpiry_CalendarDays(t *testing.T) {
	// Late in the day, an expiry a week out must still read 7
	now := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	expiry := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)

	item := &repository.Item{ExpiryDate: &expiry}
	days, ok := item.DaysUntilExpiry(now)
	require.True(t, ok)
	assert.Equal(t, 7, days)

	sameDay := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	item.ExpiryDate = &sameDay
	days, ok = item.DaysUntilExpiry(now)
	require.True(t, ok)
	assert.Equal(t, 0, days)

	expired := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	item.ExpiryDate = &expired
	days, ok = item.DaysUntilExpiry(now)
	require.True(t, ok)
	assert.Equal(t, -2, days)

	item.ExpiryDate = nil
	_, ok = item.DaysUntilExpiry(now)
	assert.False(t, ok)
}
