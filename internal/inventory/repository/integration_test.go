package repository_test

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()

	if !testing.Short() {
		ctx := context.Background()
		var err error
		suite, err = testutil.NewIntegrationSuite(ctx)
		if err != nil {
			panic("failed to create integration suite: " + err.Error())
		}
	}

	code := m.Run()
	testutil.TerminateContainer(context.Background())
	os.Exit(code)
}

func newTestItem(opts ...testutil.ItemOption) *repository.Item {
	return suite.Fixtures.Item(opts...)
}

func TestItemRepository_CreateAndGet(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	repo := repository.NewItemRepository(suite.DB)
	item := newTestItem()
	require.NoError(t, repo.Create(ctx, item))

	require.NotEmpty(t, item.ID)
	require.False(t, item.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, item.InternalCode, got.InternalCode)
	testutil.AssertDecimalEqual(t, decimal.NewFromInt(100), got.CurrentBalance)
	assert.True(t, got.IsActive)
}

func TestItemRepository_GetMissing(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	repo := repository.NewItemRepository(suite.DB)
	_, err := repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestItemRepository_FarmsAreIsolated(t *testing.T) {
	testutil.SkipIfShort(t)

	repo := repository.NewItemRepository(suite.DB)

	farmA := suite.FarmContext(t)
	farmB := suite.FarmContext(t)

	item := newTestItem()
	require.NoError(t, repo.Create(farmA, item))

	_, err := repo.GetByID(farmB, item.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	got, err := repo.GetByID(farmA, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
}

func TestItemRepository_DuplicateInternalCode(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	repo := repository.NewItemRepository(suite.DB)

	first := newTestItem(testutil.WithInternalCode("FEE0001"))
	require.NoError(t, repo.Create(ctx, first))

	second := newTestItem(testutil.WithInternalCode("FEE0001"))
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestItemRepository_List(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	repo := repository.NewItemRepository(suite.DB)

	healthy := newTestItem(testutil.WithItemName("Healthy Feed"))
	require.NoError(t, repo.Create(ctx, healthy))

	low := newTestItem(
		testutil.WithItemName("Low Vaccine"),
		testutil.WithCategory(repository.CategoryVaccine),
		testutil.WithInternalCode("VAC0001"),
		testutil.WithBalance(5, 20),
	)
	require.NoError(t, repo.Create(ctx, low))

	inactive := newTestItem(
		testutil.WithItemName("Retired Feed"),
		testutil.WithInternalCode("FEE9999"),
		testutil.WithInactive(),
	)
	require.NoError(t, repo.Create(ctx, inactive))

	all, err := repo.List(ctx, repository.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2) // inactive excluded by default

	withInactive, err := repo.List(ctx, repository.ItemFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive, 3)

	vaccines, err := repo.List(ctx, repository.ItemFilter{Category: repository.CategoryVaccine})
	require.NoError(t, err)
	require.Len(t, vaccines, 1)
	assert.Equal(t, "Low Vaccine", vaccines[0].Name)

	belowMin, err := repo.List(ctx, repository.ItemFilter{BelowMinimum: true})
	require.NoError(t, err)
	require.Len(t, belowMin, 1)
	assert.Equal(t, "Low Vaccine", belowMin[0].Name)

	bySearch, err := repo.List(ctx, repository.ItemFilter{Search: "healthy"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Healthy Feed", bySearch[0].Name)
}

func TestItemRepository_List_ExpiryFilterAndOrder(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	repo := repository.NewItemRepository(suite.DB)

	soon := newTestItem(
		testutil.WithItemName("Expiring Soon"),
		testutil.WithExpiry(time.Now().AddDate(0, 0, 5)),
	)
	require.NoError(t, repo.Create(ctx, soon))

	later := newTestItem(
		testutil.WithItemName("Expiring Later"),
		testutil.WithExpiry(time.Now().AddDate(0, 0, 60)),
	)
	require.NoError(t, repo.Create(ctx, later))

	noExpiry := newTestItem(testutil.WithItemName("No Expiry"))
	require.NoError(t, repo.Create(ctx, noExpiry))

	expiring, err := repo.List(ctx, repository.ItemFilter{ExpiringWithinDays: 30})
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "Expiring Soon", expiring[0].Name)

	byExpiry, err := repo.List(ctx, repository.ItemFilter{OrderBy: "expiry"})
	require.NoError(t, err)
	require.Len(t, byExpiry, 3)
	assert.Equal(t, "Expiring Soon", byExpiry[0].Name)
	assert.Equal(t, "Expiring Later", byExpiry[1].Name)
	assert.Equal(t, "No Expiry", byExpiry[2].Name) // NULLS LAST

	count, err := repo.CountExpiringWithin(ctx, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestItemRepository_UpdateMetadata(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	repo := repository.NewItemRepository(suite.DB)
	item := newTestItem()
	require.NoError(t, repo.Create(ctx, item))

	newName := "Grower Feed"
	newMin := decimal.NewFromInt(35)
	updated, err := repo.UpdateMetadata(ctx, item.ID, repository.ItemUpdate{
		Name:           &newName,
		MinimumBalance: &newMin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grower Feed", updated.Name)
	testutil.AssertDecimalEqual(t, newMin, updated.MinimumBalance)
	// Balance untouched
	testutil.AssertDecimalEqual(t, item.CurrentBalance, updated.CurrentBalance)
}

func TestItemRepository_UpdateBalanceGuard(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	repo := repository.NewItemRepository(suite.DB)
	item := newTestItem()
	require.NoError(t, repo.Create(ctx, item))

	tx, err := suite.DB.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	// Stale expected balance must not write
	err = repo.UpdateBalance(ctx, tx, item.ID, decimal.NewFromInt(55), decimal.NewFromInt(70))
	assert.ErrorIs(t, err, errors.ErrConcurrentModification)

	err = repo.UpdateBalance(ctx, tx, item.ID, decimal.NewFromInt(100), decimal.NewFromInt(70))
	require.NoError(t, err)
}

func TestMovementRepository_AppendAndSum(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	itemRepo := repository.NewItemRepository(suite.DB)
	movementRepo := repository.NewMovementRepository(suite.DB)

	item := newTestItem()
	require.NoError(t, itemRepo.Create(ctx, item))

	now := time.Now()
	appendMovement := func(kind repository.MovementKind, qty, before, after int64, daysAgo int) {
		t.Helper()
		err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
			return movementRepo.Create(ctx, tx, &repository.Movement{
				ItemID:        item.ID,
				Kind:          kind,
				Quantity:      decimal.NewFromInt(qty),
				BalanceBefore: decimal.NewFromInt(before),
				BalanceAfter:  decimal.NewFromInt(after),
				OccurredAt:    now.AddDate(0, 0, -daysAgo),
			})
		})
		require.NoError(t, err)
	}

	appendMovement(repository.MovementEntryPurchase, 50, 100, 150, 9)
	appendMovement(repository.MovementUsageConsumption, 30, 150, 120, 5)
	appendMovement(repository.MovementUsageLoss, 20, 120, 100, 1)

	movements, err := movementRepo.List(ctx, repository.MovementFilter{ItemID: item.ID})
	require.NoError(t, err)
	require.Len(t, movements, 3)
	// Newest first
	assert.Equal(t, repository.MovementUsageLoss, movements[0].Kind)

	usage, err := movementRepo.SumUsage(ctx, repository.ConsumptionFilter{ItemID: item.ID}, now.AddDate(0, 0, -10), now)
	require.NoError(t, err)
	testutil.AssertDecimalEqual(t, decimal.NewFromInt(50), usage)

	// Entries are not usage
	recentUsage, err := movementRepo.SumUsage(ctx, repository.ConsumptionFilter{ItemID: item.ID}, now.AddDate(0, 0, -2), now)
	require.NoError(t, err)
	testutil.AssertDecimalEqual(t, decimal.NewFromInt(20), recentUsage)

	count, err := movementRepo.CountSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestMovementRepository_NegativeBalanceRejected(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	itemRepo := repository.NewItemRepository(suite.DB)
	movementRepo := repository.NewMovementRepository(suite.DB)

	item := newTestItem()
	require.NoError(t, itemRepo.Create(ctx, item))

	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return movementRepo.Create(ctx, tx, &repository.Movement{
			ItemID:        item.ID,
			Kind:          repository.MovementUsageConsumption,
			Quantity:      decimal.NewFromInt(200),
			BalanceBefore: decimal.NewFromInt(100),
			BalanceAfter:  decimal.NewFromInt(-100),
			OccurredAt:    time.Now(),
		})
	})
	assert.ErrorIs(t, err, errors.ErrInsufficientStock)
}

func TestAlertRepository_OneActivePerKind(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	itemRepo := repository.NewItemRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)

	item := newTestItem()
	require.NoError(t, itemRepo.Create(ctx, item))

	first := &repository.Alert{
		ItemID:   item.ID,
		Kind:     repository.AlertLowStock,
		Severity: repository.SeverityWarning,
		Message:  "low",
	}
	require.NoError(t, alertRepo.Create(ctx, first))

	duplicate := &repository.Alert{
		ItemID:   item.ID,
		Kind:     repository.AlertLowStock,
		Severity: repository.SeverityWarning,
		Message:  "low again",
	}
	err := alertRepo.Create(ctx, duplicate)
	assert.ErrorIs(t, err, errors.ErrConflict)

	// A different kind is fine
	other := &repository.Alert{
		ItemID:   item.ID,
		Kind:     repository.AlertExpiringSoon,
		Severity: repository.SeverityCritical,
		Message:  "expiring",
	}
	require.NoError(t, alertRepo.Create(ctx, other))

	// Resolving frees the slot
	resolved, err := alertRepo.ResolveByItemKind(ctx, item.ID, repository.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.False(t, resolved.IsActive)
	require.NotNil(t, resolved.ResolvedAt)

	require.NoError(t, alertRepo.Create(ctx, duplicate))
}

func TestAlertRepository_ResolveMissingIsNoop(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	itemRepo := repository.NewItemRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)

	item := newTestItem()
	require.NoError(t, itemRepo.Create(ctx, item))

	resolved, err := alertRepo.ResolveByItemKind(ctx, item.ID, repository.AlertStockOut)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestReportRepository_CreateAndList(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := suite.FarmContext(t)

	itemRepo := repository.NewItemRepository(suite.DB)
	reportRepo := repository.NewReportRepository(suite.DB)

	item := newTestItem()
	require.NoError(t, itemRepo.Create(ctx, item))

	now := time.Now()
	report := &repository.ConsumptionReport{
		ItemID:        &item.ID,
		PeriodStart:   now.AddDate(0, 0, -9),
		PeriodEnd:     now,
		TotalConsumed: decimal.NewFromInt(150),
		AvgDaily:      decimal.NewFromInt(15),
		Trend:         repository.TrendGrowing,
	}
	require.NoError(t, reportRepo.Create(ctx, report))

	reports, err := reportRepo.ListByItem(ctx, item.ID, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, repository.TrendGrowing, reports[0].Trend)
	testutil.AssertDecimalEqual(t, decimal.NewFromInt(150), reports[0].TotalConsumed)
}
