package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/pkg/database"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/farm"
)

// Item represents a trackable supply with a running balance.
// CurrentBalance is a cache of the ledger; it is only ever written
// together with a Movement inside the same transaction.
type Item struct {
	ID             string          `db:"id" json:"id"`
	FarmID         string          `db:"farm_id" json:"farm_id"`
	InternalCode   string          `db:"internal_code" json:"internal_code"`
	Name           string          `db:"name" json:"name"`
	Description    *string         `db:"description" json:"description,omitempty"`
	Category       ItemCategory    `db:"category" json:"category"`
	Unit           string          `db:"unit" json:"unit"`
	CurrentBalance decimal.Decimal `db:"current_balance" json:"current_balance"`
	MinimumBalance decimal.Decimal `db:"minimum_balance" json:"minimum_balance"`
	ExpiryDate     *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	StorageNotes   *string         `db:"storage_notes" json:"storage_notes,omitempty"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedBy      *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// BelowMinimum reports whether the item needs reordering
func (i *Item) BelowMinimum() bool {
	return i.CurrentBalance.LessThanOrEqual(i.MinimumBalance)
}

// DaysUntilExpiry returns the calendar days until the expiry date, or
// false if the item has no expiry. Dates are compared, not clock
// durations, so the count does not shrink during the day.
func (i *Item) DaysUntilExpiry(now time.Time) (int, bool) {
	if i.ExpiryDate == nil {
		return 0, false
	}
	days := int(midnightUTC(*i.ExpiryDate).Sub(midnightUTC(now)).Hours() / 24)
	return days, true
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ItemUpdate carries the metadata fields a caller may change.
// Nil pointers leave the field untouched. Balance is deliberately
// absent; it moves only through the ledger.
type ItemUpdate struct {
	Name           *string
	Description    *string
	Category       *ItemCategory
	Unit           *string
	MinimumBalance *decimal.Decimal
	ExpiryDate     *time.Time
	ClearExpiry    bool
	StorageNotes   *string
}

// ItemFilter narrows List results
type ItemFilter struct {
	Category           ItemCategory
	Search             string
	BelowMinimum       bool
	ExpiringWithinDays int
	IncludeInactive    bool
	OrderBy            string // name | balance | expiry
}

const itemColumns = `
	id, farm_id, internal_code, name, description, category, unit,
	current_balance, minimum_balance, expiry_date, storage_notes,
	is_active, created_by, created_at, updated_at`

// ItemRepository handles item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *Item) error {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.FarmID = farmID

	query := `
		INSERT INTO inventory_items (
			id, farm_id, internal_code, name, description, category, unit,
			current_balance, minimum_balance, expiry_date, storage_notes,
			is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		item.ID, item.FarmID, item.InternalCode, item.Name, item.Description,
		item.Category, item.Unit, item.CurrentBalance, item.MinimumBalance,
		item.ExpiryDate, item.StorageNotes, item.IsActive, item.CreatedBy,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*Item, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	var item Item
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 AND farm_id = $2`
	err = r.db.GetContext(ctx, &item, query, id, farmID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("item")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDForUpdate loads an item inside tx holding a row lock until commit.
// The balance engine uses this to serialize movements per item.
func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*Item, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	var item Item
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 AND farm_id = $2 FOR UPDATE`
	err = tx.GetContext(ctx, &item, query, id, farmID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("item")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateBalance writes the cached balance inside tx. The expected
// balance guards against a write on a row someone else changed between
// read and write; with FOR UPDATE held that should not happen, and a
// zero-row update is reported as a conflict for the caller to retry.
func (r *ItemRepository) UpdateBalance(ctx context.Context, tx *sqlx.Tx, id string, expected, next decimal.Decimal) error {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE inventory_items
		SET current_balance = $3, updated_at = NOW()
		WHERE id = $1 AND farm_id = $2 AND current_balance = $4
	`
	result, err := tx.ExecContext(ctx, query, id, farmID, next, expected)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.ConcurrentModification("item")
	}
	return nil
}

// List lists items matching the filter
func (r *ItemRepository) List(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE farm_id = $1`
	args := []interface{}{farmID}

	if !filter.IncludeInactive {
		query += ` AND is_active = true`
	}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (name ILIKE $%d OR internal_code ILIKE $%d)`, n, n)
	}

	if filter.BelowMinimum {
		query += ` AND current_balance <= minimum_balance`
	}

	if filter.ExpiringWithinDays > 0 {
		args = append(args, filter.ExpiringWithinDays)
		query += fmt.Sprintf(
			` AND expiry_date IS NOT NULL AND expiry_date >= CURRENT_DATE AND expiry_date <= CURRENT_DATE + $%d * INTERVAL '1 day'`,
			len(args))
	}

	switch filter.OrderBy {
	case "balance":
		query += ` ORDER BY current_balance`
	case "expiry":
		query += ` ORDER BY expiry_date NULLS LAST`
	default:
		query += ` ORDER BY name`
	}

	var items []*Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// GetAllActive gets all active items
func (r *ItemRepository) GetAllActive(ctx context.Context) ([]*Item, error) {
	return r.List(ctx, ItemFilter{})
}

// UpdateMetadata applies an explicit update record. Unknown fields
// cannot reach storage because there is nowhere to put them.
func (r *ItemRepository) UpdateMetadata(ctx context.Context, id string, upd ItemUpdate) (*Item, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, farmID}

	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Unit != nil {
		add("unit", *upd.Unit)
	}
	if upd.MinimumBalance != nil {
		add("minimum_balance", *upd.MinimumBalance)
	}
	if upd.ClearExpiry {
		sets = append(sets, "expiry_date = NULL")
	} else if upd.ExpiryDate != nil {
		add("expiry_date", *upd.ExpiryDate)
	}
	if upd.StorageNotes != nil {
		add("storage_notes", *upd.StorageNotes)
	}

	query := `UPDATE inventory_items SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND farm_id = $2 RETURNING ` + itemColumns

	var item Item
	err = r.db.GetContext(ctx, &item, query, args...)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("item")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &item, nil
}

// SetActive toggles the soft-delete flag
func (r *ItemRepository) SetActive(ctx context.Context, id string, active bool) error {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return err
	}

	query := `UPDATE inventory_items SET is_active = $3, updated_at = NOW() WHERE id = $1 AND farm_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, farmID, active)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}
	return nil
}

// CountByCategory counts items of a category in the farm, including
// inactive ones, so generated internal codes never collide with codes
// of deactivated items.
func (r *ItemRepository) CountByCategory(ctx context.Context, category ItemCategory) (int64, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	query := `SELECT COUNT(*) FROM inventory_items WHERE farm_id = $1 AND category = $2`
	if err := r.db.GetContext(ctx, &count, query, farmID, category); err != nil {
		return 0, err
	}
	return count, nil
}

// CountBelowMinimum counts active items at or under their reorder threshold
func (r *ItemRepository) CountBelowMinimum(ctx context.Context) (int64, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	query := `
		SELECT COUNT(*) FROM inventory_items
		WHERE farm_id = $1 AND is_active = true AND current_balance <= minimum_balance
	`
	if err := r.db.GetContext(ctx, &count, query, farmID); err != nil {
		return 0, err
	}
	return count, nil
}

// CountStockedOut counts active items with no balance left
func (r *ItemRepository) CountStockedOut(ctx context.Context) (int64, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	query := `
		SELECT COUNT(*) FROM inventory_items
		WHERE farm_id = $1 AND is_active = true AND current_balance <= 0
	`
	if err := r.db.GetContext(ctx, &count, query, farmID); err != nil {
		return 0, err
	}
	return count, nil
}

// CountExpiringWithin counts active items whose expiry falls inside the window
func (r *ItemRepository) CountExpiringWithin(ctx context.Context, days int) (int64, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	query := `
		SELECT COUNT(*) FROM inventory_items
		WHERE farm_id = $1 AND is_active = true
		  AND expiry_date IS NOT NULL
		  AND expiry_date >= CURRENT_DATE
		  AND expiry_date <= CURRENT_DATE + $2 * INTERVAL '1 day'
	`
	if err := r.db.GetContext(ctx, &count, query, farmID, days); err != nil {
		return 0, err
	}
	return count, nil
}

// DistinctFarmIDs returns every farm that owns at least one active item.
// The sweep scheduler iterates over these.
func (r *ItemRepository) DistinctFarmIDs(ctx context.Context) ([]string, error) {
	var farmIDs []string
	query := `SELECT DISTINCT farm_id FROM inventory_items WHERE is_active = true`
	if err := r.db.SelectContext(ctx, &farmIDs, query); err != nil {
		return nil, err
	}
	return farmIDs, nil
}
