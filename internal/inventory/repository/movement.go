package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/pkg/database"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/farm"
)

// Movement is one immutable ledger entry. BalanceBefore and
// BalanceAfter snapshot the item balance around the movement so the
// ledger can be audited without replaying it.
type Movement struct {
	ID            string           `db:"id" json:"id"`
	FarmID        string           `db:"farm_id" json:"farm_id"`
	ItemID        string           `db:"item_id" json:"item_id"`
	Kind          MovementKind     `db:"kind" json:"kind"`
	Quantity      decimal.Decimal  `db:"quantity" json:"quantity"`
	BalanceBefore decimal.Decimal  `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal  `db:"balance_after" json:"balance_after"`
	UnitCost      *decimal.Decimal `db:"unit_cost" json:"unit_cost,omitempty"`
	Reason        *string          `db:"reason" json:"reason,omitempty"`
	BatchNumber   *string          `db:"batch_number" json:"batch_number,omitempty"`
	Supplier      *string          `db:"supplier" json:"supplier,omitempty"`
	InvoiceNumber *string          `db:"invoice_number" json:"invoice_number,omitempty"`
	PerformedBy   *string          `db:"performed_by" json:"performed_by,omitempty"`
	OccurredAt    time.Time        `db:"occurred_at" json:"occurred_at"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// MovementFilter narrows List results
type MovementFilter struct {
	ItemID string
	Kind   MovementKind
	From   time.Time
	To     time.Time
	Limit  int
}

// ItemConsumption is a per-item usage total over a period
type ItemConsumption struct {
	ItemID        string          `db:"item_id" json:"item_id"`
	ItemName      string          `db:"item_name" json:"item_name"`
	Unit          string          `db:"unit" json:"unit"`
	TotalConsumed decimal.Decimal `db:"total_consumed" json:"total_consumed"`
}

const movementColumns = `
	id, farm_id, item_id, kind, quantity, balance_before, balance_after,
	unit_cost, reason, batch_number, supplier, invoice_number,
	performed_by, occurred_at, created_at`

// MovementRepository handles ledger persistence. There is no Update or
// Delete; the ledger is append-only.
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create appends a movement inside tx, alongside the balance write it records.
func (r *MovementRepository) Create(ctx context.Context, tx *sqlx.Tx, m *Movement) error {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return err
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.FarmID = farmID

	query := `
		INSERT INTO inventory_movements (
			id, farm_id, item_id, kind, quantity, balance_before, balance_after,
			unit_cost, reason, batch_number, supplier, invoice_number,
			performed_by, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`

	err = tx.QueryRowxContext(ctx, query,
		m.ID, m.FarmID, m.ItemID, m.Kind, m.Quantity, m.BalanceBefore,
		m.BalanceAfter, m.UnitCost, m.Reason, m.BatchNumber, m.Supplier,
		m.InvoiceNumber, m.PerformedBy, m.OccurredAt,
	).Scan(&m.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a movement by ID
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*Movement, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	var m Movement
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1 AND farm_id = $2`
	err = r.db.GetContext(ctx, &m, query, id, farmID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("movement")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List lists movements newest first
func (r *MovementRepository) List(ctx context.Context, filter MovementFilter) ([]*Movement, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE farm_id = $1`
	args := []interface{}{farmID}

	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		query += fmt.Sprintf(` AND item_id = $%d`, len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(` AND occurred_at >= $%d`, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(` AND occurred_at <= $%d`, len(args))
	}

	query += ` ORDER BY occurred_at DESC, created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	var movements []*Movement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, err
	}
	return movements, nil
}

// ConsumptionFilter narrows a usage total to one item or one category.
// Empty means the whole inventory.
type ConsumptionFilter struct {
	ItemID   string
	Category ItemCategory
}

// SumUsage totals usage quantities matching the filter over [from, to].
// Returns zero when nothing matched in the period.
func (r *MovementRepository) SumUsage(ctx context.Context, filter ConsumptionFilter, from, to time.Time) (decimal.Decimal, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	query := `
		SELECT COALESCE(SUM(m.quantity), 0) FROM inventory_movements m
		WHERE m.farm_id = $1
		  AND m.kind IN ('usage_consumption', 'usage_loss')
		  AND m.occurred_at >= $2 AND m.occurred_at <= $3`
	args := []interface{}{farmID, from, to}

	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		query += fmt.Sprintf(` AND m.item_id = $%d`, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(
			` AND m.item_id IN (SELECT id FROM inventory_items WHERE farm_id = $1 AND category = $%d)`,
			len(args))
	}

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// TopConsumed returns the items with the largest usage totals in the period
func (r *MovementRepository) TopConsumed(ctx context.Context, from, to time.Time, limit int) ([]*ItemConsumption, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT m.item_id, i.name AS item_name, i.unit, SUM(m.quantity) AS total_consumed
		FROM inventory_movements m
		JOIN inventory_items i ON i.id = m.item_id
		WHERE m.farm_id = $1
		  AND m.kind IN ('usage_consumption', 'usage_loss')
		  AND m.occurred_at >= $2 AND m.occurred_at <= $3
		GROUP BY m.item_id, i.name, i.unit
		ORDER BY total_consumed DESC
		LIMIT $4
	`

	var rows []*ItemConsumption
	if err := r.db.SelectContext(ctx, &rows, query, farmID, from, to, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountSince counts movements recorded since the given time
func (r *MovementRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	query := `SELECT COUNT(*) FROM inventory_movements WHERE farm_id = $1 AND occurred_at >= $2`
	if err := r.db.GetContext(ctx, &count, query, farmID, since); err != nil {
		return 0, err
	}
	return count, nil
}
