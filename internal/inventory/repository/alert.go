package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sistema-granja/granja-backend/pkg/database"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/farm"
)

// Alert is an active or resolved stock condition for one item.
// A partial unique index keeps at most one active alert per
// (item_id, kind); re-evaluation relies on that for idempotency.
type Alert struct {
	ID         string        `db:"id" json:"id"`
	FarmID     string        `db:"farm_id" json:"farm_id"`
	ItemID     string        `db:"item_id" json:"item_id"`
	Kind       AlertKind     `db:"kind" json:"kind"`
	Severity   AlertSeverity `db:"severity" json:"severity"`
	Message    string        `db:"message" json:"message"`
	IsActive   bool          `db:"is_active" json:"is_active"`
	ResolvedBy *string       `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// AlertFilter narrows List results
type AlertFilter struct {
	ItemID       string
	Kind         AlertKind
	Severity     AlertSeverity
	ActiveOnly   bool
	IncludeItems bool
}

const alertColumns = `
	id, farm_id, item_id, kind, severity, message,
	is_active, resolved_by, resolved_at, created_at, updated_at`

// AlertRepository handles alert persistence
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create creates a new alert. Violating the one-active-per-kind index
// surfaces as a conflict.
func (r *AlertRepository) Create(ctx context.Context, alert *Alert) error {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return err
	}

	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	alert.FarmID = farmID
	alert.IsActive = true

	query := `
		INSERT INTO inventory_alerts (
			id, farm_id, item_id, kind, severity, message, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.FarmID, alert.ItemID, alert.Kind,
		alert.Severity, alert.Message, alert.IsActive,
	).Scan(&alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*Alert, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	var alert Alert
	query := `SELECT ` + alertColumns + ` FROM inventory_alerts WHERE id = $1 AND farm_id = $2`
	err = r.db.GetContext(ctx, &alert, query, id, farmID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("alert")
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// GetActiveByItem returns the active alerts for one item, if any
func (r *AlertRepository) GetActiveByItem(ctx context.Context, itemID string) ([]*Alert, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	var alerts []*Alert
	query := `
		SELECT ` + alertColumns + ` FROM inventory_alerts
		WHERE farm_id = $1 AND item_id = $2 AND is_active = true
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &alerts, query, farmID, itemID); err != nil {
		return nil, err
	}
	return alerts, nil
}

// List lists alerts, newest first
func (r *AlertRepository) List(ctx context.Context, filter AlertFilter) ([]*Alert, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + alertColumns + ` FROM inventory_alerts WHERE farm_id = $1`
	args := []interface{}{farmID}

	if filter.ActiveOnly {
		query += ` AND is_active = true`
	}
	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		query += fmt.Sprintf(` AND item_id = $%d`, len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		query += fmt.Sprintf(` AND severity = $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`

	var alerts []*Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Resolve marks one alert inactive
func (r *AlertRepository) Resolve(ctx context.Context, id string, resolvedBy *string) error {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE inventory_alerts
		SET is_active = false, resolved_by = $3, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND farm_id = $2 AND is_active = true
	`
	result, err := r.db.ExecContext(ctx, query, id, farmID, resolvedBy)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("active alert")
	}
	return nil
}

// ResolveByItemKind resolves the active alert of a kind for an item,
// if one exists. Resolving nothing is not an error; the engine calls
// this unconditionally when a condition clears.
func (r *AlertRepository) ResolveByItemKind(ctx context.Context, itemID string, kind AlertKind) (*Alert, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE inventory_alerts
		SET is_active = false, resolved_at = NOW(), updated_at = NOW()
		WHERE farm_id = $1 AND item_id = $2 AND kind = $3 AND is_active = true
		RETURNING ` + alertColumns

	var alert Alert
	err = r.db.GetContext(ctx, &alert, query, farmID, itemID, kind)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// CountActive counts active alerts, optionally by severity
func (r *AlertRepository) CountActive(ctx context.Context, severity AlertSeverity) (int64, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM inventory_alerts WHERE farm_id = $1 AND is_active = true`
	args := []interface{}{farmID}

	if severity != "" {
		args = append(args, severity)
		query += fmt.Sprintf(` AND severity = $%d`, len(args))
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
