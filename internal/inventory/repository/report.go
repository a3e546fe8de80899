package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/pkg/database"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/farm"
)

// ConsumptionReport is a persisted analytics run over a period. ItemID
// and CategoryFilter record which slice of the ledger it covers; both
// nil means the whole inventory.
type ConsumptionReport struct {
	ID             string          `db:"id" json:"id"`
	FarmID         string          `db:"farm_id" json:"farm_id"`
	ItemID         *string         `db:"item_id" json:"item_id,omitempty"`
	CategoryFilter *ItemCategory   `db:"category_filter" json:"category_filter,omitempty"`
	PeriodStart    time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd      time.Time       `db:"period_end" json:"period_end"`
	TotalConsumed  decimal.Decimal `db:"total_consumed" json:"total_consumed"`
	AvgDaily       decimal.Decimal `db:"avg_daily" json:"avg_daily"`
	Trend          Trend           `db:"trend" json:"trend"`
	GeneratedBy    *string         `db:"generated_by" json:"generated_by,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

const reportColumns = `
	id, farm_id, item_id, category_filter, period_start, period_end,
	total_consumed, avg_daily, trend, generated_by, created_at`

// ReportRepository persists consumption reports
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a report
func (r *ReportRepository) Create(ctx context.Context, report *ConsumptionReport) error {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return err
	}

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	report.FarmID = farmID

	query := `
		INSERT INTO consumption_reports (
			id, farm_id, item_id, category_filter, period_start, period_end,
			total_consumed, avg_daily, trend, generated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		report.ID, report.FarmID, report.ItemID, report.CategoryFilter,
		report.PeriodStart, report.PeriodEnd, report.TotalConsumed,
		report.AvgDaily, report.Trend, report.GeneratedBy,
	).Scan(&report.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*ConsumptionReport, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	var report ConsumptionReport
	query := `SELECT ` + reportColumns + ` FROM consumption_reports WHERE id = $1 AND farm_id = $2`
	err = r.db.GetContext(ctx, &report, query, id, farmID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("report")
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByItem lists reports for one item, newest first
func (r *ReportRepository) ListByItem(ctx context.Context, itemID string, limit int) ([]*ConsumptionReport, error) {
	farmID, err := farm.FarmID(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}

	var reports []*ConsumptionReport
	query := `
		SELECT ` + reportColumns + ` FROM consumption_reports
		WHERE farm_id = $1 AND item_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	if err := r.db.SelectContext(ctx, &reports, query, farmID, itemID, limit); err != nil {
		return nil, err
	}
	return reports, nil
}
