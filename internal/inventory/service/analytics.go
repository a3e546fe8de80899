package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/internal/inventory/events"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/logger"
)

const (
	// coverageHorizonDays is the usage window behind days-of-coverage
	coverageHorizonDays = 30

	// coverageUnlimited is reported when an item sees no usage at all,
	// instead of dividing by zero.
	coverageUnlimited = 999

	coverageCriticalDays = 7
	coverageWarningDays  = 30
)

var (
	trendGrowthFactor  = decimal.RequireFromString("1.1")
	trendDeclineFactor = decimal.RequireFromString("0.9")
)

// AnalyticsService derives consumption figures from the ledger
type AnalyticsService struct {
	itemRepo     *repository.ItemRepository
	movementRepo *repository.MovementRepository
	reportRepo   *repository.ReportRepository
	notifier     *events.Notifier
	logger       *logger.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	itemRepo *repository.ItemRepository,
	movementRepo *repository.MovementRepository,
	reportRepo *repository.ReportRepository,
	notifier *events.Notifier,
	log *logger.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		reportRepo:   reportRepo,
		notifier:     notifier,
		logger:       log,
	}
}

// PeriodDays counts the days in an inclusive period
func PeriodDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// ClassifyTrend compares the usage of two period halves. Movement
// within 10% either way counts as stable.
func ClassifyTrend(firstHalf, secondHalf decimal.Decimal) repository.Trend {
	switch {
	case secondHalf.GreaterThan(firstHalf.Mul(trendGrowthFactor)):
		return repository.TrendGrowing
	case secondHalf.LessThan(firstHalf.Mul(trendDeclineFactor)):
		return repository.TrendFalling
	default:
		return repository.TrendStable
	}
}

// DaysOfCoverage estimates how long the balance lasts at the average
// daily usage. A zero average yields the unlimited sentinel.
func DaysOfCoverage(balance, avgDaily decimal.Decimal) decimal.Decimal {
	if !avgDaily.IsPositive() {
		return decimal.NewFromInt(coverageUnlimited)
	}
	return balance.Div(avgDaily).Round(1)
}

// ClassifyCoverage maps days of coverage to a status. The unlimited
// sentinel means no usage, which is fine, not critical.
func ClassifyCoverage(days decimal.Decimal) repository.CoverageStatus {
	switch {
	case days.Equal(decimal.NewFromInt(coverageUnlimited)):
		return repository.CoverageOK
	case days.LessThan(decimal.NewFromInt(coverageCriticalDays)):
		return repository.CoverageCritical
	case days.LessThan(decimal.NewFromInt(coverageWarningDays)):
		return repository.CoverageWarning
	default:
		return repository.CoverageOK
	}
}

// ReportFilter narrows a consumption report to one item or one
// category. The zero value covers the whole inventory.
type ReportFilter struct {
	ItemID   string
	Category repository.ItemCategory
}

// GenerateConsumptionReport totals usage matching the filter over an
// inclusive period, classifies the trend by comparing the period
// halves, and persists the result along with the filter it ran under.
func (s *AnalyticsService) GenerateConsumptionReport(ctx context.Context, filter ReportFilter, start, end time.Time, generatedBy *string) (*repository.ConsumptionReport, error) {
	if end.Before(start) {
		return nil, errors.BadRequest("period end must not be before period start")
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, errors.BadRequest("unknown item category: " + string(filter.Category))
	}

	if filter.ItemID != "" {
		if _, err := s.itemRepo.GetByID(ctx, filter.ItemID); err != nil {
			return nil, err
		}
	}

	usage := repository.ConsumptionFilter{ItemID: filter.ItemID, Category: filter.Category}
	total, err := s.movementRepo.SumUsage(ctx, usage, start, end)
	if err != nil {
		return nil, err
	}

	days := PeriodDays(start, end)
	avgDaily := total.Div(decimal.NewFromInt(int64(days))).Round(4)

	mid := start.AddDate(0, 0, days/2)
	firstHalf, err := s.movementRepo.SumUsage(ctx, usage, start, mid.Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}
	secondHalf, err := s.movementRepo.SumUsage(ctx, usage, mid, end)
	if err != nil {
		return nil, err
	}

	report := &repository.ConsumptionReport{
		PeriodStart:   start,
		PeriodEnd:     end,
		TotalConsumed: total,
		AvgDaily:      avgDaily,
		Trend:         ClassifyTrend(firstHalf, secondHalf),
		GeneratedBy:   generatedBy,
	}
	if filter.ItemID != "" {
		report.ItemID = &filter.ItemID
	}
	if filter.Category != "" {
		category := filter.Category
		report.CategoryFilter = &category
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Str("item_id", filter.ItemID).
		Str("category_filter", string(filter.Category)).
		Str("total_consumed", total.String()).
		Str("trend", string(report.Trend)).
		Msg("consumption report generated")

	s.notifier.ReportGenerated(ctx, report)

	return report, nil
}

// ListReports lists persisted reports for one item
func (s *AnalyticsService) ListReports(ctx context.Context, itemID string, limit int) ([]*repository.ConsumptionReport, error) {
	return s.reportRepo.ListByItem(ctx, itemID, limit)
}

// ItemCoverage is one row of a coverage report
type ItemCoverage struct {
	ItemID         string                    `json:"item_id"`
	ItemName       string                    `json:"item_name"`
	InternalCode   string                    `json:"internal_code"`
	Unit           string                    `json:"unit"`
	CurrentBalance decimal.Decimal           `json:"current_balance"`
	AvgDailyUsage  decimal.Decimal           `json:"avg_daily_usage"`
	DaysOfCoverage decimal.Decimal           `json:"days_of_coverage"`
	Status         repository.CoverageStatus `json:"status"`
}

// CoverageForItem computes days of coverage for one item from its
// usage over the last thirty days.
func (s *AnalyticsService) CoverageForItem(ctx context.Context, itemID string) (*ItemCoverage, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.coverageFor(ctx, item)
}

// CoverageReport computes coverage for every active item, shortest
// coverage first so the tightest items lead the report.
func (s *AnalyticsService) CoverageReport(ctx context.Context) ([]*ItemCoverage, error) {
	items, err := s.itemRepo.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]*ItemCoverage, 0, len(items))
	for _, item := range items {
		row, err := s.coverageFor(ctx, item)
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID).Msg("coverage computation failed")
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].DaysOfCoverage.LessThan(rows[j].DaysOfCoverage)
	})

	return rows, nil
}

func (s *AnalyticsService) coverageFor(ctx context.Context, item *repository.Item) (*ItemCoverage, error) {
	now := time.Now()
	usage := repository.ConsumptionFilter{ItemID: item.ID}
	total, err := s.movementRepo.SumUsage(ctx, usage, now.AddDate(0, 0, -coverageHorizonDays), now)
	if err != nil {
		return nil, err
	}

	avgDaily := total.Div(decimal.NewFromInt(coverageHorizonDays)).Round(4)
	days := DaysOfCoverage(item.CurrentBalance, avgDaily)

	return &ItemCoverage{
		ItemID:         item.ID,
		ItemName:       item.Name,
		InternalCode:   item.InternalCode,
		Unit:           item.Unit,
		CurrentBalance: item.CurrentBalance,
		AvgDailyUsage:  avgDaily,
		DaysOfCoverage: days,
		Status:         ClassifyCoverage(days),
	}, nil
}

// TopConsumed lists the heaviest-used items over a period
func (s *AnalyticsService) TopConsumed(ctx context.Context, from, to time.Time, limit int) ([]*repository.ItemConsumption, error) {
	return s.movementRepo.TopConsumed(ctx, from, to, limit)
}
