package service

import (
	"context"
	"time"

	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/logger"
)

// DashboardService aggregates the counters the farm dashboard shows
type DashboardService struct {
	itemRepo     *repository.ItemRepository
	movementRepo *repository.MovementRepository
	alertRepo    *repository.AlertRepository
	logger       *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	itemRepo *repository.ItemRepository,
	movementRepo *repository.MovementRepository,
	alertRepo *repository.AlertRepository,
	log *logger.Logger,
) *DashboardService {
	return &DashboardService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		alertRepo:    alertRepo,
		logger:       log,
	}
}

// Summary holds the dashboard counters for one farm
type Summary struct {
	TotalItems      int64                         `json:"total_items"`
	BelowMinimum    int64                         `json:"below_minimum"`
	StockedOut      int64                         `json:"stocked_out"`
	ExpiringSoon    int64                         `json:"expiring_soon"`
	ActiveAlerts    int64                         `json:"active_alerts"`
	CriticalAlerts  int64                         `json:"critical_alerts"`
	MovementsLast7d int64                         `json:"movements_last_7d"`
	TopConsumed     []*repository.ItemConsumption `json:"top_consumed"`
}

const topConsumedLimit = 5

// GetSummary computes the dashboard counters
func (s *DashboardService) GetSummary(ctx context.Context) (*Summary, error) {
	items, err := s.itemRepo.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalItems: int64(len(items))}

	if summary.BelowMinimum, err = s.itemRepo.CountBelowMinimum(ctx); err != nil {
		return nil, err
	}
	if summary.StockedOut, err = s.itemRepo.CountStockedOut(ctx); err != nil {
		return nil, err
	}
	if summary.ExpiringSoon, err = s.itemRepo.CountExpiringWithin(ctx, expiringWindowDays); err != nil {
		return nil, err
	}
	if summary.ActiveAlerts, err = s.alertRepo.CountActive(ctx, ""); err != nil {
		return nil, err
	}
	if summary.CriticalAlerts, err = s.alertRepo.CountActive(ctx, repository.SeverityCritical); err != nil {
		return nil, err
	}
	now := time.Now()
	if summary.MovementsLast7d, err = s.movementRepo.CountSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if summary.TopConsumed, err = s.movementRepo.TopConsumed(ctx, now.AddDate(0, 0, -coverageHorizonDays), now, topConsumedLimit); err != nil {
		return nil, err
	}

	return summary, nil
}
