package service

import (
	"context"
	"time"

	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/farm"
	"github.com/sistema-granja/granja-backend/pkg/logger"
)

// AlertScheduler sweeps every farm's inventory periodically. Stock
// alerts open the moment a movement lands; this sweep exists for
// expiry alerts, which activate purely by the calendar.
type AlertScheduler struct {
	alerts   *AlertService
	itemRepo *repository.ItemRepository
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewAlertScheduler creates a new alert scheduler
func NewAlertScheduler(alerts *AlertService, itemRepo *repository.ItemRepository, interval time.Duration, log *logger.Logger) *AlertScheduler {
	return &AlertScheduler{
		alerts:   alerts,
		itemRepo: itemRepo,
		interval: interval,
		logger:   log,
	}
}

// Start starts the scheduler in a background goroutine
func (s *AlertScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("alert scheduler started")

		// Run an initial sweep immediately
		s.runSweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scheduler stopped")
				return
			case <-ticker.C:
				s.runSweep(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *AlertScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// runSweep scans every farm that owns inventory
func (s *AlertScheduler) runSweep(ctx context.Context) {
	start := time.Now()
	s.logger.Info().Msg("starting alert sweep")

	farmIDs, err := s.itemRepo.DistinctFarmIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list farms with inventory")
		return
	}

	for _, farmID := range farmIDs {
		farmCtx := farm.WithFarmID(ctx, farmID)
		if err := s.alerts.ScanAll(farmCtx); err != nil {
			s.logger.WithFarmID(farmID).Error().Err(err).Msg("alert sweep failed for farm")
		}
	}

	s.logger.Info().
		Int("farm_count", len(farmIDs)).
		Dur("duration", time.Since(start)).
		Msg("alert sweep completed")
}
