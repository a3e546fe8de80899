package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sistema-granja/granja-backend/internal/inventory/events"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/logger"
)

// Alert thresholds. Expiry alerts open when the expiry date is within
// expiringWindowDays; within expiringCriticalDays they are critical.
const (
	expiringWindowDays   = 30
	expiringCriticalDays = 7
)

// AlertService maintains active alerts from item state. Evaluation is
// idempotent: re-running it against unchanged state creates and
// resolves nothing.
type AlertService struct {
	itemRepo  *repository.ItemRepository
	alertRepo *repository.AlertRepository
	notifier  *events.Notifier
	logger    *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(
	itemRepo *repository.ItemRepository,
	alertRepo *repository.AlertRepository,
	notifier *events.Notifier,
	log *logger.Logger,
) *AlertService {
	return &AlertService{
		itemRepo:  itemRepo,
		alertRepo: alertRepo,
		notifier:  notifier,
		logger:    log,
	}
}

// alertDecision is the desired state for one alert kind
type alertDecision struct {
	kind     repository.AlertKind
	active   bool
	severity repository.AlertSeverity
	message  string
}

// evaluate derives the desired alert set from item state. Stock-out
// and low-stock are mutually exclusive; stock-out wins.
func evaluate(item *repository.Item, now time.Time) []alertDecision {
	stockedOut := !item.CurrentBalance.IsPositive()

	decisions := []alertDecision{
		{
			kind:     repository.AlertStockOut,
			active:   stockedOut,
			severity: repository.SeverityCritical,
			message:  fmt.Sprintf("%s is out of stock", item.Name),
		},
		{
			kind:     repository.AlertLowStock,
			active:   !stockedOut && item.BelowMinimum(),
			severity: repository.SeverityWarning,
			message: fmt.Sprintf("%s is low on stock (%s %s left, minimum %s)",
				item.Name, item.CurrentBalance, item.Unit, item.MinimumBalance),
		},
	}

	expiring := alertDecision{kind: repository.AlertExpiringSoon}
	if days, ok := item.DaysUntilExpiry(now); ok && days >= 0 && days <= expiringWindowDays {
		expiring.active = true
		expiring.severity = repository.SeverityWarning
		if days <= expiringCriticalDays {
			expiring.severity = repository.SeverityCritical
		}
		expiring.message = fmt.Sprintf("%s expires in %d days", item.Name, days)
	}
	decisions = append(decisions, expiring)

	return decisions
}

// Reevaluate reconciles the item's active alerts with its current
// state, creating newly met conditions and resolving cleared ones.
func (s *AlertService) Reevaluate(ctx context.Context, item *repository.Item) error {
	existing, err := s.alertRepo.GetActiveByItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("reevaluate: get active alerts: %w", err)
	}

	activeByKind := make(map[repository.AlertKind]*repository.Alert, len(existing))
	for _, a := range existing {
		activeByKind[a.Kind] = a
	}

	var lastErr error
	for _, d := range evaluate(item, time.Now()) {
		current := activeByKind[d.kind]

		switch {
		case d.active && current == nil:
			alert := &repository.Alert{
				ItemID:   item.ID,
				Kind:     d.kind,
				Severity: d.severity,
				Message:  d.message,
			}
			if err := s.alertRepo.Create(ctx, alert); err != nil {
				s.logger.Error().Err(err).
					Str("item_id", item.ID).
					Str("kind", string(d.kind)).
					Msg("failed to create alert")
				lastErr = err
				continue
			}
			s.logger.Info().
				Str("alert_id", alert.ID).
				Str("item_id", item.ID).
				Str("kind", string(d.kind)).
				Str("severity", string(d.severity)).
				Msg("alert activated")
			s.notifier.AlertActivated(ctx, item, alert)

		case d.active && current != nil && current.Severity != d.severity:
			// Severity moved across the critical boundary. Re-open so
			// subscribers see the escalation.
			if _, err := s.alertRepo.ResolveByItemKind(ctx, item.ID, d.kind); err != nil {
				lastErr = err
				continue
			}
			alert := &repository.Alert{
				ItemID:   item.ID,
				Kind:     d.kind,
				Severity: d.severity,
				Message:  d.message,
			}
			if err := s.alertRepo.Create(ctx, alert); err != nil {
				lastErr = err
				continue
			}
			s.notifier.AlertActivated(ctx, item, alert)

		case !d.active && current != nil:
			resolved, err := s.alertRepo.ResolveByItemKind(ctx, item.ID, d.kind)
			if err != nil {
				s.logger.Error().Err(err).
					Str("item_id", item.ID).
					Str("kind", string(d.kind)).
					Msg("failed to resolve alert")
				lastErr = err
				continue
			}
			if resolved != nil {
				s.logger.Info().
					Str("alert_id", resolved.ID).
					Str("item_id", item.ID).
					Str("kind", string(d.kind)).
					Msg("alert resolved")
				s.notifier.AlertResolved(ctx, resolved)
			}
		}
	}

	return lastErr
}

// ScanAll re-evaluates every active item. The scheduler calls this on
// each sweep so expiry alerts open without any movement happening.
func (s *AlertService) ScanAll(ctx context.Context) error {
	items, err := s.itemRepo.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("scan: get active items: %w", err)
	}

	var lastErr error
	for _, item := range items {
		if err := s.Reevaluate(ctx, item); err != nil {
			lastErr = err
		}
	}

	s.logger.Debug().Int("item_count", len(items)).Msg("alert scan completed")
	return lastErr
}

// ListAlerts lists alerts matching the filter
func (s *AlertService) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]*repository.Alert, error) {
	return s.alertRepo.List(ctx, filter)
}

// ResolveAlert resolves one alert by hand. The next evaluation may
// re-open it if the condition still holds.
func (s *AlertService) ResolveAlert(ctx context.Context, id string, resolvedBy *string) error {
	if err := s.alertRepo.Resolve(ctx, id, resolvedBy); err != nil {
		return err
	}
	s.logger.Info().Str("alert_id", id).Msg("alert resolved manually")
	return nil
}

// ResolveAllForItem resolves every active alert for an item. Used when
// an item is deactivated.
func (s *AlertService) ResolveAllForItem(ctx context.Context, itemID string) error {
	var lastErr error
	for _, kind := range []repository.AlertKind{
		repository.AlertStockOut,
		repository.AlertLowStock,
		repository.AlertExpiringSoon,
	} {
		resolved, err := s.alertRepo.ResolveByItemKind(ctx, itemID, kind)
		if err != nil {
			lastErr = err
			continue
		}
		if resolved != nil {
			s.notifier.AlertResolved(ctx, resolved)
		}
	}
	return lastErr
}
