package events

import (
	"context"

	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/logger"
	"github.com/sistema-granja/granja-backend/pkg/messaging"
)

// Notifier publishes inventory events to RabbitMQ. All publishes are
// best-effort: a broker failure is logged and never fails the
// operation that triggered it. A nil *Notifier is valid and publishes
// nothing, so the engines run without a broker in tests.
type Notifier struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewNotifier creates a notifier bound to the inventory events exchange
func NewNotifier(rmq *messaging.RabbitMQ, log *logger.Logger) (*Notifier, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	return &Notifier{
		publisher: publisher,
		logger:    log,
	}, nil
}

// MovementRecorded publishes a movement recorded event
func (n *Notifier) MovementRecorded(ctx context.Context, item *repository.Item, m *repository.Movement) {
	if n == nil {
		return
	}

	performedBy := ""
	if m.PerformedBy != nil {
		performedBy = *m.PerformedBy
	}

	data := messaging.MovementRecordedEvent{
		MovementID:    m.ID,
		ItemID:        m.ItemID,
		ItemName:      item.Name,
		Kind:          string(m.Kind),
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		PerformedBy:   performedBy,
		FarmID:        m.FarmID,
	}

	if err := n.publisher.Publish(ctx, messaging.EventMovementRecorded, data); err != nil {
		n.logger.Error().Err(err).Str("movement_id", m.ID).Msg("failed to publish movement recorded event")
	}
}

// AlertActivated publishes an alert activated event
func (n *Notifier) AlertActivated(ctx context.Context, item *repository.Item, alert *repository.Alert) {
	if n == nil {
		return
	}

	data := messaging.AlertActivatedEvent{
		AlertID:  alert.ID,
		ItemID:   alert.ItemID,
		ItemName: item.Name,
		Kind:     string(alert.Kind),
		Severity: string(alert.Severity),
		Message:  alert.Message,
		FarmID:   alert.FarmID,
	}

	if err := n.publisher.Publish(ctx, messaging.EventAlertActivated, data); err != nil {
		n.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert activated event")
	}
}

// AlertResolved publishes an alert resolved event
func (n *Notifier) AlertResolved(ctx context.Context, alert *repository.Alert) {
	if n == nil {
		return
	}

	resolvedBy := ""
	if alert.ResolvedBy != nil {
		resolvedBy = *alert.ResolvedBy
	}

	data := messaging.AlertResolvedEvent{
		AlertID:    alert.ID,
		ItemID:     alert.ItemID,
		Kind:       string(alert.Kind),
		ResolvedBy: resolvedBy,
		FarmID:     alert.FarmID,
	}

	if err := n.publisher.Publish(ctx, messaging.EventAlertResolved, data); err != nil {
		n.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert resolved event")
	}
}

// ReportGenerated publishes a consumption report generated event
func (n *Notifier) ReportGenerated(ctx context.Context, report *repository.ConsumptionReport) {
	if n == nil {
		return
	}

	data := messaging.ConsumptionReportGeneratedEvent{
		ReportID:      report.ID,
		PeriodStart:   report.PeriodStart,
		PeriodEnd:     report.PeriodEnd,
		TotalConsumed: report.TotalConsumed,
		Trend:         string(report.Trend),
		FarmID:        report.FarmID,
	}

	if err := n.publisher.Publish(ctx, messaging.EventConsumptionReportGenerated, data); err != nil {
		n.logger.Error().Err(err).Str("report_id", report.ID).Msg("failed to publish report generated event")
	}
}
