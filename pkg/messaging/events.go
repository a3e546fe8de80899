package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	// Movement events
	EventMovementRecorded = "inventory.movement.recorded"

	// Alert events
	EventAlertActivated = "inventory.alert.activated"
	EventAlertResolved  = "inventory.alert.resolved"

	// Report events
	EventConsumptionReportGenerated = "inventory.report.generated"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Movement Events

// MovementRecordedEvent is published when a ledger movement is committed
type MovementRecordedEvent struct {
	MovementID    string          `json:"movement_id"`
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name"`
	Kind          string          `json:"kind"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	PerformedBy   string          `json:"performed_by"`
	FarmID        string          `json:"farm_id"`
}

// Alert Events

// AlertActivatedEvent is published when an alert transitions to active.
// Notification fan-out to users is handled by a downstream consumer.
type AlertActivatedEvent struct {
	AlertID  string `json:"alert_id"`
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	FarmID   string `json:"farm_id"`
}

// AlertResolvedEvent is published when an active alert auto-resolves
// or is resolved by a user.
type AlertResolvedEvent struct {
	AlertID    string `json:"alert_id"`
	ItemID     string `json:"item_id"`
	Kind       string `json:"kind"`
	ResolvedBy string `json:"resolved_by,omitempty"`
	FarmID     string `json:"farm_id"`
}

// Report Events

// ConsumptionReportGeneratedEvent is published when a consumption report is stored
type ConsumptionReportGeneratedEvent struct {
	ReportID      string          `json:"report_id"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	TotalConsumed decimal.Decimal `json:"total_consumed"`
	Trend         string          `json:"trend"`
	FarmID        string          `json:"farm_id"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
