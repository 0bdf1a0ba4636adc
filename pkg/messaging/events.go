package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types published by Inventory Core.
const (
	EventStockAdjusted             = "inventory.stock.adjusted"
	EventBatchExpiring             = "inventory.batch.expiring"
	EventAlertGenerated            = "inventory.alert.generated"
	EventThreeBooksViolationDetect = "inventory.three_books.violation_detected"
)

// ExchangeInventoryEvents is the single topic exchange Inventory Core
// publishes to; downstream dashboards and printing consume from queues
// bound to it.
const ExchangeInventoryEvents = "inventory.events"

// Event is the envelope every published message carries.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data.
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

// UnmarshalData unmarshals the event data into the provided struct.
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// StockAdjustedEvent is published when StockMutator.Adjust applies a
// non-zero delta, before the surrounding transaction commits.
type StockAdjustedEvent struct {
	Scope       string  `json:"scope"`
	WarehouseID int64   `json:"warehouse_id"`
	ItemID      int64   `json:"item_id"`
	BatchCode   *string `json:"batch_code,omitempty"`
	Delta       int     `json:"delta"`
	AfterQty    int     `json:"after_qty"`
	Reason      string  `json:"reason"`
	Ref         string  `json:"ref"`
	PerformedBy string  `json:"performed_by"`
}

// BatchExpiringEvent is published by the downstream alert scanner that
// watches batches approaching expiry; Inventory Core's ExpiryResolver
// supplies the dates it keys off.
type BatchExpiringEvent struct {
	WarehouseID int64     `json:"warehouse_id"`
	ItemID      int64     `json:"item_id"`
	BatchCode   string    `json:"batch_code"`
	ExpiryDate  time.Time `json:"expiry_date"`
	DaysUntil   int       `json:"days_until"`
	Qty         int       `json:"qty"`
}

// AlertGeneratedEvent is a generic low-stock/expiry alert surfaced to
// dashboards.
type AlertGeneratedEvent struct {
	AlertType   string  `json:"alert_type"`
	Severity    string  `json:"severity"`
	Message     string  `json:"message"`
	WarehouseID int64   `json:"warehouse_id,omitempty"`
	ItemID      int64   `json:"item_id,omitempty"`
	BatchCode   *string `json:"batch_code,omitempty"`
}

// ThreeBooksViolationDetectedEvent is published when ThreeBooksEnforcer
// trips — an aborted commit, surfaced for audit visibility even though the
// transaction itself rolled back.
type ThreeBooksViolationDetectedEvent struct {
	Ref     string            `json:"ref"`
	Details map[string]string `json:"details"`
}

// GenerateEventID generates a unique event ID.
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
