// Package events publishes Inventory Core's domain events onto the shared
// RabbitMQ exchange. Every publish is best-effort: a broker outage must
// never fail or roll back the transaction that produced the event, so
// failures are logged, not returned.
package events

import (
	"context"

	"github.com/inventorycore/inventory-core/pkg/logger"
	"github.com/inventorycore/inventory-core/pkg/messaging"
)

// InventoryEventPublisher publishes stock, alert, and integrity events.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher declares the inventory exchange and returns a
// publisher bound to it.
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-core", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockAdjusted publishes one event per applied, non-zero balance
// change. Called by StockMutator.Adjust once the change is written, inside
// the caller's transaction and before it commits, so an event can describe
// a change that is later rolled back.
func (p *InventoryEventPublisher) PublishStockAdjusted(ctx context.Context, data messaging.StockAdjustedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).
			Int64("warehouse_id", data.WarehouseID).
			Int64("item_id", data.ItemID).
			Msg("failed to publish stock adjusted event")
	}
}

// PublishAlertGenerated publishes a low-stock or expiry alert for dashboard
// consumption.
func (p *InventoryEventPublisher) PublishAlertGenerated(ctx context.Context, data messaging.AlertGeneratedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventAlertGenerated, data); err != nil {
		p.logger.Error().Err(err).Str("alert_type", data.AlertType).Msg("failed to publish alert generated event")
	}
}

// PublishThreeBooksViolationDetected publishes an audit event when
// ThreeBooksEnforcer trips, even though the transaction that triggered it
// always rolls back.
func (p *InventoryEventPublisher) PublishThreeBooksViolationDetected(ctx context.Context, ref string, details map[string]string) {
	if p == nil {
		return
	}
	data := messaging.ThreeBooksViolationDetectedEvent{Ref: ref, Details: details}
	if err := p.publisher.Publish(ctx, messaging.EventThreeBooksViolationDetect, data); err != nil {
		p.logger.Error().Err(err).Str("ref", ref).Msg("failed to publish three books violation event")
	}
}
