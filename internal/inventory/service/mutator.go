// Package service hosts the primitives and workflows that compose Inventory
// Core's invariant loop: StockMutator.Adjust is the single chokepoint every
// balance change funnels through.
package service

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/internal/inventory/events"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/actor"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/logger"
	"github.com/inventorycore/inventory-core/pkg/messaging"
)

// AdjustInput is everything StockMutator.Adjust needs to evaluate one
// balance change.
type AdjustInput struct {
	Scope          string
	WarehouseID    int64
	ItemID         int64
	BatchCode      *string
	Delta          int
	Reason         string // raw, normalised internally to its canonical family
	SubReason      *string
	Ref            string
	RefLine        int
	OccurredAt     time.Time
	ProductionDate *time.Time
	ExpiryDate     *time.Time
	TraceID        *string

	// AllowZeroDeltaLedger must be true, together with a non-empty
	// SubReason, for a delta=0 call to produce a confirmation ledger row.
	AllowZeroDeltaLedger bool
}

// AdjustResult is what the caller gets back, whether or not a write
// happened.
type AdjustResult struct {
	StockID            int64
	BatchCode          *string
	Before             int
	After              int
	Applied            bool
	Idempotent         bool
	Delta              int
	ProductionDate     *time.Time
	ExpiryDate         *time.Time
	ConsistencyFlagged bool
}

// StockMutator is the single chokepoint every balance change funnels
// through. It never commits or rolls back a transaction — that boundary
// belongs to the caller (a Workflow, always run inside database.WithScope).
type StockMutator struct {
	stocks    *repository.StockRepository
	ledger    *repository.LedgerRepository
	batches   *repository.BatchRegistry
	items     *repository.ItemRepository
	publisher *events.InventoryEventPublisher
	log       *logger.Logger
}

func NewStockMutator(stocks *repository.StockRepository, ledger *repository.LedgerRepository, batches *repository.BatchRegistry, items *repository.ItemRepository, log *logger.Logger) *StockMutator {
	return &StockMutator{stocks: stocks, ledger: ledger, batches: batches, items: items, log: log}
}

// WithEventPublisher attaches the publisher Adjust notifies on every
// applied, non-zero delta. Optional — a mutator with no publisher set
// simply skips the notification.
func (m *StockMutator) WithEventPublisher(p *events.InventoryEventPublisher) *StockMutator {
	m.publisher = p
	return m
}

// Adjust runs the full adjust algorithm. Must be called inside
// the transaction the caller will commit; it performs no commit itself.
func (m *StockMutator) Adjust(ctx context.Context, in AdjustInput) (*AdjustResult, error) {
	item, err := m.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}

	batchCode := in.BatchCode
	requiresBatch := item.RequiresBatch()

	// Step 1: batch-code requirement / legacy placeholder normalisation.
	if requiresBatch {
		if batchCode == nil || *batchCode == "" {
			return nil, errors.BatchRequired(in.ItemID)
		}
	} else if batchCode != nil && domain.IsLegacyBatchPlaceholder(*batchCode) {
		batchCode = nil
	}
	batchCodeKey := domain.BatchCodeKey(batchCode)

	// Step 2: zero-delta short-circuit.
	if in.Delta == 0 {
		if !(in.AllowZeroDeltaLedger && in.SubReason != nil && *in.SubReason != "") {
			return &AdjustResult{Applied: false, Idempotent: true}, nil
		}
	}

	productionDate := in.ProductionDate
	expiryDate := in.ExpiryDate
	var consistencyFlagged bool

	// Step 3: expiry resolution on positive inbound movements with a
	// concrete batch; any provided dates are cleared for non-batched slots.
	if in.Delta > 0 && batchCode != nil {
		resolution := domain.ResolveExpiry(item, productionDate, expiryDate)
		productionDate = resolution.ProductionDate
		expiryDate = resolution.ExpiryDate
		consistencyFlagged = resolution.ConsistencyFlagged
		if !domain.DatesConsistent(productionDate, expiryDate) {
			return nil, errors.DateConsistencyError(formatDate(productionDate), formatDate(expiryDate))
		}
	} else if batchCode == nil {
		productionDate = nil
		expiryDate = nil
	}

	// Step 4: idempotency fingerprint check.
	exists, err := m.ledger.Exists(ctx, in.Scope, in.WarehouseID, in.ItemID, batchCodeKey, in.Reason, in.Ref, in.RefLine)
	if err != nil {
		return nil, err
	}
	if exists {
		return &AdjustResult{Applied: false, Idempotent: true}, nil
	}

	// Step 5: lazily register the batch row for positive inbound movements.
	if in.Delta > 0 && batchCode != nil {
		if err := m.batches.Ensure(ctx, in.WarehouseID, in.ItemID, *batchCode, productionDate, expiryDate); err != nil {
			return nil, err
		}
	}

	// Step 6: materialise the slot if needed, then lock and read it.
	if err := m.stocks.EnsureZero(ctx, in.Scope, in.WarehouseID, in.ItemID, batchCode, batchCodeKey); err != nil {
		return nil, err
	}
	slot, err := m.stocks.LockForUpdate(ctx, in.Scope, in.WarehouseID, in.ItemID, batchCodeKey)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, errors.IntegrityError(errors.ErrNotFound)
	}

	// Step 7: reject negative resulting balances.
	newQty := slot.Qty + in.Delta
	if newQty < 0 {
		required := -in.Delta
		shortage := required - slot.Qty
		return nil, errors.InsufficientStock(in.WarehouseID, in.ItemID, batchCode, required, slot.Qty, shortage, "adjust_to_available")
	}

	// Step 8: write the ledger entry, then apply the delta to the slot.
	if _, err := m.ledger.Write(ctx, repository.LedgerWriteInput{
		Scope:          in.Scope,
		WarehouseID:    in.WarehouseID,
		ItemID:         in.ItemID,
		BatchCode:      batchCode,
		BatchCodeKey:   batchCodeKey,
		Reason:         in.Reason,
		ReasonCanon:    domain.CanonicalReason(in.Reason),
		SubReason:      in.SubReason,
		Ref:            in.Ref,
		RefLine:        in.RefLine,
		Delta:          in.Delta,
		AfterQty:       newQty,
		OccurredAt:     in.OccurredAt,
		TraceID:        in.TraceID,
		ProductionDate: productionDate,
		ExpiryDate:     expiryDate,
	}); err != nil {
		return nil, err
	}

	if in.Delta != 0 {
		newQty, err = m.stocks.ApplyDelta(ctx, slot.ID, in.Delta)
		if err != nil {
			return nil, err
		}
	}

	m.log.Debug().Str("scope", in.Scope).Int64("warehouse_id", in.WarehouseID).Int64("item_id", in.ItemID).
		Str("ref", in.Ref).Int("delta", in.Delta).Int("after_qty", newQty).Msg("stock adjusted")

	if in.Delta != 0 {
		performedBy := "system"
		if a := actor.FromContext(ctx); a != nil {
			performedBy = a.String()
		}
		m.publisher.PublishStockAdjusted(ctx, messaging.StockAdjustedEvent{
			Scope:       in.Scope,
			WarehouseID: in.WarehouseID,
			ItemID:      in.ItemID,
			BatchCode:   batchCode,
			Delta:       in.Delta,
			AfterQty:    newQty,
			Reason:      in.Reason,
			Ref:         in.Ref,
			PerformedBy: performedBy,
		})
	}

	return &AdjustResult{
		StockID:            slot.ID,
		BatchCode:          batchCode,
		Before:             slot.Qty,
		After:              newQty,
		Applied:            true,
		Idempotent:         false,
		Delta:              in.Delta,
		ProductionDate:     productionDate,
		ExpiryDate:         expiryDate,
		ConsistencyFlagged: consistencyFlagged,
	}, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
