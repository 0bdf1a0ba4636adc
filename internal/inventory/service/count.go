package service

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// CountWorkflow reconciles a scan-driven physical count against the
// recorded balance.
type CountWorkflow struct {
	stocks   *repository.StockRepository
	mutator  *StockMutator
	enforcer *ThreeBooksEnforcer
	log      *logger.Logger
}

func NewCountWorkflow(stocks *repository.StockRepository, mutator *StockMutator, enforcer *ThreeBooksEnforcer, log *logger.Logger) *CountWorkflow {
	return &CountWorkflow{stocks: stocks, mutator: mutator, enforcer: enforcer, log: log}
}

// Count reads the slot's current qty and, depending on whether actual
// matches, emits either a zero-delta COUNT_CONFIRM or a COUNT_ADJUST entry,
// then runs three-books enforcement over the single key touched.
func (w *CountWorkflow) Count(ctx context.Context, scope string, warehouseID, itemID int64, batchCode *string, actual int, ref string, occurredAt time.Time, traceID *string) (*AdjustResult, error) {
	batchCodeKey := domain.BatchCodeKey(batchCode)
	if err := w.stocks.EnsureZero(ctx, scope, warehouseID, itemID, batchCode, batchCodeKey); err != nil {
		return nil, err
	}
	// Lock the slot for the read so the delta is computed against a balance
	// no concurrent shipper can move before the adjust lands.
	slot, err := w.stocks.LockForUpdate(ctx, scope, warehouseID, itemID, batchCodeKey)
	if err != nil {
		return nil, err
	}
	current := 0
	if slot != nil {
		current = slot.Qty
	}

	delta := actual - current
	subReason := "COUNT_ADJUST"
	allowZero := false
	if delta == 0 {
		subReason = "COUNT_CONFIRM"
		allowZero = true
	}

	res, err := w.mutator.Adjust(ctx, AdjustInput{
		Scope:                scope,
		WarehouseID:          warehouseID,
		ItemID:               itemID,
		BatchCode:            batchCode,
		Delta:                delta,
		Reason:               "ADJUSTMENT",
		SubReason:            &subReason,
		Ref:                  ref,
		RefLine:              1,
		OccurredAt:           occurredAt,
		TraceID:              traceID,
		AllowZeroDeltaLedger: allowZero,
	})
	if err != nil {
		return nil, err
	}

	effects := []domain.Effect{{
		WarehouseID: warehouseID, ItemID: itemID, BatchCode: batchCode,
		QtyDelta: delta, Ref: ref, RefLine: 1, Reason: domain.ReasonAdjustment,
	}}
	if err := w.enforcer.Enforce(ctx, scope, ref, effects, occurredAt); err != nil {
		return nil, err
	}
	return res, nil
}
