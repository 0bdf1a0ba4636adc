package service

import (
	"context"
	"fmt"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/internal/inventory/events"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// ThreeBooksEnforcer is the post-commit watchdog that runs after every
// workflow that mutated stock: it asserts ledger, stocks, and today's
// snapshot agree on every key the workflow touched. A violation should be
// impossible under correct primitives — this is a backstop, not the sole
// guarantor.
type ThreeBooksEnforcer struct {
	snapshotEngine *SnapshotEngine
	ledger         *repository.LedgerRepository
	stocks         *repository.StockRepository
	snapshots      *repository.SnapshotRepository
	publisher      *events.InventoryEventPublisher
	log            *logger.Logger
}

func NewThreeBooksEnforcer(snapshotEngine *SnapshotEngine, ledger *repository.LedgerRepository, stocks *repository.StockRepository, snapshots *repository.SnapshotRepository, log *logger.Logger) *ThreeBooksEnforcer {
	return &ThreeBooksEnforcer{snapshotEngine: snapshotEngine, ledger: ledger, stocks: stocks, snapshots: snapshots, log: log}
}

// WithEventPublisher attaches the publisher Enforce notifies when a
// violation trips. Optional.
func (e *ThreeBooksEnforcer) WithEventPublisher(p *events.InventoryEventPublisher) *ThreeBooksEnforcer {
	e.publisher = p
	return e
}

// Enforce rebuilds today's snapshot, then checks every effect's claimed
// delta landed in the ledger, then checks stocks agree with the snapshot
// for every distinct key touched. Any mismatch raises ThreeBooksViolation,
// which aborts the caller's transaction.
func (e *ThreeBooksEnforcer) Enforce(ctx context.Context, scope, ref string, effects []domain.Effect, at time.Time) error {
	if err := e.snapshotEngine.RebuildToday(ctx, scope); err != nil {
		return err
	}

	missingLedger := map[string]string{}
	deltaMismatch := map[string]string{}

	type key struct {
		warehouseID int64
		itemID      int64
		batchCode   *string
	}
	seen := map[string]key{}

	for _, eff := range effects {
		batchCodeKey := domain.BatchCodeKey(eff.BatchCode)
		wh, item, effRef := eff.WarehouseID, eff.ItemID, eff.Ref
		rows, err := e.ledger.Query(ctx, repository.QueryFilter{Scope: scope, WarehouseID: &wh, ItemID: &item, Ref: &effRef, Limit: 500})
		if err != nil {
			return err
		}
		exists, err := e.ledger.Exists(ctx, scope, eff.WarehouseID, eff.ItemID, batchCodeKey, string(eff.Reason), eff.Ref, eff.RefLine)
		if err != nil {
			return err
		}
		diagKey := fmt.Sprintf("%d:%d:%s:%s:%d", eff.WarehouseID, eff.ItemID, batchCodeKey, eff.Ref, eff.RefLine)
		if !exists {
			missingLedger[diagKey] = "no ledger row for claimed effect"
		}
		for _, row := range rows {
			if row.BatchCodeKey == batchCodeKey && row.Reason == string(eff.Reason) && row.RefLine == eff.RefLine && row.Delta != eff.QtyDelta {
				deltaMismatch[diagKey] = fmt.Sprintf("ledger_delta=%d claimed_delta=%d", row.Delta, eff.QtyDelta)
			}
		}
		seen[fmt.Sprintf("%d:%d:%s", eff.WarehouseID, eff.ItemID, batchCodeKey)] = key{eff.WarehouseID, eff.ItemID, eff.BatchCode}
	}

	stockVsSnapshot := map[string]string{}
	// The snapshot check always reads today's rows — the day RebuildToday
	// just wrote — even when the workflow carries a backdated occurred_at.
	today := truncateToDay(time.Now())
	for diagKey, k := range seen {
		batchCodeKey := domain.BatchCodeKey(k.batchCode)
		stockQty, err := e.stocks.Get(ctx, scope, k.warehouseID, k.itemID, batchCodeKey)
		if err != nil {
			return err
		}
		snapshotQty, err := e.snapshots.GetOnHand(ctx, scope, today, k.warehouseID, k.itemID, k.batchCode)
		if err != nil {
			return err
		}
		if stockQty != snapshotQty {
			stockVsSnapshot[diagKey] = fmt.Sprintf("stocks_qty=%d snapshot_qty_on_hand=%d", stockQty, snapshotQty)
		}
	}

	if len(missingLedger) == 0 && len(deltaMismatch) == 0 && len(stockVsSnapshot) == 0 {
		return nil
	}

	details := map[string]string{}
	for k, v := range missingLedger {
		details["missing_ledger:"+k] = v
	}
	for k, v := range deltaMismatch {
		details["delta_mismatch:"+k] = v
	}
	for k, v := range stockVsSnapshot {
		details["stock_vs_snapshot:"+k] = v
	}
	e.log.Error().Str("ref", ref).Interface("details", details).Msg("three books violation detected")
	e.publisher.PublishThreeBooksViolationDetected(ctx, ref, details)
	return errors.ThreeBooksViolation(ref, details)
}
