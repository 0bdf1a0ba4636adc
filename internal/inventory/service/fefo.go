package service

import (
	"sort"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/logger"

	"context"
)

// Leg is one batch's contribution to a planned or shipped quantity.
type Leg struct {
	BatchCode *string
	Qty       int
}

// FefoAllocator chooses which batches to consume in first-expiry-first-out
// order. Plan and Ship both run inside the caller's transaction; the lock
// taken by Plan is the sole cross-slot critical section in the system.
type FefoAllocator struct {
	stocks  *repository.StockRepository
	batches *repository.BatchRegistry
	mutator *StockMutator
	log     *logger.Logger
}

func NewFefoAllocator(stocks *repository.StockRepository, batches *repository.BatchRegistry, mutator *StockMutator, log *logger.Logger) *FefoAllocator {
	return &FefoAllocator{stocks: stocks, batches: batches, mutator: mutator, log: log}
}

type candidate struct {
	stockID   int64
	batchCode *string
	qty       int
	expiry    *time.Time
}

// Plan locks every positive-quantity slot for (warehouse, item), sorts by
// (expiry IS NULL, expiry ASC, stock_id ASC), optionally drops expired
// slots, then greedily consumes from the head until need is satisfied.
func (a *FefoAllocator) Plan(ctx context.Context, scope string, warehouseID, itemID int64, need int, asOf time.Time, allowExpired bool) ([]Leg, error) {
	slots, err := a.stocks.LockAllForUpdate(ctx, scope, warehouseID, itemID)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(slots))
	for _, s := range slots {
		var expiry *time.Time
		if s.BatchCode != nil {
			b, err := a.batches.Get(ctx, warehouseID, itemID, *s.BatchCode)
			if err != nil {
				return nil, err
			}
			if b != nil {
				expiry = b.ExpiryDate
			}
		}
		if !allowExpired && expiry != nil && expiry.Before(asOf) {
			continue
		}
		candidates = append(candidates, candidate{stockID: s.ID, batchCode: s.BatchCode, qty: s.Qty, expiry: expiry})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if (ci.expiry == nil) != (cj.expiry == nil) {
			return cj.expiry == nil // non-nil expiry sorts before nil
		}
		if ci.expiry != nil && cj.expiry != nil && !ci.expiry.Equal(*cj.expiry) {
			return ci.expiry.Before(*cj.expiry)
		}
		return ci.stockID < cj.stockID
	})

	available := 0
	for _, c := range candidates {
		available += c.qty
	}

	var legs []Leg
	remaining := need
	for _, c := range candidates {
		if remaining <= 0 {
			break
		}
		take := c.qty
		if take > remaining {
			take = remaining
		}
		legs = append(legs, Leg{BatchCode: c.batchCode, Qty: take})
		remaining -= take
	}

	if remaining > 0 {
		return nil, errors.InsufficientStock(warehouseID, itemID, nil, need, available, remaining, "rescan_stock")
	}
	return legs, nil
}

// Ship plans then consumes each leg via StockMutator.Adjust with a negative
// delta, ref_line incrementing per leg. Re-planning against post-state on
// replay is what makes a full ship idempotent even though it spans several
// adjust calls.
func (a *FefoAllocator) Ship(ctx context.Context, scope string, warehouseID, itemID int64, need int, ref string, refLineStart int, reason string, subReason *string, occurredAt time.Time, traceID *string, allowExpired bool) ([]*AdjustResult, error) {
	legs, err := a.Plan(ctx, scope, warehouseID, itemID, need, occurredAt, allowExpired)
	if err != nil {
		return nil, err
	}

	results := make([]*AdjustResult, 0, len(legs))
	refLine := refLineStart
	for _, leg := range legs {
		res, err := a.mutator.Adjust(ctx, AdjustInput{
			Scope:       scope,
			WarehouseID: warehouseID,
			ItemID:      itemID,
			BatchCode:   leg.BatchCode,
			Delta:       -leg.Qty,
			Reason:      reason,
			SubReason:   subReason,
			Ref:         ref,
			RefLine:     refLine,
			OccurredAt:  occurredAt,
			TraceID:     traceID,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
		refLine++
	}
	return results, nil
}
