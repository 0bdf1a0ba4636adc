package service

import (
	"context"
	"strconv"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// ShipLine is one requested line of an order shipment. A nil BatchCode
// means "let FefoAllocator choose".
type ShipLine struct {
	WarehouseID int64
	ItemID      int64
	BatchCode   *string
	Want        int
}

// ShipLineResult reports per-line outcome so the caller can render
// "N of M fulfilled".
type ShipLineResult struct {
	WarehouseID int64
	ItemID      int64
	BatchCode   *string
	Status      string // OK, INSUFFICIENT, REJECTED
	Err         *errors.AppError
	Legs        []*AdjustResult
}

const (
	ShipLineOK           = "OK"
	ShipLineInsufficient = "INSUFFICIENT"
	ShipLineRejected     = "REJECTED"
)

// ShipWorkflow ships an order: duplicate (item, warehouse, batch) lines are
// merged, the already-shipped quantity for the key is subtracted so replay
// against the post-state is idempotent, then either a direct adjust (a
// concrete batch was given) or FefoAllocator.Ship (otherwise) runs.
type ShipWorkflow struct {
	mutator  *StockMutator
	fefo     *FefoAllocator
	ledger   *repository.LedgerRepository
	enforcer *ThreeBooksEnforcer
	log      *logger.Logger

	// AllowExpired controls whether FefoAllocator may consume expired
	// batches for this workflow; ReturnToVendorWorkflow sets its own.
	AllowExpired bool
}

func NewShipWorkflow(mutator *StockMutator, fefo *FefoAllocator, ledger *repository.LedgerRepository, enforcer *ThreeBooksEnforcer, log *logger.Logger) *ShipWorkflow {
	return &ShipWorkflow{mutator: mutator, fefo: fefo, ledger: ledger, enforcer: enforcer, log: log, AllowExpired: false}
}

type mergedShipLine struct {
	warehouseID int64
	itemID      int64
	batchCode   *string
	want        int
}

// Ship merges duplicate lines, computes the remaining need per key against
// already-shipped ledger totals, and emits legs for every line with a
// positive remaining need.
func (w *ShipWorkflow) Ship(ctx context.Context, scope, orderID string, lines []ShipLine, occurredAt time.Time, traceID *string) ([]ShipLineResult, error) {
	merged := map[string]*mergedShipLine{}
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		key := domain.BatchCodeKey(l.BatchCode) + ":" + strconv.FormatInt(l.WarehouseID, 10) + ":" + strconv.FormatInt(l.ItemID, 10)
		if m, ok := merged[key]; ok {
			m.want += l.Want
		} else {
			merged[key] = &mergedShipLine{warehouseID: l.WarehouseID, itemID: l.ItemID, batchCode: l.BatchCode, want: l.Want}
			order = append(order, key)
		}
	}

	results := make([]ShipLineResult, 0, len(order))
	effects := make([]domain.Effect, 0, len(order))
	refLine := 1

	for _, key := range order {
		m := merged[key]
		alreadyShipped, err := w.ledger.SumDeltaByRef(ctx, scope, orderID, m.warehouseID, m.itemID)
		if err != nil {
			return nil, err
		}
		// alreadyShipped is <= 0, the sum of prior SHIPMENT legs against
		// this ref; adding it to want yields the remaining need.
		need := m.want + alreadyShipped
		if need <= 0 {
			results = append(results, ShipLineResult{WarehouseID: m.warehouseID, ItemID: m.itemID, BatchCode: m.batchCode, Status: ShipLineOK})
			continue
		}

		subReason := "ORDER_SHIP"
		if m.batchCode != nil {
			res, err := w.mutator.Adjust(ctx, AdjustInput{
				Scope:       scope,
				WarehouseID: m.warehouseID,
				ItemID:      m.itemID,
				BatchCode:   m.batchCode,
				Delta:       -need,
				Reason:      "SHIPMENT",
				SubReason:   &subReason,
				Ref:         orderID,
				RefLine:     refLine,
				OccurredAt:  occurredAt,
				TraceID:     traceID,
			})
			if err != nil {
				results = append(results, lineFailureResult(m, err))
				refLine++
				continue
			}
			results = append(results, ShipLineResult{WarehouseID: m.warehouseID, ItemID: m.itemID, BatchCode: m.batchCode, Status: ShipLineOK, Legs: []*AdjustResult{res}})
			if res.Applied {
				effects = append(effects, domain.Effect{
					WarehouseID: m.warehouseID, ItemID: m.itemID, BatchCode: m.batchCode,
					QtyDelta: res.Delta, Ref: orderID, RefLine: refLine, Reason: domain.ReasonShipment,
				})
			}
			refLine++
			continue
		}

		legs, err := w.fefo.Ship(ctx, scope, m.warehouseID, m.itemID, need, orderID, refLine, "SHIPMENT", &subReason, occurredAt, traceID, w.AllowExpired)
		if err != nil {
			results = append(results, lineFailureResult(m, err))
			refLine++
			continue
		}
		results = append(results, ShipLineResult{WarehouseID: m.warehouseID, ItemID: m.itemID, BatchCode: m.batchCode, Status: ShipLineOK, Legs: legs})
		for i, leg := range legs {
			if leg.Applied {
				effects = append(effects, domain.Effect{
					WarehouseID: m.warehouseID, ItemID: m.itemID, BatchCode: leg.BatchCode,
					QtyDelta: leg.Delta, Ref: orderID, RefLine: refLine + i, Reason: domain.ReasonShipment,
				})
			}
		}
		refLine += len(legs)
	}

	if len(effects) > 0 {
		if err := w.enforcer.Enforce(ctx, scope, orderID, effects, occurredAt); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func lineFailureResult(m *mergedShipLine, err error) ShipLineResult {
	status := ShipLineRejected
	var appErr *errors.AppError
	if ae, ok := err.(*errors.AppError); ok {
		appErr = ae
		if ae.Code == "INSUFFICIENT_STOCK" {
			status = ShipLineInsufficient
		}
	}
	return ShipLineResult{WarehouseID: m.warehouseID, ItemID: m.itemID, BatchCode: m.batchCode, Status: status, Err: appErr}
}
