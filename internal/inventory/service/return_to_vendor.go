package service

import (
	"context"
	"fmt"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// ReturnTaskLine is one in-flight return-to-vendor task line. Picks
// accumulated on it carry no stock movement until Commit — they are intent.
type ReturnTaskLine struct {
	LineID      int
	WarehouseID int64
	ItemID      int64
	BatchCode   *string
	ExpectedQty int
	PickedQty   int
}

// ReturnTask groups the lines raised against one purchase order.
type ReturnTask struct {
	TaskRef     string
	POReference string
	Lines       []*ReturnTaskLine
}

// ReturnToVendorWorkflow models a goods-out to a supplier against a
// purchase order: create a task clamped to outstanding received quantity,
// accumulate picks, then commit as one outbound adjust per line.
type ReturnToVendorWorkflow struct {
	stocks   *repository.StockRepository
	po       *repository.PurchaseOrderRepository
	mutator  *StockMutator
	enforcer *ThreeBooksEnforcer
	log      *logger.Logger

	// AllowExpired defaults true: returning expired stock to the supplier
	// is a legitimate, common RTV reason.
	AllowExpired bool
}

func NewReturnToVendorWorkflow(stocks *repository.StockRepository, po *repository.PurchaseOrderRepository, mutator *StockMutator, enforcer *ThreeBooksEnforcer, log *logger.Logger) *ReturnToVendorWorkflow {
	return &ReturnToVendorWorkflow{stocks: stocks, po: po, mutator: mutator, enforcer: enforcer, log: log, AllowExpired: true}
}

// reasonReturnOut is the raw reason string Commit passes to Adjust; the
// Effect handed to ThreeBooksEnforcer must carry this same raw value, not
// its canonical family, since Exists keys off the ledger row's raw reason
// column.
const reasonReturnOut = "RETURN_OUT"

// CreateTask opens a task line: expected_qty = min(po.received, available).
func (w *ReturnToVendorWorkflow) CreateTask(ctx context.Context, scope string, lineID int, poRef string, warehouseID, itemID int64, batchCode *string) (*ReturnTaskLine, error) {
	received, err := w.po.GetReceived(ctx, poRef)
	if err != nil {
		return nil, err
	}
	available, err := w.stocks.Get(ctx, scope, warehouseID, itemID, domain.BatchCodeKey(batchCode))
	if err != nil {
		return nil, err
	}
	expected := received
	if available < expected {
		expected = available
	}
	return &ReturnTaskLine{
		LineID:      lineID,
		WarehouseID: warehouseID,
		ItemID:      itemID,
		BatchCode:   batchCode,
		ExpectedQty: expected,
	}, nil
}

// RecordPick accumulates picked_qty on a task line. No stock movement
// happens here.
func (w *ReturnToVendorWorkflow) RecordPick(line *ReturnTaskLine, qty int) {
	line.PickedQty += qty
}

// Commit emits one RETURN_OUT adjust per picked line, decrements the PO's
// received counter by the total picked, then enforces three-books
// consistency over the task.
func (w *ReturnToVendorWorkflow) Commit(ctx context.Context, scope string, task *ReturnTask, occurredAt time.Time, traceID *string) ([]*AdjustResult, error) {
	ref := "RTN-" + task.TaskRef
	results := make([]*AdjustResult, 0, len(task.Lines))
	effects := make([]domain.Effect, 0, len(task.Lines))
	totalPicked := 0

	for _, line := range task.Lines {
		if line.PickedQty <= 0 {
			continue
		}
		res, err := w.mutator.Adjust(ctx, AdjustInput{
			Scope:       scope,
			WarehouseID: line.WarehouseID,
			ItemID:      line.ItemID,
			BatchCode:   line.BatchCode,
			Delta:       -line.PickedQty,
			Reason:      reasonReturnOut,
			Ref:         ref,
			RefLine:     line.LineID,
			OccurredAt:  occurredAt,
			TraceID:     traceID,
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.LineID, err)
		}
		results = append(results, res)
		totalPicked += line.PickedQty
		if res.Applied {
			effects = append(effects, domain.Effect{
				WarehouseID: line.WarehouseID, ItemID: line.ItemID, BatchCode: line.BatchCode,
				QtyDelta: res.Delta, Ref: ref, RefLine: line.LineID, Reason: domain.Reason(reasonReturnOut),
			})
		}
	}

	if totalPicked > 0 {
		if err := w.po.DecrementReceived(ctx, task.POReference, totalPicked); err != nil {
			return nil, err
		}
	}
	if len(effects) > 0 {
		if err := w.enforcer.Enforce(ctx, scope, ref, effects, occurredAt); err != nil {
			return nil, err
		}
	}
	return results, nil
}
