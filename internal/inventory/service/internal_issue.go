package service

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// InternalIssueLine is one line of an internal issue document. A nil
// BatchCode fans out through FefoAllocator rather than a direct adjust.
type InternalIssueLine struct {
	LineNo      int
	WarehouseID int64
	ItemID      int64
	BatchCode   *string
	Qty         int
}

// InternalIssueWorkflow confirms an internal issue document against a named
// recipient.
type InternalIssueWorkflow struct {
	mutator  *StockMutator
	fefo     *FefoAllocator
	enforcer *ThreeBooksEnforcer
	log      *logger.Logger

	AllowExpired bool
}

func NewInternalIssueWorkflow(mutator *StockMutator, fefo *FefoAllocator, enforcer *ThreeBooksEnforcer, log *logger.Logger) *InternalIssueWorkflow {
	return &InternalIssueWorkflow{mutator: mutator, fefo: fefo, enforcer: enforcer, log: log, AllowExpired: false}
}

// reasonInternalOut is the raw reason string both the direct-batch adjust
// and the FEFO fan-out pass to Adjust; the Effect handed to
// ThreeBooksEnforcer must carry this same raw value, not its canonical
// family, since Exists keys off the ledger row's raw reason column.
const reasonInternalOut = "INTERNAL_OUT"

// Confirm issues every line of docNo to recipientName: lines with a
// concrete batch get one direct adjust each; lines with a NULL batch fan
// out through FefoAllocator with ref_line encoded as line_no*100+seq.
func (w *InternalIssueWorkflow) Confirm(ctx context.Context, scope, docNo, recipientName string, lines []InternalIssueLine, occurredAt time.Time, traceID *string) ([]*AdjustResult, error) {
	subReason := "RECIPIENT:" + recipientName
	results := make([]*AdjustResult, 0, len(lines))
	effects := make([]domain.Effect, 0, len(lines))

	for _, line := range lines {
		if line.BatchCode != nil {
			res, err := w.mutator.Adjust(ctx, AdjustInput{
				Scope:       scope,
				WarehouseID: line.WarehouseID,
				ItemID:      line.ItemID,
				BatchCode:   line.BatchCode,
				Delta:       -line.Qty,
				Reason:      reasonInternalOut,
				SubReason:   &subReason,
				Ref:         docNo,
				RefLine:     line.LineNo,
				OccurredAt:  occurredAt,
				TraceID:     traceID,
			})
			if err != nil {
				return nil, err
			}
			results = append(results, res)
			if res.Applied {
				effects = append(effects, domain.Effect{
					WarehouseID: line.WarehouseID, ItemID: line.ItemID, BatchCode: line.BatchCode,
					QtyDelta: res.Delta, Ref: docNo, RefLine: line.LineNo, Reason: domain.Reason(reasonInternalOut),
				})
			}
			continue
		}

		legRefLineStart := line.LineNo*100 + 1
		legs, err := w.fefo.Ship(ctx, scope, line.WarehouseID, line.ItemID, line.Qty, docNo, legRefLineStart, reasonInternalOut, &subReason, occurredAt, traceID, w.AllowExpired)
		if err != nil {
			return nil, err
		}
		results = append(results, legs...)
		for i, leg := range legs {
			if leg.Applied {
				effects = append(effects, domain.Effect{
					WarehouseID: line.WarehouseID, ItemID: line.ItemID, BatchCode: leg.BatchCode,
					QtyDelta: leg.Delta, Ref: docNo, RefLine: legRefLineStart + i, Reason: domain.Reason(reasonInternalOut),
				})
			}
		}
	}

	if len(effects) > 0 {
		if err := w.enforcer.Enforce(ctx, scope, docNo, effects, occurredAt); err != nil {
			return nil, err
		}
	}
	return results, nil
}
