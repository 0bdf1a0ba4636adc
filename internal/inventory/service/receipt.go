package service

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// ReceiptLine is one line of a confirmed receipt document.
type ReceiptLine struct {
	LineNo         int
	WarehouseID    int64
	ItemID         int64
	Qty            int
	BatchCode      *string
	ProductionDate *time.Time
	ExpiryDate     *time.Time
}

// ReceiptLineResult reports what happened to one line.
type ReceiptLineResult struct {
	LineNo int
	Result *AdjustResult
	Err    *errors.AppError
}

// ReceiptWorkflow confirms an inbound receipt document: one positive adjust
// per line, then three-books enforcement over the whole document.
type ReceiptWorkflow struct {
	mutator  *StockMutator
	enforcer *ThreeBooksEnforcer
	log      *logger.Logger
}

func NewReceiptWorkflow(mutator *StockMutator, enforcer *ThreeBooksEnforcer, log *logger.Logger) *ReceiptWorkflow {
	return &ReceiptWorkflow{mutator: mutator, enforcer: enforcer, log: log}
}

// Confirm adjusts every line of receiptNo and enforces three-books
// consistency over the document as a whole.
func (w *ReceiptWorkflow) Confirm(ctx context.Context, scope, receiptNo string, lines []ReceiptLine, occurredAt time.Time, traceID *string) ([]ReceiptLineResult, error) {
	results := make([]ReceiptLineResult, 0, len(lines))
	effects := make([]domain.Effect, 0, len(lines))

	for _, line := range lines {
		res, err := w.mutator.Adjust(ctx, AdjustInput{
			Scope:          scope,
			WarehouseID:    line.WarehouseID,
			ItemID:         line.ItemID,
			BatchCode:      line.BatchCode,
			Delta:          line.Qty,
			Reason:         "RECEIPT",
			Ref:            receiptNo,
			RefLine:        line.LineNo,
			OccurredAt:     occurredAt,
			ProductionDate: line.ProductionDate,
			ExpiryDate:     line.ExpiryDate,
			TraceID:        traceID,
		})
		if err != nil {
			appErr, ok := err.(*errors.AppError)
			if !ok {
				return nil, err
			}
			results = append(results, ReceiptLineResult{LineNo: line.LineNo, Err: appErr})
			continue
		}
		results = append(results, ReceiptLineResult{LineNo: line.LineNo, Result: res})
		if res.Applied && res.Delta != 0 {
			effects = append(effects, domain.Effect{
				WarehouseID: line.WarehouseID,
				ItemID:      line.ItemID,
				BatchCode:   line.BatchCode,
				QtyDelta:    line.Qty,
				Ref:         receiptNo,
				RefLine:     line.LineNo,
				Reason:      domain.ReasonReceipt,
			})
		}
	}

	if len(effects) > 0 {
		if err := w.enforcer.Enforce(ctx, scope, receiptNo, effects, occurredAt); err != nil {
			return nil, err
		}
	}
	return results, nil
}
