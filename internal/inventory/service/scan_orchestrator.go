package service

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/orchestrator"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/database"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

const scanRefMaxLen = 128

// ScanRequest is one scanned payload to dispatch.
type ScanRequest struct {
	Device          string
	Mode            string // receive, pick, count
	Payload         string
	OccurredAt      time.Time
	WarehouseIDHint *int64
	Probe           bool
}

// ScanResult is what the caller renders back to the floor device.
type ScanResult struct {
	OK      bool
	ScanRef string
	Probe   bool
	Errors  []string

	ReceiptResults []ReceiptLineResult
	ShipResults    []ShipLineResult
	CountResult    *AdjustResult
}

// resolved is the normalised (mode, item, warehouse, batch, qty, dates)
// tuple every workflow dispatch starts from.
type resolved struct {
	ItemID         int64
	WarehouseID    int64
	BatchCode      *string
	Qty            int
	ProductionDate *time.Time
	ExpiryDate     *time.Time
}

// ScanOrchestrator parses a scan payload and routes it to a workflow. It
// never touches stocks directly. Probe runs the workflow inside a
// SAVEPOINT that is always rolled back; commit runs and keeps the result.
type ScanOrchestrator struct {
	db      *database.DB
	items   *repository.ItemRepository
	receipt *ReceiptWorkflow
	ship    *ShipWorkflow
	count   *CountWorkflow
	log     *logger.Logger
}

func NewScanOrchestrator(db *database.DB, items *repository.ItemRepository, receipt *ReceiptWorkflow, ship *ShipWorkflow, count *CountWorkflow, log *logger.Logger) *ScanOrchestrator {
	return &ScanOrchestrator{db: db, items: items, receipt: receipt, ship: ship, count: count, log: log}
}

// Dispatch resolves req.Payload, then runs the matching workflow either as
// a probe (always rolled back) or a commit, inside the caller's
// WithScope-established transaction.
func (o *ScanOrchestrator) Dispatch(ctx context.Context, scope string, req ScanRequest) (*ScanResult, error) {
	if req.Mode == "putaway" {
		return nil, errors.FeatureDisabled("putaway")
	}
	if req.Mode != "receive" && req.Mode != "pick" && req.Mode != "count" {
		return nil, errors.BadRequest("unrecognised scan mode: " + req.Mode)
	}

	scanRef := orchestrator.ScanRef(req.Device, req.OccurredAt, req.Payload, scanRefMaxLen)

	// Probe mode never invokes pick's handler — parse-only, to avoid
	// reserving batches a UI pre-flight would otherwise lock.
	if req.Probe && req.Mode == "pick" {
		r, err := o.resolve(ctx, req.Payload, req.WarehouseIDHint)
		if err != nil {
			return &ScanResult{OK: false, Probe: true, ScanRef: scanRef, Errors: []string{err.Error()}}, nil
		}
		return &ScanResult{OK: true, Probe: true, ScanRef: scanRef, ShipResults: []ShipLineResult{{
			WarehouseID: r.WarehouseID, ItemID: r.ItemID, BatchCode: r.BatchCode, Status: ShipLineOK,
		}}}, nil
	}

	var result *ScanResult
	run := func(ctx context.Context) error {
		r, err := o.resolve(ctx, req.Payload, req.WarehouseIDHint)
		if err != nil {
			return err
		}

		switch req.Mode {
		case "receive":
			lines := []ReceiptLine{{
				LineNo: 1, WarehouseID: r.WarehouseID, ItemID: r.ItemID, Qty: r.Qty,
				BatchCode: r.BatchCode, ProductionDate: r.ProductionDate, ExpiryDate: r.ExpiryDate,
			}}
			lineResults, err := o.receipt.Confirm(ctx, scope, scanRef, lines, req.OccurredAt, nil)
			if err != nil {
				return err
			}
			result = &ScanResult{OK: true, ScanRef: scanRef, ReceiptResults: lineResults}
		case "pick":
			lines := []ShipLine{{WarehouseID: r.WarehouseID, ItemID: r.ItemID, BatchCode: r.BatchCode, Want: r.Qty}}
			lineResults, err := o.ship.Ship(ctx, scope, scanRef, lines, req.OccurredAt, nil)
			if err != nil {
				return err
			}
			result = &ScanResult{OK: true, ScanRef: scanRef, ShipResults: lineResults}
		case "count":
			res, err := o.count.Count(ctx, scope, r.WarehouseID, r.ItemID, r.BatchCode, r.Qty, scanRef, req.OccurredAt, nil)
			if err != nil {
				return err
			}
			result = &ScanResult{OK: true, ScanRef: scanRef, CountResult: res}
		}
		return nil
	}

	var runErr error
	if req.Probe {
		runErr = o.db.Probe(ctx, run)
	} else {
		runErr = run(ctx)
	}

	if runErr != nil {
		o.log.Error().Str("scan_ref", scanRef).Str("mode", req.Mode).Err(runErr).Msg("scan dispatch failed")
		return &ScanResult{OK: false, Probe: req.Probe, ScanRef: scanRef, Errors: []string{runErr.Error()}}, nil
	}
	if result != nil {
		result.Probe = req.Probe
	}
	return result, nil
}

// resolve runs the three resolution layers in order: explicit KV tokens,
// barcode table lookup, GS1 parser. Fails fast with UnknownBarcode when
// nothing resolves.
func (o *ScanOrchestrator) resolve(ctx context.Context, payload string, warehouseHint *int64) (*resolved, error) {
	r := &resolved{}

	if tokens, ok := orchestrator.ParseTokens(payload); ok {
		if tokens.ItemID != nil {
			r.ItemID = *tokens.ItemID
		}
		if tokens.WarehouseID != nil {
			r.WarehouseID = *tokens.WarehouseID
		}
		if tokens.Qty != nil {
			r.Qty = *tokens.Qty
		}
		r.BatchCode = tokens.BatchCode
		if tokens.ProductionDate != nil {
			if t, ok := orchestrator.ParseDate(*tokens.ProductionDate); ok {
				r.ProductionDate = t
			}
		}
		if tokens.ExpiryDate != nil {
			if t, ok := orchestrator.ParseDate(*tokens.ExpiryDate); ok {
				r.ExpiryDate = t
			}
		}
		if r.ItemID != 0 {
			if r.WarehouseID == 0 && warehouseHint != nil {
				r.WarehouseID = *warehouseHint
			}
			return r, nil
		}
	}

	if item, err := o.items.GetByBarcode(ctx, payload); err == nil {
		r.ItemID = item.ID
		if warehouseHint != nil {
			r.WarehouseID = *warehouseHint
		}
		return r, nil
	}

	if gs1, ok := orchestrator.ParseGS1(payload); ok {
		if gs1.BatchLot != nil {
			r.BatchCode = gs1.BatchLot
		}
		r.ExpiryDate = gs1.ExpiryDate
		if gs1.GTIN != nil {
			item, err := o.items.GetByBarcode(ctx, *gs1.GTIN)
			if err == nil {
				r.ItemID = item.ID
				if warehouseHint != nil {
					r.WarehouseID = *warehouseHint
				}
				return r, nil
			}
		}
	}

	return nil, errors.UnknownBarcode(payload)
}
