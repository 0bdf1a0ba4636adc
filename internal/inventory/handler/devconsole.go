package handler

import (
	"net/http"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/httputil"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// DevConsoleHandler exposes the development-only seed and replay endpoints.
// Only mounted when the environment is "development"; never part of a
// deployed surface.
type DevConsoleHandler struct {
	mutator        *service.StockMutator
	snapshotEngine *service.SnapshotEngine
	ledger         *repository.LedgerRepository
	logger         *logger.Logger
}

func NewDevConsoleHandler(mutator *service.StockMutator, snapshotEngine *service.SnapshotEngine, ledger *repository.LedgerRepository, log *logger.Logger) *DevConsoleHandler {
	return &DevConsoleHandler{mutator: mutator, snapshotEngine: snapshotEngine, ledger: ledger, logger: log}
}

type seedLineRequest struct {
	WarehouseID    int64      `json:"warehouse_id" validate:"required"`
	ItemID         int64      `json:"item_id" validate:"required"`
	BatchCode      *string    `json:"batch_code"`
	Qty            int        `json:"qty" validate:"required"`
	ProductionDate *time.Time `json:"production_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
}

type seedLedgerRequest struct {
	Ref        string            `json:"ref" validate:"required"`
	OccurredAt time.Time         `json:"occurred_at"`
	Lines      []seedLineRequest `json:"lines" validate:"required,min=1"`
}

// SeedLedger writes one adjustment per line under the given ref, then
// rebuilds today's snapshot, so a local scenario can be staged with a single
// call. Deltas may be negative to stage partially-consumed batches.
func (h *DevConsoleHandler) SeedLedger(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req seedLedgerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	subReason := "DEV_SEED"
	results := make([]*service.AdjustResult, 0, len(req.Lines))
	for i, l := range req.Lines {
		res, err := h.mutator.Adjust(r.Context(), service.AdjustInput{
			Scope:          s.String(),
			WarehouseID:    l.WarehouseID,
			ItemID:         l.ItemID,
			BatchCode:      l.BatchCode,
			Delta:          l.Qty,
			Reason:         "ADJUSTMENT",
			SubReason:      &subReason,
			Ref:            req.Ref,
			RefLine:        i + 1,
			OccurredAt:     occurredAt,
			ProductionDate: l.ProductionDate,
			ExpiryDate:     l.ExpiryDate,
			TraceID:        traceID(r),
		})
		if err != nil {
			httputil.Error(w, err)
			return
		}
		results = append(results, res)
	}

	if err := h.snapshotEngine.RebuildToday(r.Context(), s.String()); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, results)
}

type replayRequest struct {
	Ref string `json:"ref" validate:"required"`
}

type replayRowResult struct {
	RefLine    int  `json:"ref_line"`
	Idempotent bool `json:"idempotent"`
}

// Replay re-issues every ledger row recorded under a ref through the adjust
// primitive with its original fingerprint. Every row must come back
// idempotent; a row that applies again means the fingerprint no longer
// matches what was stored and is worth investigating.
func (h *DevConsoleHandler) Replay(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req replayRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	entries, err := h.ledger.Query(r.Context(), repository.QueryFilter{Scope: s.String(), Ref: &req.Ref})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if len(entries) == 0 {
		httputil.Error(w, errors.NotFound("no ledger rows under ref "+req.Ref))
		return
	}

	rows := make([]replayRowResult, 0, len(entries))
	for _, e := range entries {
		res, err := h.mutator.Adjust(r.Context(), service.AdjustInput{
			Scope:                e.Scope,
			WarehouseID:          e.WarehouseID,
			ItemID:               e.ItemID,
			BatchCode:            e.BatchCode,
			Delta:                e.Delta,
			Reason:               e.Reason,
			SubReason:            e.SubReason,
			Ref:                  e.Ref,
			RefLine:              e.RefLine,
			OccurredAt:           e.OccurredAt,
			ProductionDate:       e.ProductionDate,
			ExpiryDate:           e.ExpiryDate,
			TraceID:              traceID(r),
			AllowZeroDeltaLedger: e.Delta == 0,
		})
		if err != nil {
			httputil.Error(w, err)
			return
		}
		rows = append(rows, replayRowResult{RefLine: e.RefLine, Idempotent: res.Idempotent})
	}
	httputil.JSON(w, http.StatusOK, rows)
}
