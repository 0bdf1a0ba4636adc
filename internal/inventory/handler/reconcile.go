package handler

import (
	"net/http"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/httputil"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// ReconcileHandler exposes the diagnostic three-books diff, the aggregate
// three-books summary for sanity panels, and the one-time opening-balance
// cutover. None of these is part of normal steady-state traffic.
type ReconcileHandler struct {
	reconcile      *service.ReconcileService
	snapshotEngine *service.SnapshotEngine
	logger         *logger.Logger
}

func NewReconcileHandler(reconcile *service.ReconcileService, snapshotEngine *service.SnapshotEngine, log *logger.Logger) *ReconcileHandler {
	return &ReconcileHandler{reconcile: reconcile, snapshotEngine: snapshotEngine, logger: log}
}

// ThreeBooksSummary reports Σqty of stocks, Σdelta of ledger, and
// Σqty_on_hand of today's snapshot for the caller's scope.
func (h *ReconcileHandler) ThreeBooksSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	totals, err := h.snapshotEngine.ThreeBooksSummary(r.Context(), s.String())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, totals)
}

// Diff reports every key where the ledger's running sum disagrees with the
// stocks table for the caller's scope.
func (h *ReconcileHandler) Diff(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	drift, err := h.reconcile.DiffLedgerVsStocks(r.Context(), s.String())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, drift)
}

type backfillRequest struct {
	Epoch time.Time `json:"epoch"`
}

// Backfill writes one opening-balance ADJUSTMENT per drifting key, bringing
// the ledger back in sync with stocks. A one-time cutover operation.
func (h *ReconcileHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req backfillRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	epoch := req.Epoch
	if epoch.IsZero() {
		httputil.Error(w, errors.BadRequest("epoch is required"))
		return
	}

	written, err := h.reconcile.OpeningBalanceBackfill(r.Context(), s.String(), epoch)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int{"keys_backfilled": written})
}
