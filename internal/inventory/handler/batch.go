package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/httputil"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// BatchHandler exposes batch descriptive metadata. Batches are created
// implicitly by the first movement against a new key (BatchRegistry.Ensure,
// called from StockMutator) — there is no direct batch-creation endpoint.
type BatchHandler struct {
	batches *repository.BatchRegistry
	logger  *logger.Logger
}

func NewBatchHandler(batches *repository.BatchRegistry, log *logger.Logger) *BatchHandler {
	return &BatchHandler{batches: batches, logger: log}
}

// ListByItem lists every registered batch for an item at a warehouse,
// earliest expiry first.
func (h *BatchHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID, ok := parseWarehouseItem(w, r)
	if !ok {
		return
	}

	batches, err := h.batches.ListByItem(r.Context(), warehouseID, itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

// Get resolves one batch's descriptive metadata by its natural key.
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID, ok := parseWarehouseItem(w, r)
	if !ok {
		return
	}
	batchCode := chi.URLParam(r, "batchCode")

	batch, err := h.batches.Get(r.Context(), warehouseID, itemID, batchCode)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if batch == nil {
		httputil.Error(w, errors.NotFound("batch"))
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

func parseWarehouseItem(w http.ResponseWriter, r *http.Request) (warehouseID, itemID int64, ok bool) {
	warehouseID, err := strconv.ParseInt(chi.URLParam(r, "warehouseID"), 10, 64)
	if err != nil {
		httputil.Error(w, errors.BadRequest("warehouseID must be numeric"))
		return 0, 0, false
	}
	itemID, err = strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httputil.Error(w, errors.BadRequest("itemID must be numeric"))
		return 0, 0, false
	}
	return warehouseID, itemID, true
}
