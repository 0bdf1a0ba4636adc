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

// ItemHandler exposes the catalogue's read path. Catalogue management
// (create/update/delete) is an external collaborator;
// Inventory Core only reads item master data.
type ItemHandler struct {
	items  *repository.ItemRepository
	logger *logger.Logger
}

func NewItemHandler(items *repository.ItemRepository, log *logger.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: log}
}

// Get resolves an item by its numeric ID.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.Error(w, errors.BadRequest("id must be numeric"))
		return
	}

	item, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// GetBySKU resolves an item by its SKU.
func (h *ItemHandler) GetBySKU(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	item, err := h.items.GetBySKU(r.Context(), sku)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// GetByBarcode resolves an item by one of its registered barcodes, the same
// lookup the scan orchestrator's second resolution layer uses.
func (h *ItemHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if len(barcode) > 200 {
		httputil.Error(w, errors.BadRequest("barcode too long"))
		return
	}

	item, err := h.items.GetByBarcode(r.Context(), barcode)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}
