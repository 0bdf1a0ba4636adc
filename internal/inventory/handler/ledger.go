package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/httputil"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// LedgerHandler exposes the ledger's read-model: history/dashboard queries
// over the append-only movement log. Not part of the invariant loop.
type LedgerHandler struct {
	ledger *repository.LedgerRepository
	logger *logger.Logger
}

func NewLedgerHandler(ledger *repository.LedgerRepository, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: log}
}

// Query lists ledger entries matching the request's filters, newest first.
func (h *LedgerHandler) Query(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	f := repository.QueryFilter{Scope: s.String()}
	q := r.URL.Query()

	if v := q.Get("warehouse_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.Error(w, errors.BadRequest("warehouse_id must be numeric"))
			return
		}
		f.WarehouseID = &id
	}
	if v := q.Get("item_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.Error(w, errors.BadRequest("item_id must be numeric"))
			return
		}
		f.ItemID = &id
	}
	if v := q.Get("ref"); v != "" {
		f.Ref = &v
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.Error(w, errors.BadRequest("from must be RFC3339"))
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.Error(w, errors.BadRequest("to must be RFC3339"))
			return
		}
		f.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.Error(w, errors.BadRequest("limit must be numeric"))
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.Error(w, errors.BadRequest("offset must be numeric"))
			return
		}
		f.Offset = n
	}

	entries, err := h.ledger.Query(r.Context(), f)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}
