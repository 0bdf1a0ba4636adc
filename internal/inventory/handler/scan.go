package handler

import (
	"net/http"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/errors"
	"github.com/inventorycore/inventory-core/pkg/httputil"
	"github.com/inventorycore/inventory-core/pkg/logger"
	"github.com/inventorycore/inventory-core/pkg/scope"
)

// ScanHandler is the floor-device entry point: one HTTP call per scanned
// payload, dispatched to whichever workflow the device's mode names.
type ScanHandler struct {
	orchestrator *service.ScanOrchestrator
	logger       *logger.Logger
}

func NewScanHandler(orchestrator *service.ScanOrchestrator, log *logger.Logger) *ScanHandler {
	return &ScanHandler{orchestrator: orchestrator, logger: log}
}

type scanRequest struct {
	Device          string `json:"device" validate:"required"`
	Mode            string `json:"mode" validate:"required,oneof=receive pick count"`
	Payload         string `json:"payload" validate:"required"`
	WarehouseIDHint *int64 `json:"warehouse_id_hint"`
	Probe           bool   `json:"probe"`
}

// Dispatch parses and routes one scanned payload. Setting probe=true runs
// the matching workflow inside a savepoint that is always rolled back, so
// a handheld device can preview the outcome before the operator commits.
func (h *ScanHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	s, err := scope.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing scope"))
		return
	}

	var req scanRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.orchestrator.Dispatch(r.Context(), s.String(), service.ScanRequest{
		Device:          req.Device,
		Mode:            req.Mode,
		Payload:         req.Payload,
		OccurredAt:      time.Now().UTC(),
		WarehouseIDHint: req.WarehouseIDHint,
		Probe:           req.Probe,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	status := http.StatusOK
	if !result.OK {
		status = http.StatusUnprocessableEntity
	}
	httputil.JSON(w, status, result)
}
