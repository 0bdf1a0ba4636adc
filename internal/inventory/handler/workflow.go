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

// WorkflowHandler exposes the document-confirmation endpoints: receipt,
// ship, count, return-to-vendor, and internal issue. Each wraps one
// service-layer workflow and carries the caller's scope from context.
type WorkflowHandler struct {
	receipt *service.ReceiptWorkflow
	ship    *service.ShipWorkflow
	count   *service.CountWorkflow
	rtv     *service.ReturnToVendorWorkflow
	issue   *service.InternalIssueWorkflow
	logger  *logger.Logger
}

func NewWorkflowHandler(
	receipt *service.ReceiptWorkflow,
	ship *service.ShipWorkflow,
	count *service.CountWorkflow,
	rtv *service.ReturnToVendorWorkflow,
	issue *service.InternalIssueWorkflow,
	log *logger.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{receipt: receipt, ship: ship, count: count, rtv: rtv, issue: issue, logger: log}
}

type receiptLineRequest struct {
	LineNo         int        `json:"line_no" validate:"required"`
	WarehouseID    int64      `json:"warehouse_id" validate:"required"`
	ItemID         int64      `json:"item_id" validate:"required"`
	Qty            int        `json:"qty" validate:"required"`
	BatchCode      *string    `json:"batch_code"`
	ProductionDate *time.Time `json:"production_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
}

type confirmReceiptRequest struct {
	ReceiptNo  string               `json:"receipt_no" validate:"required"`
	OccurredAt time.Time            `json:"occurred_at"`
	Lines      []receiptLineRequest `json:"lines" validate:"required,min=1"`
}

// ConfirmReceipt confirms an inbound receipt document.
func (h *WorkflowHandler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req confirmReceiptRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	lines := make([]service.ReceiptLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.ReceiptLine{
			LineNo: l.LineNo, WarehouseID: l.WarehouseID, ItemID: l.ItemID, Qty: l.Qty,
			BatchCode: l.BatchCode, ProductionDate: l.ProductionDate, ExpiryDate: l.ExpiryDate,
		})
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	results, err := h.receipt.Confirm(r.Context(), s.String(), req.ReceiptNo, lines, occurredAt, traceID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, results)
}

type shipLineRequest struct {
	WarehouseID int64   `json:"warehouse_id" validate:"required"`
	ItemID      int64   `json:"item_id" validate:"required"`
	BatchCode   *string `json:"batch_code"`
	Want        int     `json:"want" validate:"required"`
}

type shipOrderRequest struct {
	OrderID    string            `json:"order_id" validate:"required"`
	OccurredAt time.Time         `json:"occurred_at"`
	Lines      []shipLineRequest `json:"lines" validate:"required,min=1"`
}

// Ship fulfills an outbound order, FEFO-allocating any line without an
// explicit batch code.
func (h *WorkflowHandler) Ship(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req shipOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	lines := make([]service.ShipLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.ShipLine{
			WarehouseID: l.WarehouseID, ItemID: l.ItemID, BatchCode: l.BatchCode, Want: l.Want,
		})
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	results, err := h.ship.Ship(r.Context(), s.String(), req.OrderID, lines, occurredAt, traceID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, results)
}

type countRequest struct {
	WarehouseID int64   `json:"warehouse_id" validate:"required"`
	ItemID      int64   `json:"item_id" validate:"required"`
	BatchCode   *string `json:"batch_code"`
	// Actual is a pointer so "counted down to zero" passes required: the
	// check asserts presence, not a non-zero value.
	Actual     *int      `json:"actual" validate:"required,gte=0"`
	Ref        string    `json:"ref" validate:"required"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Count reconciles a counted quantity against the book balance, writing an
// ADJUSTMENT for the delta.
func (h *WorkflowHandler) Count(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req countRequest
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

	result, err := h.count.Count(r.Context(), s.String(), req.WarehouseID, req.ItemID, req.BatchCode, *req.Actual, req.Ref, occurredAt, traceID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

type internalIssueLineRequest struct {
	LineNo      int     `json:"line_no" validate:"required"`
	WarehouseID int64   `json:"warehouse_id" validate:"required"`
	ItemID      int64   `json:"item_id" validate:"required"`
	BatchCode   *string `json:"batch_code"`
	Qty         int     `json:"qty" validate:"required"`
}

type confirmInternalIssueRequest struct {
	DocNo         string                     `json:"doc_no" validate:"required"`
	RecipientName string                     `json:"recipient_name" validate:"required"`
	OccurredAt    time.Time                  `json:"occurred_at"`
	Lines         []internalIssueLineRequest `json:"lines" validate:"required,min=1"`
}

// ConfirmInternalIssue confirms an internal issue document against a named
// recipient department.
func (h *WorkflowHandler) ConfirmInternalIssue(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req confirmInternalIssueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	lines := make([]service.InternalIssueLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.InternalIssueLine{
			LineNo: l.LineNo, WarehouseID: l.WarehouseID, ItemID: l.ItemID, BatchCode: l.BatchCode, Qty: l.Qty,
		})
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	results, err := h.issue.Confirm(r.Context(), s.String(), req.DocNo, req.RecipientName, lines, occurredAt, traceID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, results)
}

type rtvCreateTaskRequest struct {
	LineID      int     `json:"line_id" validate:"required"`
	POReference string  `json:"po_reference" validate:"required"`
	WarehouseID int64   `json:"warehouse_id" validate:"required"`
	ItemID      int64   `json:"item_id" validate:"required"`
	BatchCode   *string `json:"batch_code"`
}

// CreateReturnTask opens a return-to-vendor task line clamped to the PO's
// outstanding received quantity.
func (h *WorkflowHandler) CreateReturnTask(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req rtvCreateTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	line, err := h.rtv.CreateTask(r.Context(), s.String(), req.LineID, req.POReference, req.WarehouseID, req.ItemID, req.BatchCode)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, line)
}

type rtvCommitLineRequest struct {
	LineID      int     `json:"line_id"`
	WarehouseID int64   `json:"warehouse_id"`
	ItemID      int64   `json:"item_id"`
	BatchCode   *string `json:"batch_code"`
	PickedQty   int     `json:"picked_qty"`
}

type rtvCommitRequest struct {
	TaskRef     string                 `json:"task_ref" validate:"required"`
	POReference string                 `json:"po_reference" validate:"required"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Lines       []rtvCommitLineRequest `json:"lines" validate:"required,min=1"`
}

// CommitReturnTask commits a return-to-vendor task: one outbound adjust per
// picked line, then decrements the PO's received counter.
func (h *WorkflowHandler) CommitReturnTask(w http.ResponseWriter, r *http.Request) {
	s, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req rtvCommitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	task := &service.ReturnTask{TaskRef: req.TaskRef, POReference: req.POReference}
	for _, l := range req.Lines {
		task.Lines = append(task.Lines, &service.ReturnTaskLine{
			LineID: l.LineID, WarehouseID: l.WarehouseID, ItemID: l.ItemID,
			BatchCode: l.BatchCode, PickedQty: l.PickedQty,
		})
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	results, err := h.rtv.Commit(r.Context(), s.String(), task, occurredAt, traceID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, results)
}

// requireScope reads the request scope or writes a 400 and reports false.
func requireScope(w http.ResponseWriter, r *http.Request) (scope.Scope, bool) {
	s, err := scope.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing scope"))
		return "", false
	}
	return s, true
}

// traceID surfaces the request ID as the ledger's trace_id so a support
// engineer can join an HTTP access log entry back to its ledger rows.
func traceID(r *http.Request) *string {
	id := httputil.GetRequestID(r.Context())
	if id == "" {
		return nil
	}
	return &id
}
