package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/scope"
)

func TestReturnToVendorWorkflow_CreateTask_ClampsToReceived(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-RTV-1", "RTV Item 1", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedStock(ctx, scope.Prod, 1, itemID, nil, 4))
	require.NoError(t, suite.Scopes.SeedPurchaseOrder(ctx, "PO-RTV-1", 10))

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		_, err := h.receipt.Confirm(ctx, scope.Prod.String(), "PO-RTV-1", []service.ReceiptLine{
			{LineNo: 1, WarehouseID: 1, ItemID: itemID, Qty: 10},
		}, time.Now(), nil)
		return err
	})
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		line, err := h.rtv.CreateTask(ctx, scope.Prod.String(), 1, "PO-RTV-1", 1, itemID, nil)
		require.NoError(t, err)
		require.Equal(t, 10, line.ExpectedQty, "expected is min(po.received=10, available=4+10=14) = 10")
		return nil
	})
	require.NoError(t, err)
}

func TestReturnToVendorWorkflow_Commit_EmitsOneAdjustPerPickedLine(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-RTV-2", "RTV Item 2", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedPurchaseOrder(ctx, "PO-RTV-2", 10))

	now := time.Now()
	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		_, err := h.receipt.Confirm(ctx, scope.Prod.String(), "PO-RTV-2", []service.ReceiptLine{
			{LineNo: 1, WarehouseID: 1, ItemID: itemID, Qty: 10},
		}, now, nil)
		return err
	})
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		line, err := h.rtv.CreateTask(ctx, scope.Prod.String(), 1, "PO-RTV-2", 1, itemID, nil)
		require.NoError(t, err)
		h.rtv.RecordPick(line, 3)

		task := &service.ReturnTask{TaskRef: "RTV-TASK-1", POReference: "PO-RTV-2", Lines: []*service.ReturnTaskLine{line}}
		results, err := h.rtv.Commit(ctx, scope.Prod.String(), task, now, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, 7, results[0].After)

		// Commit's Effect must carry the raw "RETURN_OUT" reason the adjust
		// itself was written with, not its canonical "SHIPMENT" family --
		// otherwise ThreeBooksEnforcer.Exists looks up a row that was never
		// written and Commit would have failed above.
		exists, err := h.ledger.Exists(ctx, scope.Prod.String(), 1, itemID, domain.NullBatchKey, "RETURN_OUT", "RTN-RTV-TASK-1", line.LineID)
		require.NoError(t, err)
		require.True(t, exists, "ledger row for RETURN_OUT must exist under its raw reason")
		return nil
	})
	require.NoError(t, err)
}
