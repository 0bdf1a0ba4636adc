package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/scope"
)

func TestFefoAllocator_Plan_ConsumesEarliestExpiryFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	days := 30
	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-FEFO-1", "Perishable FEFO Item", &days)
	require.NoError(t, err)

	now := time.Now().UTC()
	earlyExpiry := now.Add(5 * 24 * time.Hour)
	lateExpiry := now.Add(40 * 24 * time.Hour)
	earlyBatch := "LOT-EARLY"
	lateBatch := "LOT-LATE"

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		// Receipt the late-expiry batch first to prove sort order isn't
		// insertion order.
		_, err := h.receipt.Confirm(ctx, scope.Prod.String(), "PO-FEFO-1", []service.ReceiptLine{
			{LineNo: 1, WarehouseID: 1, ItemID: itemID, Qty: 10, BatchCode: &lateBatch, ExpiryDate: &lateExpiry},
		}, now, nil)
		if err != nil {
			return err
		}
		_, err = h.receipt.Confirm(ctx, scope.Prod.String(), "PO-FEFO-2", []service.ReceiptLine{
			{LineNo: 1, WarehouseID: 1, ItemID: itemID, Qty: 10, BatchCode: &earlyBatch, ExpiryDate: &earlyExpiry},
		}, now, nil)
		return err
	})
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		legs, err := h.fefo.Plan(ctx, scope.Prod.String(), 1, itemID, 10, now, false)
		require.NoError(t, err)
		require.Len(t, legs, 1)
		require.NotNil(t, legs[0].BatchCode)
		require.Equal(t, earlyBatch, *legs[0].BatchCode)
		require.Equal(t, 10, legs[0].Qty)
		return nil
	})
	require.NoError(t, err)
}

func TestFefoAllocator_Plan_SpansMultipleBatchesWhenFirstIsExhausted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	days := 30
	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-FEFO-2", "Perishable FEFO Item 2", &days)
	require.NoError(t, err)

	now := time.Now().UTC()
	earlyExpiry := now.Add(5 * 24 * time.Hour)
	lateExpiry := now.Add(40 * 24 * time.Hour)
	earlyBatch := "LOT-EARLY-2"
	lateBatch := "LOT-LATE-2"

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		_, err := h.receipt.Confirm(ctx, scope.Prod.String(), "PO-FEFO-3", []service.ReceiptLine{
			{LineNo: 1, WarehouseID: 1, ItemID: itemID, Qty: 6, BatchCode: &earlyBatch, ExpiryDate: &earlyExpiry},
			{LineNo: 2, WarehouseID: 1, ItemID: itemID, Qty: 6, BatchCode: &lateBatch, ExpiryDate: &lateExpiry},
		}, now, nil)
		return err
	})
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		legs, err := h.fefo.Plan(ctx, scope.Prod.String(), 1, itemID, 10, now, false)
		require.NoError(t, err)
		require.Len(t, legs, 2)
		require.Equal(t, earlyBatch, *legs[0].BatchCode)
		require.Equal(t, 6, legs[0].Qty)
		require.Equal(t, lateBatch, *legs[1].BatchCode)
		require.Equal(t, 4, legs[1].Qty)
		return nil
	})
	require.NoError(t, err)
}

func TestFefoAllocator_Plan_InsufficientStockErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	days := 30
	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-FEFO-3", "Perishable FEFO Item 3", &days)
	require.NoError(t, err)

	now := time.Now().UTC()
	expiry := now.Add(5 * 24 * time.Hour)
	batch := "LOT-SHORT"

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		_, err := h.receipt.Confirm(ctx, scope.Prod.String(), "PO-FEFO-4", []service.ReceiptLine{
			{LineNo: 1, WarehouseID: 1, ItemID: itemID, Qty: 3, BatchCode: &batch, ExpiryDate: &expiry},
		}, now, nil)
		return err
	})
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		_, err := h.fefo.Plan(ctx, scope.Prod.String(), 1, itemID, 10, now, false)
		require.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestFefoAllocator_Plan_SkipsExpiredUnlessAllowed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	days := 30
	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-FEFO-4", "Perishable FEFO Item 4", &days)
	require.NoError(t, err)

	now := time.Now().UTC()
	pastExpiry := now.Add(-24 * time.Hour)
	batch := "LOT-EXPIRED"

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		_, err := h.receipt.Confirm(ctx, scope.Prod.String(), "PO-FEFO-5", []service.ReceiptLine{
			{LineNo: 1, WarehouseID: 1, ItemID: itemID, Qty: 5, BatchCode: &batch, ExpiryDate: &pastExpiry},
		}, now, nil)
		return err
	})
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		_, err := h.fefo.Plan(ctx, scope.Prod.String(), 1, itemID, 5, now, false)
		require.Error(t, err, "expired batch must not be selected when allowExpired=false")

		legs, err := h.fefo.Plan(ctx, scope.Prod.String(), 1, itemID, 5, now, true)
		require.NoError(t, err)
		require.Len(t, legs, 1)
		return nil
	})
	require.NoError(t, err)
}
