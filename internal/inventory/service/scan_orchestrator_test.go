package service_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/scope"
)

func newScanOrchestrator(h *harness) *service.ScanOrchestrator {
	return service.NewScanOrchestrator(suite.DB, h.items, h.receipt, h.ship, h.count, suite.Logger)
}

func TestScanOrchestrator_Dispatch_ReceiveByKVTokensCommits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()
	orc := newScanOrchestrator(h)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-SCAN-1", "Scan Item 1", nil)
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		payload := "ITM:" + itoa(itemID) + " WH:1 QTY:5"
		res, err := orc.Dispatch(ctx, scope.Prod.String(), service.ScanRequest{
			Device: "handheld-1", Mode: "receive", Payload: payload, OccurredAt: time.Now(),
		})
		require.NoError(t, err)
		require.True(t, res.OK)
		require.Len(t, res.ReceiptResults, 1)
		require.True(t, res.ReceiptResults[0].Result.Applied)
		return nil
	})
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		qty, err := h.stocks.Get(ctx, scope.Prod.String(), 1, itemID, "__NULL_BATCH__")
		require.NoError(t, err)
		require.Equal(t, 5, qty)
		return nil
	})
	require.NoError(t, err)
}

func TestScanOrchestrator_Dispatch_CountByBarcodeTable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()
	orc := newScanOrchestrator(h)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-SCAN-2", "Scan Item 2", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedBarcode(ctx, itemID, "0123456789012"))

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		whHint := int64(1)
		res, err := orc.Dispatch(ctx, scope.Prod.String(), service.ScanRequest{
			Device: "handheld-1", Mode: "count", Payload: "0123456789012",
			OccurredAt: time.Now(), WarehouseIDHint: &whHint,
		})
		require.NoError(t, err)
		require.True(t, res.OK)
		require.NotNil(t, res.CountResult)
		return nil
	})
	require.NoError(t, err)
}

func TestScanOrchestrator_Dispatch_UnresolvablePayloadFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()
	orc := newScanOrchestrator(h)

	err := suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		res, err := orc.Dispatch(ctx, scope.Prod.String(), service.ScanRequest{
			Device: "handheld-1", Mode: "receive", Payload: "garbage-not-a-known-format", OccurredAt: time.Now(),
		})
		require.NoError(t, err, "resolution failures are reported on the result, not returned as an error")
		require.False(t, res.OK)
		require.NotEmpty(t, res.Errors)
		return nil
	})
	require.NoError(t, err)
}

func TestScanOrchestrator_Dispatch_ProbeRollsBackReceive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()
	orc := newScanOrchestrator(h)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-SCAN-3", "Scan Item 3", nil)
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		payload := "ITM:" + itoa(itemID) + " WH:1 QTY:9"
		res, err := orc.Dispatch(ctx, scope.Prod.String(), service.ScanRequest{
			Device: "handheld-1", Mode: "receive", Payload: payload, OccurredAt: time.Now(), Probe: true,
		})
		require.NoError(t, err)
		require.True(t, res.OK)
		require.True(t, res.Probe)

		qty, err := h.stocks.Get(ctx, scope.Prod.String(), 1, itemID, "__NULL_BATCH__")
		require.NoError(t, err)
		require.Zero(t, qty, "a probe dispatch must never leave a committed stock change behind")
		return nil
	})
	require.NoError(t, err)
}

func TestScanOrchestrator_Dispatch_ProbePickNeverLocksBatches(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()
	orc := newScanOrchestrator(h)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-SCAN-4", "Scan Item 4", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedStock(ctx, scope.Prod, 1, itemID, nil, 10))

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		payload := "ITM:" + itoa(itemID) + " WH:1 QTY:3"
		res, err := orc.Dispatch(ctx, scope.Prod.String(), service.ScanRequest{
			Device: "handheld-1", Mode: "pick", Payload: payload, OccurredAt: time.Now(), Probe: true,
		})
		require.NoError(t, err)
		require.True(t, res.OK)
		require.Len(t, res.ShipResults, 1)
		require.Equal(t, service.ShipLineOK, res.ShipResults[0].Status)

		qty, err := h.stocks.Get(ctx, scope.Prod.String(), 1, itemID, "__NULL_BATCH__")
		require.NoError(t, err)
		require.Equal(t, 10, qty, "probe pick never invokes the shipment workflow")
		return nil
	})
	require.NoError(t, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
