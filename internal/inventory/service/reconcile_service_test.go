package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/scope"
)

func TestReconcileService_DiffLedgerVsStocks_FindsDriftFromDirectlySeededStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-RECON-1", "Reconcile Item 1", nil)
	require.NoError(t, err)
	// Seeded directly against stocks, bypassing the ledger entirely, so it
	// disagrees with Σledger.delta (which is zero for this key).
	require.NoError(t, suite.Scopes.SeedStock(ctx, scope.Prod, 1, itemID, nil, 9))

	reconcile := repository.NewReconcileRepository(suite.DB)
	ledger := repository.NewLedgerRepository(suite.DB)
	svc := service.NewReconcileService(reconcile, ledger, suite.Logger)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		drift, err := svc.DiffLedgerVsStocks(ctx, scope.Prod.String())
		require.NoError(t, err)
		require.Len(t, drift, 1)
		require.Equal(t, itemID, drift[0].ItemID)
		require.Equal(t, 9, drift[0].StocksQty)
		require.Equal(t, 0, drift[0].LedgerSum)
		return nil
	})
	require.NoError(t, err)
}

func TestReconcileService_OpeningBalanceBackfill_ResolvesDriftAndIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-RECON-2", "Reconcile Item 2", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedStock(ctx, scope.Prod, 1, itemID, nil, 6))

	reconcile := repository.NewReconcileRepository(suite.DB)
	ledger := repository.NewLedgerRepository(suite.DB)
	svc := service.NewReconcileService(reconcile, ledger, suite.Logger)

	epoch := time.Unix(0, 0).UTC()
	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		written, err := svc.OpeningBalanceBackfill(ctx, scope.Prod.String(), epoch)
		require.NoError(t, err)
		require.Equal(t, 1, written)

		drift, err := svc.DiffLedgerVsStocks(ctx, scope.Prod.String())
		require.NoError(t, err)
		require.Empty(t, drift, "backfilling an opening balance entry must close the drift")

		// Running again finds nothing left to backfill.
		written2, err := svc.OpeningBalanceBackfill(ctx, scope.Prod.String(), epoch)
		require.NoError(t, err)
		require.Equal(t, 0, written2)
		return nil
	})
	require.NoError(t, err)
}
