package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
)

func TestStockRepository_EnsureZero_LockForUpdate_ApplyDelta(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-STOCK-1", "Stock Item 1", nil)
	require.NoError(t, err)

	repo := repository.NewStockRepository(suite.DB)

	err = suite.DB.WithScope(ctx, testScope.String(), func(ctx context.Context) error {
		require.NoError(t, repo.EnsureZero(ctx, testScope.String(), 1, itemID, nil, "__NULL_BATCH__"))

		slot, err := repo.LockForUpdate(ctx, testScope.String(), 1, itemID, "__NULL_BATCH__")
		require.NoError(t, err)
		require.NotNil(t, slot)
		require.Equal(t, 0, slot.Qty)

		qty, err := repo.Get(ctx, testScope.String(), 1, itemID, "__NULL_BATCH__")
		require.NoError(t, err)
		require.Equal(t, 0, qty)

		newQty, err := repo.ApplyDelta(ctx, slot.ID, 5)
		require.NoError(t, err)
		require.Equal(t, 5, newQty)
		return nil
	})
	require.NoError(t, err)
}

func TestStockRepository_Get_MissingSlotReturnsZeroNotError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)
	repo := repository.NewStockRepository(suite.DB)

	qty, err := repo.Get(ctx, testScope.String(), 1, 999999, "__NULL_BATCH__")
	require.NoError(t, err)
	require.Zero(t, qty)
}

func TestStockRepository_LockAllForUpdate_ReturnsOnlyMatchingSlots(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)

	itemA, err := suite.Scopes.SeedItem(ctx, "SKU-STOCK-2A", "Stock Item 2A", nil)
	require.NoError(t, err)
	itemB, err := suite.Scopes.SeedItem(ctx, "SKU-STOCK-2B", "Stock Item 2B", nil)
	require.NoError(t, err)

	batch1 := "LOT-1"
	batch2 := "LOT-2"
	require.NoError(t, suite.Scopes.SeedStock(ctx, testScope, 1, itemA, &batch1, 5))
	require.NoError(t, suite.Scopes.SeedStock(ctx, testScope, 1, itemA, &batch2, 7))
	require.NoError(t, suite.Scopes.SeedStock(ctx, testScope, 1, itemB, nil, 9))

	repo := repository.NewStockRepository(suite.DB)
	err = suite.DB.WithScope(ctx, testScope.String(), func(ctx context.Context) error {
		slots, err := repo.LockAllForUpdate(ctx, testScope.String(), 1, itemA)
		require.NoError(t, err)
		require.Len(t, slots, 2, "only item A's slots, not item B's, are returned")
		return nil
	})
	require.NoError(t, err)
}

func TestStockRepository_ListByScope_ReturnsEveryMaterialisedSlot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-STOCK-3", "Stock Item 3", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedStock(ctx, testScope, 1, itemID, nil, 3))

	repo := repository.NewStockRepository(suite.DB)
	slots, err := repo.ListByScope(ctx, testScope.String())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, itemID, slots[0].ItemID)
}
