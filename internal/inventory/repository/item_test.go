package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
)

func TestItemRepository_GetByID_GetBySKU_GetByBarcode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)

	days := 45
	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-ITEM-1", "Repository Item 1", &days)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedBarcode(ctx, itemID, "9900011112223"))

	repo := repository.NewItemRepository(suite.DB)

	byID, err := repo.GetByID(ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, "SKU-ITEM-1", byID.SKU)
	require.NotNil(t, byID.ShelfLifeDays)
	require.Equal(t, 45, *byID.ShelfLifeDays)

	bySKU, err := repo.GetBySKU(ctx, "SKU-ITEM-1")
	require.NoError(t, err)
	require.Equal(t, itemID, bySKU.ID)

	byBarcode, err := repo.GetByBarcode(ctx, "9900011112223")
	require.NoError(t, err)
	require.Equal(t, itemID, byBarcode.ID)
}

func TestItemRepository_GetByID_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)
	repo := repository.NewItemRepository(suite.DB)

	_, err := repo.GetByID(ctx, 999999)
	require.Error(t, err)
}

func TestItemRepository_GetByBarcode_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)
	repo := repository.NewItemRepository(suite.DB)

	_, err := repo.GetByBarcode(ctx, "no-such-barcode")
	require.Error(t, err)
}
