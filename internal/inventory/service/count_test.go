package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/pkg/scope"
)

func TestCountWorkflow_Count_ConfirmsWhenActualMatchesBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-CNT-1", "Count Item 1", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedStock(ctx, scope.Prod, 1, itemID, nil, 12))

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		res, err := h.count.Count(ctx, scope.Prod.String(), 1, itemID, nil, 12, "CNT-1", time.Now(), nil)
		require.NoError(t, err)
		require.True(t, res.Applied, "a zero-delta count confirm still writes a ledger row")
		require.Zero(t, res.Delta)
		require.Equal(t, 12, res.After)
		return nil
	})
	require.NoError(t, err)
}

func TestCountWorkflow_Count_AdjustsWhenActualDiffersFromBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-CNT-2", "Count Item 2", nil)
	require.NoError(t, err)
	require.NoError(t, suite.Scopes.SeedStock(ctx, scope.Prod, 1, itemID, nil, 10))

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		res, err := h.count.Count(ctx, scope.Prod.String(), 1, itemID, nil, 7, "CNT-2", time.Now(), nil)
		require.NoError(t, err)
		require.True(t, res.Applied)
		require.False(t, res.Idempotent)
		require.Equal(t, 7, res.After)
		require.Equal(t, -3, res.Delta)
		return nil
	})
	require.NoError(t, err)
}

func TestCountWorkflow_Count_MissingStockTreatedAsZero(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-CNT-3", "Count Item 3", nil)
	require.NoError(t, err)

	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		res, err := h.count.Count(ctx, scope.Prod.String(), 1, itemID, nil, 4, "CNT-3", time.Now(), nil)
		require.NoError(t, err)
		require.True(t, res.Applied)
		require.Equal(t, 4, res.After)
		require.Equal(t, 4, res.Delta)
		return nil
	})
	require.NoError(t, err)
}
