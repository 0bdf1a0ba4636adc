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

func TestThreeBooksEnforcer_Enforce_PassesAfterConsistentMutation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-3B-1", "Three Books Item 1", nil)
	require.NoError(t, err)

	now := time.Now()
	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		res, err := h.mutator.Adjust(ctx, service.AdjustInput{
			Scope: scope.Prod.String(), WarehouseID: 1, ItemID: itemID,
			Delta: 10, Reason: "RECEIPT", Ref: "REF-3B-1", RefLine: 1, OccurredAt: now,
		})
		require.NoError(t, err)
		require.True(t, res.Applied)

		effects := []domain.Effect{{
			WarehouseID: 1, ItemID: itemID, QtyDelta: 10, Ref: "REF-3B-1", RefLine: 1, Reason: domain.ReasonReceipt,
		}}
		return h.enforcer.Enforce(ctx, scope.Prod.String(), "REF-3B-1", effects, now)
	})
	require.NoError(t, err)
}

func TestThreeBooksEnforcer_Enforce_FlagsMissingLedgerRow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), scope.Prod)
	h := newHarness()

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-3B-2", "Three Books Item 2", nil)
	require.NoError(t, err)

	now := time.Now()
	err = suite.DB.WithScope(ctx, scope.Prod.String(), func(ctx context.Context) error {
		// Claim an effect that never actually landed a ledger entry: the
		// enforcer must detect the mismatch rather than trust the caller.
		effects := []domain.Effect{{
			WarehouseID: 1, ItemID: itemID, QtyDelta: 10, Ref: "REF-3B-2-PHANTOM", RefLine: 1, Reason: domain.ReasonReceipt,
		}}
		err := h.enforcer.Enforce(ctx, scope.Prod.String(), "REF-3B-2-PHANTOM", effects, now)
		require.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}
