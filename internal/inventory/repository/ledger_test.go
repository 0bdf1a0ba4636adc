package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
)

func TestLedgerRepository_Write_ConflictIsANoopButBackfillsNilAux(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-LEDGER-1", "Ledger Item 1", nil)
	require.NoError(t, err)

	repo := repository.NewLedgerRepository(suite.DB)
	now := time.Now().UTC()

	base := repository.LedgerWriteInput{
		Scope: testScope.String(), WarehouseID: 1, ItemID: itemID,
		BatchCodeKey: "__NULL_BATCH__", Reason: "RECEIPT", ReasonCanon: domain.ReasonReceipt,
		Ref: "LEDGER-REF-1", RefLine: 1, Delta: 10, AfterQty: 10, OccurredAt: now,
	}

	id, err := repo.Write(ctx, base)
	require.NoError(t, err)
	require.NotZero(t, id)

	// Replaying the identical fingerprint (scope, warehouse, item, batch,
	// reason, ref, ref_line) must not write a second row.
	traceID := "trace-xyz"
	replay := base
	replay.TraceID = &traceID
	id2, err := repo.Write(ctx, replay)
	require.NoError(t, err)
	require.Zero(t, id2)

	sum, err := repo.SumDeltaByKey(ctx, testScope.String(), 1, itemID, "__NULL_BATCH__")
	require.NoError(t, err)
	require.Equal(t, 10, sum, "the conflicting write must not double the recorded delta")

	exists, err := repo.Exists(ctx, testScope.String(), 1, itemID, "__NULL_BATCH__", "RECEIPT", "LEDGER-REF-1", 1)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestLedgerRepository_SumDeltaByRef_MergesAcrossLines(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-LEDGER-2", "Ledger Item 2", nil)
	require.NoError(t, err)

	repo := repository.NewLedgerRepository(suite.DB)
	now := time.Now().UTC()

	_, err = repo.Write(ctx, repository.LedgerWriteInput{
		Scope: testScope.String(), WarehouseID: 1, ItemID: itemID,
		BatchCodeKey: "__NULL_BATCH__", Reason: "SHIPMENT", ReasonCanon: domain.ReasonShipment,
		Ref: "ORDER-1", RefLine: 1, Delta: -4, AfterQty: 6, OccurredAt: now,
	})
	require.NoError(t, err)
	_, err = repo.Write(ctx, repository.LedgerWriteInput{
		Scope: testScope.String(), WarehouseID: 1, ItemID: itemID,
		BatchCodeKey: "__NULL_BATCH__", Reason: "SHIPMENT", ReasonCanon: domain.ReasonShipment,
		Ref: "ORDER-1", RefLine: 2, Delta: -3, AfterQty: 3, OccurredAt: now,
	})
	require.NoError(t, err)

	sum, err := repo.SumDeltaByRef(ctx, testScope.String(), "ORDER-1", 1, itemID)
	require.NoError(t, err)
	require.Equal(t, -7, sum)
}

func TestLedgerRepository_Query_FiltersByRefAndPaginates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := suite.SetupScope(t, context.Background(), testScope)

	itemID, err := suite.Scopes.SeedItem(ctx, "SKU-LEDGER-3", "Ledger Item 3", nil)
	require.NoError(t, err)

	repo := repository.NewLedgerRepository(suite.DB)
	now := time.Now().UTC()

	for i := 1; i <= 3; i++ {
		_, err := repo.Write(ctx, repository.LedgerWriteInput{
			Scope: testScope.String(), WarehouseID: 1, ItemID: itemID,
			BatchCodeKey: "__NULL_BATCH__", Reason: "RECEIPT", ReasonCanon: domain.ReasonReceipt,
			Ref: "MATCH-REF", RefLine: i, Delta: i, AfterQty: i, OccurredAt: now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err = repo.Write(ctx, repository.LedgerWriteInput{
		Scope: testScope.String(), WarehouseID: 1, ItemID: itemID,
		BatchCodeKey: "__NULL_BATCH__", Reason: "RECEIPT", ReasonCanon: domain.ReasonReceipt,
		Ref: "OTHER-REF", RefLine: 1, Delta: 1, AfterQty: 1, OccurredAt: now,
	})
	require.NoError(t, err)

	ref := "MATCH-REF"
	entries, err := repo.Query(ctx, repository.QueryFilter{Scope: testScope.String(), Ref: &ref, Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2, "limit is honored even though 3 rows match the ref")
	for _, e := range entries {
		require.Equal(t, "MATCH-REF", e.Ref)
	}
}
