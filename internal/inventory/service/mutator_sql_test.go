package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/database"
	"github.com/inventorycore/inventory-core/pkg/logger"
	"github.com/inventorycore/inventory-core/pkg/testutil"
)

// newMockMutator wires a StockMutator over a sqlmock-backed database so the
// exact statement sequence the adjust primitive issues can be asserted
// without a container.
func newMockMutator(t *testing.T) (*service.StockMutator, *testutil.MockDB) {
	mock := testutil.NewMockDB(t)
	db := &database.DB{DB: mock.DB}
	log := logger.New("test", "test")

	items := repository.NewItemRepository(db)
	batches := repository.NewBatchRegistry(db)
	stocks := repository.NewStockRepository(db)
	ledger := repository.NewLedgerRepository(db)

	return service.NewStockMutator(stocks, ledger, batches, items, log), mock
}

func TestStockMutator_Adjust_StatementOrderLocksBeforeWrite(t *testing.T) {
	mutator, mock := newMockMutator(t)
	defer mock.Close()

	itemRows := testutil.MockRows("id", "sku", "name", "shelf_life_days", "shelf_life_months").
		AddRow(7, "SKU-1", "Item 1", nil, nil)
	mock.Mock.ExpectQuery("SELECT id, sku, name, shelf_life_days, shelf_life_months FROM items").
		WillReturnRows(itemRows)

	mock.Mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))

	mock.Mock.ExpectExec("INSERT INTO stocks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// The slot read carries FOR UPDATE and happens before any write.
	mock.Mock.ExpectQuery("SELECT id, scope, qty FROM stocks(?s).*FOR UPDATE").
		WillReturnRows(testutil.MockRows("id", "scope", "qty").AddRow(3, "PROD", 0))

	mock.Mock.ExpectQuery("INSERT INTO ledger_entries").
		WillReturnRows(testutil.MockRows("id").AddRow(11))

	mock.Mock.ExpectQuery("UPDATE stocks SET qty").
		WillReturnRows(testutil.MockRows("qty").AddRow(10))

	res, err := mutator.Adjust(context.Background(), service.AdjustInput{
		Scope: "PROD", WarehouseID: 1, ItemID: 7,
		Delta: 10, Reason: "RECEIPT", Ref: "PO-1", RefLine: 1, OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, 0, res.Before)
	require.Equal(t, 10, res.After)

	mock.ExpectationsWereMet(t)
}

func TestStockMutator_Adjust_FingerprintHitShortCircuitsBeforeLocking(t *testing.T) {
	mutator, mock := newMockMutator(t)
	defer mock.Close()

	itemRows := testutil.MockRows("id", "sku", "name", "shelf_life_days", "shelf_life_months").
		AddRow(7, "SKU-1", "Item 1", nil, nil)
	mock.Mock.ExpectQuery("SELECT id, sku, name, shelf_life_days, shelf_life_months FROM items").
		WillReturnRows(itemRows)

	// The fingerprint already exists: no further statement may run — no
	// slot upsert, no lock, no ledger write.
	mock.Mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	res, err := mutator.Adjust(context.Background(), service.AdjustInput{
		Scope: "PROD", WarehouseID: 1, ItemID: 7,
		Delta: 10, Reason: "RECEIPT", Ref: "PO-1", RefLine: 1, OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.True(t, res.Idempotent)

	mock.ExpectationsWereMet(t)
}

func TestStockMutator_Adjust_InsufficientStockWritesNothing(t *testing.T) {
	mutator, mock := newMockMutator(t)
	defer mock.Close()

	itemRows := testutil.MockRows("id", "sku", "name", "shelf_life_days", "shelf_life_months").
		AddRow(7, "SKU-1", "Item 1", nil, nil)
	mock.Mock.ExpectQuery("SELECT id, sku, name, shelf_life_days, shelf_life_months FROM items").
		WillReturnRows(itemRows)

	mock.Mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))

	mock.Mock.ExpectExec("INSERT INTO stocks").
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.Mock.ExpectQuery("SELECT id, scope, qty FROM stocks(?s).*FOR UPDATE").
		WillReturnRows(testutil.MockRows("id", "scope", "qty").AddRow(3, "PROD", 3))

	// Driving the slot to -2 fails before the ledger insert or the qty
	// update: neither statement is expected.
	_, err := mutator.Adjust(context.Background(), service.AdjustInput{
		Scope: "PROD", WarehouseID: 1, ItemID: 7,
		Delta: -5, Reason: "SHIPMENT", Ref: "SO-1", RefLine: 1, OccurredAt: time.Now(),
	})
	require.Error(t, err)

	mock.ExpectationsWereMet(t)
}
