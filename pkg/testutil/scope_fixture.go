package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/inventorycore/inventory-core/pkg/scope"
)

// ScopeFixture resets a test database to a clean state between tests. Unlike
// the sibling services' per-test tenant schemas, Inventory Core has exactly
// two isolation tags (PROD, DRILL), so test isolation is row-level: truncate
// everything and start over rather than create a new namespace per test.
type ScopeFixture struct {
	db *sqlx.DB
}

// NewScopeFixture wraps a connected test database.
func NewScopeFixture(db *sqlx.DB) *ScopeFixture {
	return &ScopeFixture{db: db}
}

// scopedTables lists every table that carries a scope column, in an order
// safe for TRUNCATE given their foreign keys to items/batches.
var scopedTables = []string{
	"ledger_entries",
	"daily_snapshots",
	"stocks",
}

// catalogTables are scope-free reference data: items, their barcodes,
// batches, and purchase orders.
var catalogTables = []string{
	"item_barcodes",
	"batches",
	"purchase_orders",
	"items",
}

// Reset truncates every Inventory Core table and restarts identity
// sequences, leaving a database indistinguishable from a freshly migrated
// one. Call this between tests sharing a container.
func (f *ScopeFixture) Reset(ctx context.Context) error {
	all := append(append([]string{}, scopedTables...), catalogTables...)
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", joinTables(all))
	_, err := f.db.ExecContext(ctx, query)
	return err
}

func joinTables(tables []string) string {
	out := ""
	for i, t := range tables {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}

// SeedItem inserts an items row and returns its generated ID.
func (f *ScopeFixture) SeedItem(ctx context.Context, sku, name string, shelfLifeDays *int) (int64, error) {
	var id int64
	query := `
		INSERT INTO items (sku, name, shelf_life_days)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := f.db.GetContext(ctx, &id, query, sku, name, shelfLifeDays)
	return id, err
}

// SeedBarcode attaches a barcode to an item.
func (f *ScopeFixture) SeedBarcode(ctx context.Context, itemID int64, barcode string) error {
	query := `INSERT INTO item_barcodes (item_id, barcode) VALUES ($1, $2)`
	_, err := f.db.ExecContext(ctx, query, itemID, barcode)
	return err
}

// SeedStock inserts a stocks row directly, bypassing StockMutator, for tests
// that need a known starting balance rather than one built up through the
// ledger.
func (f *ScopeFixture) SeedStock(ctx context.Context, s scope.Scope, warehouseID, itemID int64, batchCode *string, qty int) error {
	batchCodeKey := NullBatchKey
	if batchCode != nil && *batchCode != "" {
		batchCodeKey = *batchCode
	}
	query := `
		INSERT INTO stocks (scope, warehouse_id, item_id, batch_code, batch_code_key, qty)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := f.db.ExecContext(ctx, query, s.String(), warehouseID, itemID, batchCode, batchCodeKey, qty)
	return err
}

// SeedPurchaseOrder inserts a purchase_orders row with the given received
// counter, the figure ReturnToVendorWorkflow.CreateTask clamps against.
func (f *ScopeFixture) SeedPurchaseOrder(ctx context.Context, poRef string, received int) error {
	query := `INSERT INTO purchase_orders (po_ref, received) VALUES ($1, $2)`
	_, err := f.db.ExecContext(ctx, query, poRef, received)
	return err
}

// NullBatchKey mirrors domain.NullBatchKey without importing the domain
// package, keeping testutil dependency-light.
const NullBatchKey = "__NULL_BATCH__"

// WithTestScope returns a context carrying s for tests that call service
// layer code directly rather than going through ScopeMiddleware.
func WithTestScope(ctx context.Context, s scope.Scope) context.Context {
	return scope.WithScope(ctx, s)
}
