package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/inventorycore/inventory-core/pkg/database"
)

// SnapshotRepository owns the daily snapshot table: a derivative,
// observability-only projection of stocks, never a source of truth. It is
// deleted and replaced atomically per day.
type SnapshotRepository struct {
	db *database.DB
}

func NewSnapshotRepository(db *database.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// DeleteForDate removes today's snapshot rows for a scope so RebuildToday
// can reinsert a fresh set.
func (r *SnapshotRepository) DeleteForDate(ctx context.Context, scope string, date time.Time) error {
	query := `DELETE FROM daily_snapshots WHERE scope = $1 AND snapshot_date = $2`
	_, err := r.db.ExecContext(ctx, query, scope, date)
	return err
}

// InsertFromStocks groups the current stocks table by
// (warehouse_id, item_id, batch_code) and inserts one row per group for the
// given date, qty_available equal to qty_on_hand in v1 (allocation is
// future work).
func (r *SnapshotRepository) InsertFromStocks(ctx context.Context, scope string, date time.Time) error {
	query := `
		INSERT INTO daily_snapshots (snapshot_date, scope, warehouse_id, item_id, batch_code, qty_on_hand, qty_available)
		SELECT $2, scope, warehouse_id, item_id, batch_code, SUM(qty), SUM(qty)
		FROM stocks
		WHERE scope = $1
		GROUP BY scope, warehouse_id, item_id, batch_code
	`
	_, err := r.db.ExecContext(ctx, query, scope, date)
	return err
}

// InsertFromLedgerWindow backfills snapshot rows for date by replaying
// summed ledger delta within (windowStart, cut], used when rebuilding a
// historical cut rather than today from the live stocks table ("no prior
// cut" is treated as today's window only).
func (r *SnapshotRepository) InsertFromLedgerWindow(ctx context.Context, scope string, date, windowStart, cut time.Time) error {
	query := `
		INSERT INTO daily_snapshots (snapshot_date, scope, warehouse_id, item_id, batch_code, qty_on_hand, qty_available)
		SELECT $2, scope, warehouse_id, item_id, batch_code, SUM(delta), SUM(delta)
		FROM ledger_entries
		WHERE scope = $1 AND occurred_at > $3 AND occurred_at <= $4
		GROUP BY scope, warehouse_id, item_id, batch_code
	`
	_, err := r.db.ExecContext(ctx, query, scope, date, windowStart, cut)
	return err
}

// GetOnHand reads today's snapshot quantity for one
// (warehouse, item, batch_code) key, used by ThreeBooksEnforcer's
// stock-vs-snapshot comparison.
func (r *SnapshotRepository) GetOnHand(ctx context.Context, scope string, date time.Time, warehouseID, itemID int64, batchCode *string) (int, error) {
	var qty int
	query := `
		SELECT qty_on_hand FROM daily_snapshots
		WHERE scope = $1 AND snapshot_date = $2 AND warehouse_id = $3 AND item_id = $4
		  AND batch_code IS NOT DISTINCT FROM $5
	`
	err := r.db.GetContext(ctx, &qty, query, scope, date, warehouseID, itemID, batchCode)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return qty, err
}

// ThreeBooksTotals is the sanity-panel read backing
// SnapshotEngine.ThreeBooksSummary.
type ThreeBooksTotals struct {
	StocksQty         int64 `db:"stocks_qty"`
	LedgerDelta       int64 `db:"ledger_delta"`
	SnapshotQtyOnHand int64 `db:"snapshot_qty_on_hand"`
}

// Totals computes the three aggregate sums the sanity panel
// returns: Σqty of stocks, Σdelta of ledger, Σqty_on_hand of today's
// snapshot, for one scope.
func (r *SnapshotRepository) Totals(ctx context.Context, scope string, date time.Time) (*ThreeBooksTotals, error) {
	var totals ThreeBooksTotals
	query := `
		SELECT
			(SELECT COALESCE(SUM(qty), 0) FROM stocks WHERE scope = $1) AS stocks_qty,
			(SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE scope = $1) AS ledger_delta,
			(SELECT COALESCE(SUM(qty_on_hand), 0) FROM daily_snapshots WHERE scope = $1 AND snapshot_date = $2) AS snapshot_qty_on_hand
	`
	if err := r.db.GetContext(ctx, &totals, query, scope, date); err != nil {
		return nil, err
	}
	return &totals, nil
}
