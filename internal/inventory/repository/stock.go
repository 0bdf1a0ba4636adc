package repository

import (
	"context"
	"database/sql"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/pkg/database"
)

// StockRepository owns the authoritative (scope, warehouse_id, item_id,
// batch_code_key) balance rows. Every read in this package that will be
// followed by a write locks with FOR UPDATE; StockMutator is the only caller
// that should chain Ensure → Lock → ApplyDelta inside one transaction.
type StockRepository struct {
	db *database.DB
}

func NewStockRepository(db *database.DB) *StockRepository {
	return &StockRepository{db: db}
}

// EnsureZero creates the slot at qty=0 if it does not exist yet. A slot,
// once materialised, remains even if it sits at zero.
func (r *StockRepository) EnsureZero(ctx context.Context, scope string, warehouseID, itemID int64, batchCode *string, batchCodeKey string) error {
	query := `
		INSERT INTO stocks (scope, warehouse_id, item_id, batch_code, batch_code_key, qty)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (scope, item_id, warehouse_id, batch_code_key) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, scope, warehouseID, itemID, batchCode, batchCodeKey)
	return err
}

// LockForUpdate locks and reads one slot's current quantity. Must be called
// inside the transaction that will subsequently write the new quantity.
func (r *StockRepository) LockForUpdate(ctx context.Context, scope string, warehouseID, itemID int64, batchCodeKey string) (*domain.StockSlot, error) {
	var row struct {
		ID     int64  `db:"id"`
		Scope  string `db:"scope"`
		Qty    int    `db:"qty"`
	}
	query := `
		SELECT id, scope, qty FROM stocks
		WHERE scope = $1 AND warehouse_id = $2 AND item_id = $3 AND batch_code_key = $4
		FOR UPDATE
	`
	err := r.db.GetContext(ctx, &row, query, scope, warehouseID, itemID, batchCodeKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.StockSlot{
		ID:           row.ID,
		Scope:        row.Scope,
		WarehouseID:  warehouseID,
		ItemID:       itemID,
		BatchCodeKey: batchCodeKey,
		Qty:          row.Qty,
	}, nil
}

// LockAllForUpdate locks every positive-quantity slot for (warehouse, item)
// across all batch codes. This is FefoAllocator's sole cross-slot critical
// section.
func (r *StockRepository) LockAllForUpdate(ctx context.Context, scope string, warehouseID, itemID int64) ([]*domain.StockSlot, error) {
	var rows []struct {
		ID           int64   `db:"id"`
		BatchCode    *string `db:"batch_code"`
		BatchCodeKey string  `db:"batch_code_key"`
		Qty          int     `db:"qty"`
	}
	query := `
		SELECT id, batch_code, batch_code_key, qty FROM stocks
		WHERE scope = $1 AND warehouse_id = $2 AND item_id = $3 AND qty > 0
		FOR UPDATE OF stocks
	`
	if err := r.db.SelectContext(ctx, &rows, query, scope, warehouseID, itemID); err != nil {
		return nil, err
	}
	out := make([]*domain.StockSlot, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.StockSlot{
			ID:           row.ID,
			Scope:        scope,
			WarehouseID:  warehouseID,
			ItemID:       itemID,
			BatchCode:    row.BatchCode,
			BatchCodeKey: row.BatchCodeKey,
			Qty:          row.Qty,
		})
	}
	return out, nil
}

// ApplyDelta adds delta to the locked slot's quantity and returns the new
// balance. Callers must have already locked the row in the same
// transaction and validated new_qty >= 0.
func (r *StockRepository) ApplyDelta(ctx context.Context, stockID int64, delta int) (int, error) {
	var newQty int
	query := `UPDATE stocks SET qty = qty + $2 WHERE id = $1 RETURNING qty`
	if err := r.db.QueryRowxContext(ctx, query, stockID, delta).Scan(&newQty); err != nil {
		return 0, err
	}
	return newQty, nil
}

// Get returns the current qty for a specific slot, 0 if it has never
// been materialised. Used by ThreeBooksEnforcer and
// ReturnToVendorWorkflow.CreateTask as a plain read, outside any lock.
func (r *StockRepository) Get(ctx context.Context, scope string, warehouseID, itemID int64, batchCodeKey string) (int, error) {
	var qty int
	query := `
		SELECT qty FROM stocks
		WHERE scope = $1 AND warehouse_id = $2 AND item_id = $3 AND batch_code_key = $4
	`
	err := r.db.GetContext(ctx, &qty, query, scope, warehouseID, itemID, batchCodeKey)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return qty, err
}

// ListByScope returns every materialised slot in a scope.
func (r *StockRepository) ListByScope(ctx context.Context, scope string) ([]*domain.StockSlot, error) {
	var rows []struct {
		ID           int64   `db:"id"`
		WarehouseID  int64   `db:"warehouse_id"`
		ItemID       int64   `db:"item_id"`
		BatchCode    *string `db:"batch_code"`
		BatchCodeKey string  `db:"batch_code_key"`
		Qty          int     `db:"qty"`
	}
	query := `SELECT id, warehouse_id, item_id, batch_code, batch_code_key, qty FROM stocks WHERE scope = $1`
	if err := r.db.SelectContext(ctx, &rows, query, scope); err != nil {
		return nil, err
	}
	out := make([]*domain.StockSlot, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.StockSlot{
			ID:           row.ID,
			Scope:        scope,
			WarehouseID:  row.WarehouseID,
			ItemID:       row.ItemID,
			BatchCode:    row.BatchCode,
			BatchCodeKey: row.BatchCodeKey,
			Qty:          row.Qty,
		})
	}
	return out, nil
}
