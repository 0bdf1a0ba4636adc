package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/pkg/database"
)

// BatchRegistry is descriptive metadata keyed on the natural
// (warehouse_id, item_id, batch_code) triple. It owns no quantity — stocks
// own quantity — and is created lazily on first inbound movement for a new
// key.
type BatchRegistry struct {
	db *database.DB
}

func NewBatchRegistry(db *database.DB) *BatchRegistry {
	return &BatchRegistry{db: db}
}

// Ensure upserts a batch row on its natural key. On conflict it back-fills
// only NULL date columns — an existing non-NULL value is never overwritten.
func (r *BatchRegistry) Ensure(ctx context.Context, warehouseID, itemID int64, batchCode string, productionDate, expiryDate *time.Time) error {
	query := `
		INSERT INTO batches (warehouse_id, item_id, batch_code, production_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (warehouse_id, item_id, batch_code) DO UPDATE SET
			production_date = COALESCE(batches.production_date, EXCLUDED.production_date),
			expiry_date     = COALESCE(batches.expiry_date, EXCLUDED.expiry_date)
	`
	_, err := r.db.ExecContext(ctx, query, warehouseID, itemID, batchCode, productionDate, expiryDate)
	return err
}

// Get reads one batch's descriptive dates, or (nil, nil) if it has never
// been registered — a legitimate state for a batch_code that only appears
// on the scan payload, not yet on any ledger entry.
func (r *BatchRegistry) Get(ctx context.Context, warehouseID, itemID int64, batchCode string) (*domain.Batch, error) {
	var row struct {
		WarehouseID    int64      `db:"warehouse_id"`
		ItemID         int64      `db:"item_id"`
		BatchCode      string     `db:"batch_code"`
		ProductionDate *time.Time `db:"production_date"`
		ExpiryDate     *time.Time `db:"expiry_date"`
	}
	query := `
		SELECT warehouse_id, item_id, batch_code, production_date, expiry_date
		FROM batches WHERE warehouse_id = $1 AND item_id = $2 AND batch_code = $3
	`
	err := r.db.GetContext(ctx, &row, query, warehouseID, itemID, batchCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Batch{
		WarehouseID:    row.WarehouseID,
		ItemID:         row.ItemID,
		BatchCode:      row.BatchCode,
		ProductionDate: row.ProductionDate,
		ExpiryDate:     row.ExpiryDate,
	}, nil
}

// ListByItem lists every registered batch for an item at a warehouse,
// earliest expiry first (null expiry last) — the order FefoAllocator reads
// slots in once it has joined them to stocks.
func (r *BatchRegistry) ListByItem(ctx context.Context, warehouseID, itemID int64) ([]*domain.Batch, error) {
	var rows []struct {
		WarehouseID    int64      `db:"warehouse_id"`
		ItemID         int64      `db:"item_id"`
		BatchCode      string     `db:"batch_code"`
		ProductionDate *time.Time `db:"production_date"`
		ExpiryDate     *time.Time `db:"expiry_date"`
	}
	query := `
		SELECT warehouse_id, item_id, batch_code, production_date, expiry_date
		FROM batches
		WHERE warehouse_id = $1 AND item_id = $2
		ORDER BY (expiry_date IS NULL), expiry_date ASC
	`
	if err := r.db.SelectContext(ctx, &rows, query, warehouseID, itemID); err != nil {
		return nil, err
	}
	out := make([]*domain.Batch, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.Batch{
			WarehouseID:    row.WarehouseID,
			ItemID:         row.ItemID,
			BatchCode:      row.BatchCode,
			ProductionDate: row.ProductionDate,
			ExpiryDate:     row.ExpiryDate,
		})
	}
	return out, nil
}
