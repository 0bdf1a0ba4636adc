package repository

import (
	"context"
	"database/sql"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/pkg/database"
	"github.com/inventorycore/inventory-core/pkg/errors"
)

// itemRow is the wire shape of the items table.
type itemRow struct {
	ID              int64  `db:"id"`
	SKU             string `db:"sku"`
	Name            string `db:"name"`
	ShelfLifeDays   *int   `db:"shelf_life_days"`
	ShelfLifeMonths *int   `db:"shelf_life_months"`
}

func (r itemRow) toDomain() *domain.Item {
	return &domain.Item{
		ID:              r.ID,
		SKU:             r.SKU,
		Name:            r.Name,
		ShelfLifeDays:   r.ShelfLifeDays,
		ShelfLifeMonths: r.ShelfLifeMonths,
	}
}

// ItemRepository is the catalogue's read path. Catalogue management itself
// is an external collaborator; Inventory Core only reads item
// master data to decide requires_batch and to resolve expiry dates.
type ItemRepository struct {
	db *database.DB
}

func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	var row itemRow
	query := `SELECT id, sku, name, shelf_life_days, shelf_life_months FROM items WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *ItemRepository) GetBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	var row itemRow
	query := `SELECT id, sku, name, shelf_life_days, shelf_life_months FROM items WHERE sku = $1`
	if err := r.db.GetContext(ctx, &row, query, sku); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByBarcode resolves a scanned barcode to an item via the barcode
// lookup table, one of the orchestrator's three resolution layers. Falls
// back to NotFound, never a bare sql.ErrNoRows.
func (r *ItemRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	var row itemRow
	query := `
		SELECT i.id, i.sku, i.name, i.shelf_life_days, i.shelf_life_months
		FROM items i
		JOIN item_barcodes b ON b.item_id = i.id
		WHERE b.barcode = $1
	`
	if err := r.db.GetContext(ctx, &row, query, barcode); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return row.toDomain(), nil
}
