package repository

import (
	"context"

	"github.com/inventorycore/inventory-core/pkg/database"
)

// PurchaseOrderRepository is a thin read/decrement surface over the
// purchase-order record that ReturnToVendorWorkflow resolves a PO reference
// against. Purchase order lifecycle management itself is an external
// collaborator; only the received counter is read and decremented here.
type PurchaseOrderRepository struct {
	db *database.DB
}

func NewPurchaseOrderRepository(db *database.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

// GetReceived locks and reads a PO's outstanding received counter, the
// figure ReturnToVendorWorkflow.CreateTask clamps expected_qty against.
func (r *PurchaseOrderRepository) GetReceived(ctx context.Context, poRef string) (int, error) {
	var received int
	query := `SELECT received FROM purchase_orders WHERE po_ref = $1 FOR UPDATE`
	if err := r.db.GetContext(ctx, &received, query, poRef); err != nil {
		return 0, err
	}
	return received, nil
}

// DecrementReceived reduces a PO's outstanding received counter by qty on
// return-to-vendor commit.
func (r *PurchaseOrderRepository) DecrementReceived(ctx context.Context, poRef string, qty int) error {
	query := `UPDATE purchase_orders SET received = received - $2 WHERE po_ref = $1`
	_, err := r.db.ExecContext(ctx, query, poRef, qty)
	return err
}
