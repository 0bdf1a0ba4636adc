package repository

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/pkg/database"
)

// DriftRow is one key where stocks.qty and Σledger.delta disagree —
// ReconcileService.DiffLedgerVsStocks's diagnostic output.
type DriftRow struct {
	WarehouseID  int64   `db:"warehouse_id"`
	ItemID       int64   `db:"item_id"`
	BatchCode    *string `db:"batch_code"`
	BatchCodeKey string  `db:"batch_code_key"`
	StocksQty    int     `db:"stocks_qty"`
	LedgerSum    int     `db:"ledger_sum"`
}

// ReconcileRepository is diagnostic-only: it never mutates stocks or the
// ledger outside OpeningBalanceBackfill, and that single write path is the
// only exception to the ledger being driven exclusively by StockMutator.
type ReconcileRepository struct {
	db *database.DB
}

func NewReconcileRepository(db *database.DB) *ReconcileRepository {
	return &ReconcileRepository{db: db}
}

// Diff compares stocks against the summed ledger delta for every key in
// the scope, returning only keys that disagree. Issued as one statement so
// it is safe inside the single request transaction the middleware opens.
func (r *ReconcileRepository) Diff(ctx context.Context, scope string) ([]DriftRow, error) {
	var rows []DriftRow
	query := `
		SELECT
			s.warehouse_id, s.item_id, s.batch_code, s.batch_code_key,
			s.qty AS stocks_qty,
			COALESCE(l.ledger_sum, 0) AS ledger_sum
		FROM stocks s
		LEFT JOIN (
			SELECT warehouse_id, item_id, batch_code_key, SUM(delta) AS ledger_sum
			FROM ledger_entries
			WHERE scope = $1
			GROUP BY warehouse_id, item_id, batch_code_key
		) l ON l.warehouse_id = s.warehouse_id AND l.item_id = s.item_id AND l.batch_code_key = s.batch_code_key
		WHERE s.scope = $1 AND s.qty != COALESCE(l.ledger_sum, 0)
		ORDER BY s.warehouse_id, s.item_id, s.batch_code_key
	`
	if err := r.db.SelectContext(ctx, &rows, query, scope); err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteOpeningBalance writes one ADJUSTMENT ledger entry with
// sub_reason=OPENING_BALANCE at epoch for a drifting key, reconciling
// stocks to ledger for a one-time cutover. The ref follows
// the OPEN:<warehouse>:<item>:<batch_code_key> format.
func (r *ReconcileRepository) WriteOpeningBalance(ctx context.Context, ledger *LedgerRepository, scope string, row DriftRow, ref string, epoch time.Time) error {
	delta := row.StocksQty - row.LedgerSum
	subReason := "OPENING_BALANCE"
	_, err := ledger.Write(ctx, LedgerWriteInput{
		Scope:        scope,
		WarehouseID:  row.WarehouseID,
		ItemID:       row.ItemID,
		BatchCode:    row.BatchCode,
		BatchCodeKey: row.BatchCodeKey,
		Reason:       "ADJUSTMENT",
		ReasonCanon:  "ADJUSTMENT",
		SubReason:    &subReason,
		Ref:          ref,
		RefLine:      1,
		Delta:        delta,
		AfterQty:     row.StocksQty,
		OccurredAt:   epoch,
	})
	return err
}
