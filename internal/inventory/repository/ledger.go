package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/domain"
	"github.com/inventorycore/inventory-core/pkg/database"
)

// LedgerWriteInput is everything needed to write one ledger row.
type LedgerWriteInput struct {
	Scope          string
	WarehouseID    int64
	ItemID         int64
	BatchCode      *string
	BatchCodeKey   string
	Reason         string
	ReasonCanon    domain.Reason
	SubReason      *string
	Ref            string
	RefLine        int
	Delta          int
	AfterQty       int
	OccurredAt     time.Time
	TraceID        *string
	ProductionDate *time.Time
	ExpiryDate     *time.Time
}

// LedgerRepository is the append-only movement log. Write is the only
// mutating operation it exposes; the uniqueness constraint
// uq_ledger_wh_batch_item_reason_ref_line is what makes idempotency
// a database guarantee rather than an application-level check.
type LedgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Write inserts one ledger row. On a fingerprint conflict it returns
// (0, nil) — no new row, no error — having first performed a best-effort
// back-fill of the nullable auxiliary columns: an existing non-NULL
// value is never overwritten.
func (r *LedgerRepository) Write(ctx context.Context, in LedgerWriteInput) (int64, error) {
	var id int64
	insertQuery := `
		INSERT INTO ledger_entries (
			scope, warehouse_id, item_id, batch_code, batch_code_key,
			reason, reason_canon, sub_reason, ref, ref_line,
			delta, after_qty, occurred_at, trace_id, production_date, expiry_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT ON CONSTRAINT uq_ledger_wh_batch_item_reason_ref_line DO NOTHING
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, insertQuery,
		in.Scope, in.WarehouseID, in.ItemID, in.BatchCode, in.BatchCodeKey,
		in.Reason, string(in.ReasonCanon), in.SubReason, in.Ref, in.RefLine,
		in.Delta, in.AfterQty, in.OccurredAt, in.TraceID, in.ProductionDate, in.ExpiryDate,
	).Scan(&id)

	if err == sql.ErrNoRows {
		// Conflict hit: the row already exists. Back-fill nullable aux
		// columns only, never touching delta/after_qty/occurred_at.
		backfillQuery := `
			UPDATE ledger_entries SET
				reason_canon    = COALESCE(reason_canon, $6),
				sub_reason      = COALESCE(sub_reason, $7),
				trace_id        = COALESCE(trace_id, $8),
				production_date = COALESCE(production_date, $9),
				expiry_date     = COALESCE(expiry_date, $10)
			WHERE scope = $1 AND warehouse_id = $2 AND item_id = $3 AND batch_code_key = $4
			  AND reason = $5 AND ref = $11 AND ref_line = $12
		`
		_, backfillErr := r.db.ExecContext(ctx, backfillQuery,
			in.Scope, in.WarehouseID, in.ItemID, in.BatchCodeKey, in.Reason,
			string(in.ReasonCanon), in.SubReason, in.TraceID, in.ProductionDate, in.ExpiryDate,
			in.Ref, in.RefLine,
		)
		return 0, backfillErr
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Exists reports whether a ledger row with this fingerprint already exists,
// letting StockMutator short-circuit before any lock is taken.
func (r *LedgerRepository) Exists(ctx context.Context, scope string, warehouseID, itemID int64, batchCodeKey, reason, ref string, refLine int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM ledger_entries
			WHERE scope = $1 AND warehouse_id = $2 AND item_id = $3 AND batch_code_key = $4
			  AND reason = $5 AND ref = $6 AND ref_line = $7
		)
	`
	err := r.db.GetContext(ctx, &exists, query, scope, warehouseID, itemID, batchCodeKey, reason, ref, refLine)
	return exists, err
}

// SumDeltaByKey sums every ledger delta recorded so far for one slot — the
// ledger side of the stocks = Σledger.delta conservation invariant.
func (r *LedgerRepository) SumDeltaByKey(ctx context.Context, scope string, warehouseID, itemID int64, batchCodeKey string) (int, error) {
	var sum sql.NullInt64
	query := `
		SELECT SUM(delta) FROM ledger_entries
		WHERE scope = $1 AND warehouse_id = $2 AND item_id = $3 AND batch_code_key = $4
	`
	if err := r.db.GetContext(ctx, &sum, query, scope, warehouseID, itemID, batchCodeKey); err != nil {
		return 0, err
	}
	if !sum.Valid {
		return 0, nil
	}
	return int(sum.Int64), nil
}

// SumDeltaByRef sums delta across every line already written under a ref,
// regardless of batch — ShipWorkflow's "already_shipped" figure when
// duplicate lines for the same order are merged.
func (r *LedgerRepository) SumDeltaByRef(ctx context.Context, scope, ref string, warehouseID, itemID int64) (int, error) {
	var sum sql.NullInt64
	query := `
		SELECT SUM(delta) FROM ledger_entries
		WHERE scope = $1 AND ref = $2 AND warehouse_id = $3 AND item_id = $4
	`
	if err := r.db.GetContext(ctx, &sum, query, scope, ref, warehouseID, itemID); err != nil {
		return 0, err
	}
	if !sum.Valid {
		return 0, nil
	}
	return int(sum.Int64), nil
}

// QueryFilter narrows a ledger read-model query.
type QueryFilter struct {
	Scope       string
	WarehouseID *int64
	ItemID      *int64
	Ref         *string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// Query is a read-only, paginated ledger projection for dashboards and
// history views — not part of the invariant loop.
func (r *LedgerRepository) Query(ctx context.Context, f QueryFilter) ([]*domain.LedgerEntry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []struct {
		ID             int64      `db:"id"`
		Scope          string     `db:"scope"`
		WarehouseID    int64      `db:"warehouse_id"`
		ItemID         int64      `db:"item_id"`
		BatchCode      *string    `db:"batch_code"`
		BatchCodeKey   string     `db:"batch_code_key"`
		Reason         string     `db:"reason"`
		ReasonCanon    string     `db:"reason_canon"`
		SubReason      *string    `db:"sub_reason"`
		Ref            string     `db:"ref"`
		RefLine        int        `db:"ref_line"`
		Delta          int        `db:"delta"`
		AfterQty       int        `db:"after_qty"`
		OccurredAt     time.Time  `db:"occurred_at"`
		TraceID        *string    `db:"trace_id"`
		ProductionDate *time.Time `db:"production_date"`
		ExpiryDate     *time.Time `db:"expiry_date"`
		CreatedAt      time.Time  `db:"created_at"`
	}

	query := `
		SELECT id, scope, warehouse_id, item_id, batch_code, batch_code_key,
		       reason, reason_canon, sub_reason, ref, ref_line, delta, after_qty,
		       occurred_at, trace_id, production_date, expiry_date, created_at
		FROM ledger_entries WHERE scope = $1
	`
	args := []interface{}{f.Scope}
	if f.WarehouseID != nil {
		args = append(args, *f.WarehouseID)
		query += " AND warehouse_id = $" + strconv.Itoa(len(args))
	}
	if f.ItemID != nil {
		args = append(args, *f.ItemID)
		query += " AND item_id = $" + strconv.Itoa(len(args))
	}
	if f.Ref != nil {
		args = append(args, *f.Ref)
		query += " AND ref = $" + strconv.Itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += " AND occurred_at >= $" + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += " AND occurred_at <= $" + strconv.Itoa(len(args))
	}
	args = append(args, limit, f.Offset)
	query += " ORDER BY occurred_at DESC, id DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.LedgerEntry{
			ID:             row.ID,
			Scope:          row.Scope,
			WarehouseID:    row.WarehouseID,
			ItemID:         row.ItemID,
			BatchCode:      row.BatchCode,
			BatchCodeKey:   row.BatchCodeKey,
			Reason:         row.Reason,
			ReasonCanon:    domain.Reason(row.ReasonCanon),
			SubReason:      row.SubReason,
			Ref:            row.Ref,
			RefLine:        row.RefLine,
			Delta:          row.Delta,
			AfterQty:       row.AfterQty,
			OccurredAt:     row.OccurredAt,
			TraceID:        row.TraceID,
			ProductionDate: row.ProductionDate,
			ExpiryDate:     row.ExpiryDate,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out, nil
}
