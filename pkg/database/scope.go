package database

import (
	"context"
	"fmt"

	"github.com/inventorycore/inventory-core/pkg/scope"
	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// WithScope executes fn inside a single transaction with the PROD/DRILL
// scope set as a session-local variable, then commits (or rolls back on
// error).
//
// How it works:
//  1. Starts a transaction.
//  2. Sets "SET LOCAL app.current_scope = '<scope>'" for the duration of
//     the transaction (defense in depth if RLS policies key off it).
//  3. Every repository query issued through the returned context ALSO
//     carries an explicit "scope = $1" predicate — this method does not
//     rely on the session variable alone for isolation.
//  4. Commits (or rolls back), which clears the session-local setting.
//
// This is the transaction boundary every multi-step primitive
// (StockMutator.Adjust, FefoAllocator plan+ship, ThreeBooksEnforcer)
// runs inside: a single DB transaction, never split across calls.
func (db *DB) WithScope(ctx context.Context, s string, fn func(context.Context) error) error {
	// SET LOCAL cannot take a bind parameter, so s is interpolated into the
	// statement. Re-validate it here rather than relying on every caller
	// having gone through scope.Parse: only PROD and DRILL ever reach the
	// SQL text.
	if _, err := scope.Parse(s); err != nil {
		return fmt.Errorf("invalid scope %q: %w", s, err)
	}

	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_scope = '%s'", s)); err != nil {
			return fmt.Errorf("failed to set app.current_scope to %s: %w", s, err)
		}

		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

// InTransaction reports whether ctx already carries an open transaction,
// so a caller composing several primitives can avoid nesting transactions.
func (db *DB) InTransaction(ctx context.Context) bool {
	return db.getTx(ctx) != nil
}

// getTx extracts the transaction from context if present.
func (db *DB) getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
