package database

import (
	"context"
	"fmt"
)

// Probe runs fn inside a SAVEPOINT that is always rolled back, regardless
// of whether fn returns an error. This is the orchestrator's probe
// execution mode: the caller's enclosing transaction (set up
// by WithScope) is required to already be on the context, so probe and
// commit share the same surrounding scope setup.
func (db *DB) Probe(ctx context.Context, fn func(context.Context) error) error {
	tx := db.getTx(ctx)
	if tx == nil {
		return fmt.Errorf("probe requires an active transaction on the context")
	}

	const savepoint = "scan_probe"
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	fnErr := fn(ctx)

	if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("failed to roll back savepoint: %w", err)
	}
	return fnErr
}
