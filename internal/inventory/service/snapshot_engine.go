package service

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// SnapshotEngine rebuilds the daily snapshot from stocks. The snapshot is
// strictly derivative — an observability column, never a source of truth.
type SnapshotEngine struct {
	snapshots *repository.SnapshotRepository
	log       *logger.Logger
}

func NewSnapshotEngine(snapshots *repository.SnapshotRepository, log *logger.Logger) *SnapshotEngine {
	return &SnapshotEngine{snapshots: snapshots, log: log}
}

// RebuildToday deletes today's snapshot rows for a scope and reinserts
// grouped sums from stocks. Idempotent: calling it twice in a row produces
// the same rows.
func (e *SnapshotEngine) RebuildToday(ctx context.Context, scope string) error {
	today := truncateToDay(time.Now())
	if err := e.snapshots.DeleteForDate(ctx, scope, today); err != nil {
		return err
	}
	return e.snapshots.InsertFromStocks(ctx, scope, today)
}

// ThreeBooksSummary is the sanity-panel read behind the three-books
// dashboard: Σqty of stocks, Σdelta of ledger, Σqty_on_hand of today's
// snapshot for one scope.
func (e *SnapshotEngine) ThreeBooksSummary(ctx context.Context, scope string) (*repository.ThreeBooksTotals, error) {
	return e.snapshots.Totals(ctx, scope, truncateToDay(time.Now()))
}

// BackfillCut rebuilds the snapshot for a historical cut by replaying
// summed ledger delta within the cut's day, rather than reading the live
// stocks table (which only reflects the current moment). "No prior cut" is
// treated as today's window only: the window is always (cut's day start,
// cut].
func (e *SnapshotEngine) BackfillCut(ctx context.Context, scope string, cut time.Time) error {
	day := truncateToDay(cut)
	if err := e.snapshots.DeleteForDate(ctx, scope, day); err != nil {
		return err
	}
	return e.snapshots.InsertFromLedgerWindow(ctx, scope, day, day, cut)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
