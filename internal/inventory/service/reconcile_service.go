package service

import (
	"context"
	"time"

	"github.com/inventorycore/inventory-core/internal/inventory/orchestrator"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/pkg/logger"
)

// ReconcileService is diagnostic only: it never mutates stocks or the
// ledger outside OpeningBalanceBackfill, and that single write path exists
// solely for a one-time cutover.
type ReconcileService struct {
	repo   *repository.ReconcileRepository
	ledger *repository.LedgerRepository
	log    *logger.Logger
}

func NewReconcileService(repo *repository.ReconcileRepository, ledger *repository.LedgerRepository, log *logger.Logger) *ReconcileService {
	return &ReconcileService{repo: repo, ledger: ledger, log: log}
}

// DiffLedgerVsStocks returns every key in the scope where
// Σledger.delta ≠ stocks.qty. One scope-wide query: this runs inside the
// caller's request transaction, and a sql.Tx must not be shared across
// goroutines, so the work is not fanned out.
func (s *ReconcileService) DiffLedgerVsStocks(ctx context.Context, scope string) ([]repository.DriftRow, error) {
	return s.repo.Diff(ctx, scope)
}

// OpeningBalanceBackfill writes one ADJUSTMENT ledger entry per drifting
// key at epoch, reconciling stocks to ledger — a one-time cutover
// operation, never run automatically during steady state.
func (s *ReconcileService) OpeningBalanceBackfill(ctx context.Context, scope string, epoch time.Time) (int, error) {
	drift, err := s.DiffLedgerVsStocks(ctx, scope)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, row := range drift {
		ref := orchestrator.OpeningBalanceRef(row.WarehouseID, row.ItemID, row.BatchCodeKey)
		if err := s.repo.WriteOpeningBalance(ctx, s.ledger, scope, row, ref, epoch); err != nil {
			return written, err
		}
		written++
	}
	s.log.Info().Str("scope", scope).Int("keys_backfilled", written).Msg("opening balance backfill complete")
	return written, nil
}
