package service_test

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()

	// Short mode runs only the sqlmock-backed tests; the container is never
	// started and the integration tests skip themselves.
	if !testing.Short() {
		ctx := context.Background()

		var err error
		suite, err = testutil.NewIntegrationSuite(ctx)
		if err != nil {
			os.Stderr.WriteString("failed to set up integration suite: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer testutil.TerminateContainer(ctx)
	}

	os.Exit(m.Run())
}

// harness bundles the primitives and workflows under test against the
// shared container, wired the way cmd/inventory-service/main.go wires
// them, without the event publishers.
type harness struct {
	items     *repository.ItemRepository
	batches   *repository.BatchRegistry
	stocks    *repository.StockRepository
	ledger    *repository.LedgerRepository
	snapshots *repository.SnapshotRepository
	po        *repository.PurchaseOrderRepository

	mutator        *service.StockMutator
	fefo           *service.FefoAllocator
	snapshotEngine *service.SnapshotEngine
	enforcer       *service.ThreeBooksEnforcer

	receipt *service.ReceiptWorkflow
	ship    *service.ShipWorkflow
	count   *service.CountWorkflow
	rtv     *service.ReturnToVendorWorkflow
	issue   *service.InternalIssueWorkflow
}

func newHarness() *harness {
	items := repository.NewItemRepository(suite.DB)
	batches := repository.NewBatchRegistry(suite.DB)
	stocks := repository.NewStockRepository(suite.DB)
	ledger := repository.NewLedgerRepository(suite.DB)
	snapshots := repository.NewSnapshotRepository(suite.DB)
	po := repository.NewPurchaseOrderRepository(suite.DB)

	mutator := service.NewStockMutator(stocks, ledger, batches, items, suite.Logger)
	fefo := service.NewFefoAllocator(stocks, batches, mutator, suite.Logger)
	snapshotEngine := service.NewSnapshotEngine(snapshots, suite.Logger)
	enforcer := service.NewThreeBooksEnforcer(snapshotEngine, ledger, stocks, snapshots, suite.Logger)

	return &harness{
		items: items, batches: batches, stocks: stocks, ledger: ledger, snapshots: snapshots, po: po,
		mutator: mutator, fefo: fefo, snapshotEngine: snapshotEngine, enforcer: enforcer,
		receipt: service.NewReceiptWorkflow(mutator, enforcer, suite.Logger),
		ship:    service.NewShipWorkflow(mutator, fefo, ledger, enforcer, suite.Logger),
		count:   service.NewCountWorkflow(stocks, mutator, enforcer, suite.Logger),
		rtv:     service.NewReturnToVendorWorkflow(stocks, po, mutator, enforcer, suite.Logger),
		issue:   service.NewInternalIssueWorkflow(mutator, fefo, enforcer, suite.Logger),
	}
}
