package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/inventorycore/inventory-core/internal/inventory/authn"
	"github.com/inventorycore/inventory-core/internal/inventory/events"
	"github.com/inventorycore/inventory-core/internal/inventory/handler"
	"github.com/inventorycore/inventory-core/internal/inventory/repository"
	"github.com/inventorycore/inventory-core/internal/inventory/service"
	"github.com/inventorycore/inventory-core/pkg/config"
	"github.com/inventorycore/inventory-core/pkg/database"
	"github.com/inventorycore/inventory-core/pkg/httputil"
	"github.com/inventorycore/inventory-core/pkg/i18n"
	"github.com/inventorycore/inventory-core/pkg/logger"
	"github.com/inventorycore/inventory-core/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to database
	db, err := database.NewWithSearchPath(&cfg.Database, "inventory, public", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	batchRepo := repository.NewBatchRegistry(db)
	stockRepo := repository.NewStockRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	reconcileRepo := repository.NewReconcileRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)

	// Initialize the invariant-loop primitives: StockMutator is the single
	// chokepoint every balance change funnels through, FefoAllocator plans
	// and ships against it, ThreeBooksEnforcer checks ledger/stocks/snapshot
	// agreement after every workflow commits.
	mutator := service.NewStockMutator(stockRepo, ledgerRepo, batchRepo, itemRepo, log).
		WithEventPublisher(publisher)
	fefo := service.NewFefoAllocator(stockRepo, batchRepo, mutator, log)
	snapshotEngine := service.NewSnapshotEngine(snapshotRepo, log)
	enforcer := service.NewThreeBooksEnforcer(snapshotEngine, ledgerRepo, stockRepo, snapshotRepo, log).
		WithEventPublisher(publisher)

	// Initialize the workflows
	receiptWorkflow := service.NewReceiptWorkflow(mutator, enforcer, log)
	shipWorkflow := service.NewShipWorkflow(mutator, fefo, ledgerRepo, enforcer, log)
	countWorkflow := service.NewCountWorkflow(stockRepo, mutator, enforcer, log)
	rtvWorkflow := service.NewReturnToVendorWorkflow(stockRepo, poRepo, mutator, enforcer, log)
	issueWorkflow := service.NewInternalIssueWorkflow(mutator, fefo, enforcer, log)
	scanOrchestrator := service.NewScanOrchestrator(db, itemRepo, receiptWorkflow, shipWorkflow, countWorkflow, log)
	reconcileService := service.NewReconcileService(reconcileRepo, ledgerRepo, log)

	// Initialize authn (Inventory Core validates tokens, it never mints them)
	authManager := authn.NewManager(&cfg.JWT)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(itemRepo, log)
	batchHandler := handler.NewBatchHandler(batchRepo, log)
	ledgerHandler := handler.NewLedgerHandler(ledgerRepo, log)
	reconcileHandler := handler.NewReconcileHandler(reconcileService, snapshotEngine, log)
	scanHandler := handler.NewScanHandler(scanOrchestrator, log)
	workflowHandler := handler.NewWorkflowHandler(receiptWorkflow, shipWorkflow, countWorkflow, rtvWorkflow, issueWorkflow, log)
	scanFeed := handler.NewScanFeedHub(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := startScanFeedConsumer(ctx, rmq, scanFeed, log); err != nil {
		log.Fatal().Err(err).Msg("failed to start scan feed consumer")
	}

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Inventory-Scope"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// i18n middleware - extract locale from Accept-Language header
	r.Use(i18n.Middleware)

	r.Use(httputil.ScopeMiddleware)                     // resolves PROD/DRILL from X-Inventory-Scope
	r.Use(httputil.AuthMiddleware(authManager.Resolve)) // resolves the calling actor
	r.Use(db.TransactionMiddleware)                     // opens the WithScope transaction every primitive assumes

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/inventory", func(r chi.Router) {
		// Catalogue read-path: item master data and batch metadata are
		// owned by an external catalogue service; Inventory Core only reads.
		r.Route("/items", func(r chi.Router) {
			r.Get("/{id}", itemHandler.Get)
			r.Get("/sku/{sku}", itemHandler.GetBySKU)
			r.Get("/barcode/{barcode}", itemHandler.GetByBarcode)
			r.Get("/{warehouseID}/{itemID}/batches", batchHandler.ListByItem)
			r.Get("/{warehouseID}/{itemID}/batches/{batchCode}", batchHandler.Get)
		})

		// Ledger read-model
		r.Get("/ledger", ledgerHandler.Query)

		// Document-confirmation workflows
		r.Route("/workflows", func(r chi.Router) {
			r.Post("/receipts/confirm", workflowHandler.ConfirmReceipt)
			r.Post("/shipments/ship", workflowHandler.Ship)
			r.Post("/counts", workflowHandler.Count)
			r.Post("/internal-issues/confirm", workflowHandler.ConfirmInternalIssue)
			r.Post("/returns/tasks", workflowHandler.CreateReturnTask)
			r.Post("/returns/tasks/commit", workflowHandler.CommitReturnTask)
		})

		// Floor-device scan dispatch
		r.Post("/scan", scanHandler.Dispatch)

		// Diagnostics / cutover
		r.Get("/three-books/summary", reconcileHandler.ThreeBooksSummary)
		r.Route("/reconcile", func(r chi.Router) {
			r.Get("/diff", reconcileHandler.Diff)
			r.Post("/backfill", reconcileHandler.Backfill)
		})

		// Scenario seeding and replay, local development only
		if cfg.Server.Environment == "development" {
			devHandler := handler.NewDevConsoleHandler(mutator, snapshotEngine, ledgerRepo, log)
			r.Route("/dev", func(r chi.Router) {
				r.Post("/seed-ledger", devHandler.SeedLedger)
				r.Post("/replay", devHandler.Replay)
			})
		}
	})

	// Live scan feed for handheld/dashboard clients
	r.Get("/ws/scan-feed", scanFeed.Serve)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop the scan feed consumer
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// startScanFeedConsumer binds a queue to the inventory events exchange and
// forwards every stock-adjusted event onto the websocket feed, so a
// dashboard sees an adjustment land without polling the ledger. Publish
// failures never roll back a workflow (events.InventoryEventPublisher is
// best-effort), so this consumer can lag or miss a broker restart without
// corrupting anything it feeds.
func startScanFeedConsumer(ctx context.Context, rmq *messaging.RabbitMQ, feed *handler.ScanFeedHub, log *logger.Logger) error {
	consumer, err := messaging.NewConsumer(rmq, "inventory-core.scan-feed", log)
	if err != nil {
		return err
	}
	if err := consumer.Subscribe(messaging.ExchangeInventoryEvents, messaging.EventStockAdjusted); err != nil {
		return err
	}

	consumer.RegisterHandler(messaging.EventStockAdjusted, func(ctx context.Context, evt *messaging.Event) error {
		var data messaging.StockAdjustedEvent
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			return err
		}
		feed.OnStockAdjusted(data)
		return nil
	})

	return consumer.Start(ctx)
}
