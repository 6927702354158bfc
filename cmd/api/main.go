package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/velopay/payops/internal/bankconfirmation"
	"github.com/velopay/payops/internal/beneficiary"
	"github.com/velopay/payops/internal/config"
	"github.com/velopay/payops/internal/database"
	"github.com/velopay/payops/internal/ledger"
	"github.com/velopay/payops/internal/metrics"
	"github.com/velopay/payops/internal/settlement"
	"github.com/velopay/payops/internal/settlement/delta"
	"github.com/velopay/payops/internal/vendor"
	mw "github.com/velopay/payops/pkg/middleware"
)

// @title        PayOps Settlement API
// @version      1.0
// @description  Settlement lifecycle and balance-ledger reconciliation engine
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize reader/writer database pools
	pool, err := database.NewPool(context.Background(), cfg.DatabaseURL, cfg.DatabaseReplicaURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	logger.Info("Connected to database")

	// Delta strategy factory selects bookkeeping rules per owner role/method
	deltaFactory := delta.NewFactory()

	// Settlement feature with its collaborators
	settlementService := settlement.NewService(
		pool,
		database.NewAdvisoryLocker(),
		settlement.NewRepository(),
		ledger.NewRepository(),
		bankconfirmation.NewRepository(),
		vendor.NewRepository(),
		beneficiary.NewRepository(),
		deltaFactory,
		logger,
	)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(mw.ActorMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/settlements", settlementHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("Server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}
