package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DukeRupert/gigwell/internal"
	"github.com/DukeRupert/gigwell/internal/billing"
	"github.com/DukeRupert/gigwell/internal/clock"
	"github.com/DukeRupert/gigwell/internal/email"
	"github.com/DukeRupert/gigwell/internal/handler"
	"github.com/DukeRupert/gigwell/internal/jobs"
	"github.com/DukeRupert/gigwell/internal/metrics"
	"github.com/DukeRupert/gigwell/internal/middleware"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/DukeRupert/gigwell/internal/service"
	"github.com/DukeRupert/gigwell/internal/storage"
	"github.com/DukeRupert/gigwell/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	store := repository.NewStore(db)

	// ==========================================================================
	// Infrastructure
	// ==========================================================================

	files, err := storage.New(storage.Config{
		Provider: cfg.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	var billingService billing.Service
	if cfg.BillingEnabled() {
		frontend := strings.TrimRight(cfg.FrontendURL, "/")
		billingService = billing.NewStripeService(billing.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Currency:      cfg.StripeCurrency,
			SuccessURL:    frontend + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     frontend + "/billing/cancelled",
		})
		logger.Info("Stripe billing enabled", "currency", cfg.StripeCurrency)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; checkout is disabled and webhooks are ignored")
	}

	// ==========================================================================
	// Services
	// ==========================================================================

	clk := clock.Real
	entitlements := service.NewEntitlementService(store, logger)
	quota := service.NewQuotaService(store, entitlements, clk, logger)
	plans := service.NewPlanService(store, logger)
	contracts := service.NewContractService(store, quota, files, clk, logger)
	market := service.NewMarketplaceService(store, quota, clk, logger)
	accounts := service.NewAccountService(store, logger)
	reconciler := service.NewBillingReconciler(store, clk, service.ReconcilerConfig{
		DefaultLocation: cfg.BillingDefaultLocation,
	}, logger)

	// ==========================================================================
	// Background worker
	// ==========================================================================

	var bgWorker *worker.Worker
	if cfg.WorkerEnabled {
		bgWorker, err = startWorker(ctx, cfg, store, files, logger)
		if err != nil {
			return err
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, clk)
	go limiter.Run(ctx)

	// ==========================================================================
	// Middleware
	// ==========================================================================

	authMw := middleware.NewAuthMiddleware(cfg.JWTSecret, store, cfg.AdminEmails, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(!cfg.IsDevelopment())
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, logger)

	requireActor := authMw.RequireActor
	requireAdmin := middleware.Stack(authMw.RequireActor, authMw.RequireAdmin)
	limited := middleware.Stack(authMw.RequireActor, rateLimitMw.Limit)

	// ==========================================================================
	// Routes
	// ==========================================================================

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	if cfg.StorageProvider == storage.ProviderLocal && cfg.IsDevelopment() {
		mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.LocalStoragePath))))
	}

	v := handler.NewValidator()
	handler.NewPlanHandler(plans, v, logger).RegisterRoutes(mux, requireAdmin)
	handler.NewEntitlementHandler(entitlements, quota, logger).RegisterRoutes(mux, requireActor)
	handler.NewAccountHandler(accounts, logger).RegisterRoutes(mux, requireActor)
	handler.NewMarketplaceHandler(market, v, logger).RegisterRoutes(mux, limited)
	handler.NewContractHandler(contracts, v, logger).RegisterRoutes(mux, requireActor)
	handler.NewBillingHandler(billingService, plans, v, logger).RegisterRoutes(mux, limited)
	handler.NewWebhookHandler(billingService, reconciler, logger).RegisterRoutes(mux)

	corsMw := cors.New(cors.Options{
		AllowedOrigins:   append([]string{cfg.FrontendURL}, cfg.CORSAllowedOrigins...),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	root := middleware.Stack(
		corsMw.Handler,
		securityMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
		authMw.WithActor,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		// Work uploads stream up to the attachment limit.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if bgWorker != nil {
		bgWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// startWorker builds the job worker with its handlers and starts polling.
func startWorker(ctx context.Context, cfg *internal.Config, store repository.Store, files storage.Storage, logger *slog.Logger) (*worker.Worker, error) {
	emailService, err := email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("email initialization failed: %w", err)
	}

	workerCfg := worker.DefaultConfig()
	workerCfg.Concurrency = cfg.WorkerConcurrency
	workerCfg.PollInterval = cfg.WorkerPollInterval
	workerCfg.JobTimeout = cfg.WorkerJobTimeout
	if workerCfg.StaleJobThreshold <= workerCfg.JobTimeout {
		workerCfg.StaleJobThreshold = 2 * workerCfg.JobTimeout
	}

	w, err := worker.New(store, workerCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("worker initialization failed: %w", err)
	}

	w.Register(jobs.NewSendPaymentReceiptHandler(files, emailService, nil, jobs.ReceiptConfig{
		DownloadTimeout: cfg.InvoiceDownloadTimeout,
	}, logger))

	w.Start(ctx)
	return w, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
