package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/finance-api/docs"
	"github.com/straye-as/finance-api/internal/auth"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/config"
	"github.com/straye-as/finance-api/internal/database"
	"github.com/straye-as/finance-api/internal/datawarehouse"
	"github.com/straye-as/finance-api/internal/http/handler"
	"github.com/straye-as/finance-api/internal/http/middleware"
	"github.com/straye-as/finance-api/internal/http/router"
	"github.com/straye-as/finance-api/internal/jobs"
	"github.com/straye-as/finance-api/internal/logger"
	"github.com/straye-as/finance-api/internal/repository"
	"github.com/straye-as/finance-api/internal/service"
	"github.com/straye-as/finance-api/internal/storage"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepTimeout    = 2 * time.Minute
)

// @title Straye Finance API
// @version 1.0
// @description Project finance API for clients, projects, installment plans, cost history and payment receipts
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@straye.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.PublicHost != "" {
		docs.SwaggerInfo.Host = basicCfg.App.PublicHost
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In development secrets come from the environment; staging and
	// production read them from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	loc := cfg.App.Location()

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		log.Info("SQLite schema migrated", zap.String("path", cfg.Database.SQLitePath))
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	dashboardCache, err := cache.New(&cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	log.Info("Cache initialized", zap.String("mode", cfg.Cache.Mode))

	// The warehouse is optional; the API runs without ERP payment sync
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
			dwClient = nil
		} else if dwClient != nil {
			log.Info("Data warehouse connected",
				zap.Int("max_open_conns", cfg.DataWarehouse.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.DataWarehouse.QueryTimeout),
			)
		}
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	clientRepo := repository.NewClientRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	costChangeRepo := repository.NewCostChangeRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	// Services
	accountService := service.NewAccountService(accountRepo, log)
	clientService := service.NewClientService(clientRepo, loc, log)
	projectService := service.NewProjectService(projectRepo, clientRepo, costChangeRepo, dashboardCache, db, loc, log)
	installmentService := service.NewInstallmentService(installmentRepo, projectRepo, accountRepo, dashboardCache, db, loc, log)
	receiptService := service.NewReceiptService(receiptRepo, projectRepo, accountRepo, fileStorage, dashboardCache, db, loc, log)
	dashboardService := service.NewDashboardService(clientRepo, projectRepo, dashboardCache, cfg.Cache.TTLDuration(), cfg.Jobs.DueSoonDays, loc, log)
	importService := service.NewImportService(clientRepo, projectRepo, installmentRepo, dashboardCache, db, loc, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, dashboardCache, authMiddleware, rateLimiter, router.Handlers{
		Client:      handler.NewClientHandler(clientService, log),
		Project:     handler.NewProjectHandler(projectService, log),
		Installment: handler.NewInstallmentHandler(installmentService, log),
		Receipt:     handler.NewReceiptHandler(receiptService, cfg.Storage.MaxUploadSizeMB, log),
		Account:     handler.NewAccountHandler(accountService, log),
		Dashboard:   handler.NewDashboardHandler(dashboardService, log),
		Import:      handler.NewImportHandler(importService, log),
	})

	scheduler, err := startScheduler(cfg, log, installmentService, receiptService, dwClient)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), "request timed out"),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}
	}

	if dwClient != nil {
		if err := dwClient.Close(); err != nil {
			log.Warn("Error closing data warehouse connection", zap.Error(err))
		}
	}
	if rc, ok := dashboardCache.(*cache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Warn("Error closing Redis connection", zap.Error(err))
		}
	}

	log.Info("Server stopped gracefully")
	return nil
}

// startScheduler registers the overdue sweep and, when the warehouse is
// available, the ERP receipt sync. It returns nil when no job is enabled.
func startScheduler(
	cfg *config.Config,
	log *zap.Logger,
	installments *service.InstallmentService,
	receipts *service.ReceiptService,
	dwClient *datawarehouse.Client,
) (*jobs.Scheduler, error) {
	if !cfg.Jobs.Enabled {
		log.Info("Background jobs disabled")
		return nil, nil
	}

	scheduler := jobs.NewScheduler(log)

	if err := jobs.RegisterOverdueSweepJob(scheduler, installments, log, cfg.Jobs.OverdueCron, sweepTimeout); err != nil {
		return nil, fmt.Errorf("failed to register overdue sweep job: %w", err)
	}

	if dwClient != nil && cfg.DataWarehouse.SyncCron != "" {
		syncer := service.NewReceiptSyncService(dwClient, receipts, cfg.DataWarehouse.LookbackDays, cfg.App.Location(), log)
		if err := jobs.RegisterReceiptSyncJob(
			scheduler,
			syncer,
			log,
			cfg.DataWarehouse.SyncCron,
			cfg.DataWarehouse.QueryTimeoutDuration()*4,
			true,
		); err != nil {
			return nil, fmt.Errorf("failed to register receipt sync job: %w", err)
		}
	} else {
		log.Info("ERP receipt sync disabled",
			zap.Bool("dw_client_available", dwClient != nil),
			zap.String("cron_expr", cfg.DataWarehouse.SyncCron),
		)
	}

	scheduler.Start()
	log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))
	return scheduler, nil
}
