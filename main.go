package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/username/tradeops/backend/src/catalog"
	"github.com/username/tradeops/backend/src/config"
	"github.com/username/tradeops/backend/src/database"
	"github.com/username/tradeops/backend/src/export"
	"github.com/username/tradeops/backend/src/handlers"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/security"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/store"
)

// openStore picks the repository named by STORE_DRIVER.
func openStore(cfg *config.AppConfig) store.Repository {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.L.Info("Using in-memory store")
		return store.NewMemoryStore()
	case config.StorePostgres:
		logger.L.Info("Initializing database...", "dialect", database.DialectPostgres)
		return store.NewSQLStore(database.InitDB(database.DialectPostgres, cfg.DatabaseURL), database.DialectPostgres)
	default:
		logger.L.Info("Initializing database...", "dialect", database.DialectSQLite, "path", cfg.DatabasePath)
		return store.NewSQLStore(database.InitDB(database.DialectSQLite, cfg.DatabasePath), database.DialectSQLite)
	}
}

func main() {
	config.LoadConfig()
	cfg := config.Cfg
	logger.InitLogger(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	logger.L.Info("TradeOps backend server starting...")

	if err := cfg.Validate(); err != nil {
		logger.L.Error("Configuration invalid", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.L.Error("Failed to load entity catalog", "error", err)
		os.Exit(1)
	}
	logsView, err := cat.View("logs")
	if err != nil {
		logger.L.Error("Catalog has no logs view", "error", err)
		os.Exit(1)
	}
	logsView.MaxRecords = cfg.LiveFeedMaxRecords

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := openStore(cfg)
	if database.DB != nil {
		defer database.DB.Close()
	}
	if cfg.SeedFixtures {
		seeded, err := store.Seed(ctx, repo, cat)
		if err != nil {
			logger.L.Error("Failed to seed fixtures", "error", err)
			os.Exit(1)
		}
		logger.L.Info("Fixtures checked", "inserted", seeded)
	}

	authService := security.NewAuthService(cfg.JWTSecret, cfg.AccessTokenExpiry)
	accountService, err := services.NewAccountService(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminMfaSecret, authService, services.NewMFAService())
	if err != nil {
		logger.L.Error("Failed to set up admin account", "error", err)
		os.Exit(1)
	}

	statsService := services.NewStatsService(repo, cat.Names(), cfg.StatsCacheTTL)
	liveFeed := services.NewLiveFeed(repo, statsService, cfg.LiveFeedInterval, cfg.LiveFeedMaxRecords)
	recordService := services.NewRecordService(repo, cat, statsService, liveFeed)
	listSessions := services.NewListSessions(cfg.ListSessionTTL, cfg.SearchDebounce)
	defer listSessions.Close()

	router := handlers.NewRouter(handlers.Deps{
		Base:           ctx,
		Auth:           authService,
		Accounts:       accountService,
		Records:        recordService,
		Sessions:       listSessions,
		Imports:        services.NewImportService(recordService, 0),
		Stats:          statsService,
		Feed:           liveFeed,
		Tester:         services.NewSourceTester(recordService, cfg.SourceTestTimeout, cfg.SourceTestRate),
		Exporter:       export.New(),
		ExportGuard:    export.NewGuard(),
		AllowedOrigins: cfg.AllowedOrigins,
		CSRFEnabled:    cfg.CSRFEnabled,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxUploadSize:  cfg.MaxUploadSizeBytes,
	})

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.L.Info("Shutting down server...")
		liveFeed.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	logger.L.Info("Server stopped")
}
