package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reservasegura/monitor/internal/browser"
	"github.com/reservasegura/monitor/internal/config"
	"github.com/reservasegura/monitor/internal/crypto"
	"github.com/reservasegura/monitor/internal/database"
	"github.com/reservasegura/monitor/internal/handler"
	"github.com/reservasegura/monitor/internal/render"
	"github.com/reservasegura/monitor/internal/scraper"
	"github.com/reservasegura/monitor/internal/session"
	"github.com/reservasegura/monitor/internal/service"
	"github.com/reservasegura/monitor/internal/worker"
	"github.com/reservasegura/monitor/pkg/metrics"
	"github.com/reservasegura/monitor/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting Reservation Monitor", "version", version)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	// Create indexes
	if err := database.CreateIndexes(ctx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	reservationRepo := database.NewReservationRepository(db)
	changeEventRepo := database.NewChangeEventRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	accountRepo := database.NewAccountRepository(db)

	// Initialize credential encryption
	keyHex := cfg.EncryptionKeyHex
	if keyHex == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			slog.Error("Failed to generate ephemeral encryption key", "error", err)
			os.Exit(1)
		}
		keyHex = hex.EncodeToString(buf)
		slog.Warn("ENCRYPTION_KEY not set, using ephemeral key; stored credentials will not decrypt after restart")
	}
	encryptor, err := crypto.NewEncryptor(keyHex)
	if err != nil {
		slog.Error("Failed to initialize encryptor", "error", err)
		os.Exit(1)
	}

	// Initialize scraping paths
	renderClient := render.NewClient(render.Config{
		BaseURL:     cfg.RenderBaseURL,
		APIKey:      cfg.RenderAPIKey,
		CountryCode: cfg.RenderCountryCode,
		Timeout:     cfg.RenderTimeout,
		MaxAttempts: cfg.RenderMaxAttempts,
	})
	if !renderClient.Configured() {
		slog.Warn("Render provider not configured, public lookups will fail")
	}

	browserManager := browser.NewManager(browser.Config{
		Headless:    cfg.BrowserHeadless,
		BinPath:     cfg.BrowserBinPath,
		PageTimeout: cfg.BrowserPageTimeout,
	})
	defer browserManager.Close()

	sessionManager := session.NewManager(browserManager, cfg.SessionTTL)
	accountScraper := scraper.NewAccountScraper(browserManager)

	// Initialize metrics
	m := metrics.NewMetrics("reservation_monitor")

	// Initialize monitoring service
	monitoringService := service.NewMonitoringService(
		reservationRepo,
		changeEventRepo,
		notificationRepo,
		accountRepo,
		renderClient,
		sessionManager,
		accountScraper,
		encryptor,
		m,
	)

	// Initialize monitoring worker
	monitor := worker.NewMonitor(
		monitoringService,
		reservationRepo,
		m,
		cfg.WorkerCadence,
		cfg.WorkerSchedule,
	)
	if cfg.WorkerEnabled {
		monitor.Start(ctx)
	} else {
		slog.Info("Monitoring worker is disabled by configuration")
	}

	// Initialize handlers
	reservationHandler := handler.NewReservationHandler(monitoringService)
	workerHandler := handler.NewWorkerHandler(monitor)
	accountHandler := handler.NewAccountHandler(accountRepo, encryptor)
	healthHandler := handler.NewHealthHandler(db, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(
		reservationHandler,
		workerHandler,
		accountHandler,
		healthHandler,
		corsConfig,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the worker first (wait for the in-flight cycle)
	slog.Info("Stopping monitoring worker...")
	monitor.Stop(shutdownCtx)

	// Shutdown HTTP server
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Reservation Monitor stopped")
}
