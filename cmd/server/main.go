package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticketcore/internal/config"
	"ticketcore/internal/database"
	"ticketcore/internal/handlers"
	"ticketcore/internal/middleware"
	"ticketcore/internal/repositories"
	"ticketcore/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	inventoryRepo := repositories.NewInventoryRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	buyerRepo := repositories.NewBuyerRepository(db)
	checkoutRepo := repositories.NewCheckoutRepository(db)

	inventoryService := services.NewInventoryService(inventoryRepo)
	cartService := services.NewCartService(inventoryService)
	ledgerService := services.NewLedgerService(ledgerRepo)
	scannerService := services.NewScannerService(ticketRepo)
	checkoutService := services.NewCheckoutService(
		inventoryService, ledgerService, ticketRepo, buyerRepo, checkoutRepo, logger)

	if err := ledgerService.EnsureChart(); err != nil {
		logger.Error("failed to seed chart of accounts", "error", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(
		inventoryService, cartService, checkoutService, scannerService, ledgerService,
		buyerRepo, middleware.HeaderPrincipalResolver{}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr(), "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newLogger builds the process logger from configuration. Development gets
// text output, everything else JSON.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
