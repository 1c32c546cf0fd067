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

	"ecoshopy/internal/cartstore"
	"ecoshopy/internal/config"
	"ecoshopy/internal/database"
	"ecoshopy/internal/handler"
	"ecoshopy/internal/payment"
	"ecoshopy/internal/reconcile"
	"ecoshopy/internal/repository"
	"ecoshopy/internal/router"
	"ecoshopy/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting ecoshopy API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Cart snapshots live in S3 when enabled, otherwise on local disk
	carts, err := cartstore.Open(ctx, cfg.S3, cfg.CartStore.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cart store: %w", err)
	}

	provider := payment.NewRazorpay(cfg.Payment, logger)
	pricing := service.NewPricing(cfg.Checkout)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(carts, productRepo, pricing, logger)
	orderService := service.NewOrderService(orderRepo, cartService, provider, pricing, cfg.Payment, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Product: handler.NewProductHandler(productService, logger),
		Cart:    handler.NewCartHandler(cartService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Admin:   handler.NewAdminHandler(orderService, logger),
	}

	// Initialize router
	mux := router.New(handlers, cfg.Auth.APIKey, cfg.Auth.AdminAPIKey, logger)

	sweeperDone := make(chan struct{})
	if cfg.Reconcile.Enabled {
		sweeper := reconcile.NewSweeper(orderService, cfg.Reconcile, logger)
		go func() {
			defer close(sweeperDone)
			sweeper.Run(ctx)
		}()
	} else {
		close(sweeperDone)
		logger.Info().Msg("payment reconciliation disabled")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		cancel()
		<-sweeperDone

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
