package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nepkart/internal/config"
	"nepkart/internal/database"
	"nepkart/internal/events"
	"nepkart/internal/gateway"
	"nepkart/internal/handler"
	"nepkart/internal/mailer"
	"nepkart/internal/recommend"
	"nepkart/internal/repository"
	"nepkart/internal/router"
	"nepkart/internal/service"

	"github.com/redis/go-redis/v9"
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
	logger.Info().Msg("starting nepkart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Initialize mail template loader with S3 and local fallback
	fileLoader := mailer.NewFileLoader(cfg.Mail.TemplateDir, logger)
	templateLoader := fileLoader

	if cfg.S3.Enabled {
		s3Loader, err := mailer.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			templateLoader = mailer.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger)
		}
	} else {
		logger.Info().Msg("using local file system for mail templates (S3 disabled)")
	}

	// Initialize mail sender
	var sender mailer.Sender
	if cfg.Mail.Enabled {
		sender = mailer.NewHTTPSender(cfg.Mail, logger)
	} else {
		sender = mailer.NewNopSender(logger)
		logger.Info().Msg("mail delivery disabled")
	}
	orderMailer := mailer.New(templateLoader, sender, logger)

	// Initialize event publisher
	var publisher service.EventPublisher
	if cfg.Broker.Enabled {
		amqpPublisher, err := events.NewPublisher(cfg.Broker.URL, cfg.Broker.Exchange, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	} else {
		logger.Info().Msg("event publishing disabled")
	}

	// Initialize recommendation cache
	var recommendCache *redis.Client
	if cfg.Redis.Enabled {
		recommendCache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer recommendCache.Close()
	} else {
		logger.Info().Msg("recommendation cache disabled")
	}

	recommender := recommend.NewRecommender(
		orderRepo,
		recommend.NewAprioriMiner(),
		recommendCache,
		time.Duration(cfg.Redis.TTL)*time.Second,
		cfg.Recommend.MinSupport,
		cfg.Recommend.MinLift,
		logger,
	)

	// Initialize gateway client
	khalti := gateway.NewKhaltiClient(cfg.Gateway, logger)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, orderMailer, publisher, logger)
	paymentService := service.NewPaymentService(orderRepo, khalti, cfg.Gateway, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(catalogService, logger)
	cartHandler := handler.NewCartHandler(cartService, recommender, logger)
	orderHandler := handler.NewOrderHandler(orderService, paymentService, logger)

	// Initialize router
	mux := router.New(productHandler, cartHandler, orderHandler, cfg.Auth.APIKey, logger)

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
		return fmt.Errorf("server error: %w", err)

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

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
