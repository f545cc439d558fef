package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"culturaviva/internal/app"
	"culturaviva/internal/config"
	"culturaviva/internal/directions"
	"culturaviva/internal/handler"
	internalRedis "culturaviva/internal/redis"
	"culturaviva/internal/repository/postgres"
	"culturaviva/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	if cfg.Directions.APIKey == "" {
		log.Println("DIRECTIONS_API_KEY is not set; route requests will be rejected by the provider")
	}

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg, logger)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) *http.Server {
	// Initialize Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	positionStore := internalRedis.NewPositionStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	eventPublisher := internalRedis.NewEventPublisher(redisClient)

	// Initialize repositories.
	templateRepo := postgres.NewTemplateRepository(db)
	certificateRepo := postgres.NewCertificateRepository(db)

	// Outbound directions client, traced as external segments when New Relic is on.
	httpClient := &http.Client{Timeout: cfg.Directions.Timeout}
	if nrApp != nil {
		httpClient.Transport = newrelic.NewRoundTripper(nil)
	}
	provider := directions.NewORSProvider(cfg.Directions.BaseURL, cfg.Directions.APIKey, httpClient)

	// Initialize services.
	directionsService := service.NewDirectionsService(provider, cacheStore, cfg.Directions.CacheTTL, logger)
	templateService := service.NewTemplateService(templateRepo, cfg.Certificate.PublicBaseURL, logger)
	certificateService := service.NewCertificateService(certificateRepo, templateService, cacheStore, lockStore, logger)

	// Initialize handlers.
	navigationHandler := handler.NewNavigationHandler(
		directionsService,
		positionStore,
		eventPublisher,
		handler.NavigationConfig{
			ArrivalThresholdMeters: cfg.Navigation.ArrivalThresholdMeters,
			LocateTimeout:          cfg.Navigation.LocateTimeout,
		},
		logger,
	)
	certificateHandler := handler.NewCertificateHandler(certificateService)
	templateHandler := handler.NewTemplateHandler(templateService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		NavigationHandler:  navigationHandler,
		CertificateHandler: certificateHandler,
		TemplateHandler:    templateHandler,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
