// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kainan-collective/kainan/internal/api"
	"github.com/kainan-collective/kainan/internal/audit"
	"github.com/kainan-collective/kainan/internal/auth"
	"github.com/kainan-collective/kainan/internal/config"
	"github.com/kainan-collective/kainan/internal/curation"
	"github.com/kainan-collective/kainan/internal/db"
	"github.com/kainan-collective/kainan/internal/dish"
	"github.com/kainan-collective/kainan/internal/favorite"
	"github.com/kainan-collective/kainan/internal/health"
	"github.com/kainan-collective/kainan/internal/middleware"
	"github.com/kainan-collective/kainan/internal/municipality"
	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/restaurant"
	"github.com/kainan-collective/kainan/internal/tracing"
	"github.com/kainan-collective/kainan/internal/upload"
)

const serviceName = "kainan-api"

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Kainan API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "configuration errors:")
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	summary := cfg.LogSummary()
	attrs := make([]any, 0, len(summary)*2)
	for k, v := range summary {
		attrs = append(attrs, k, v)
	}
	logger.Info("configuration loaded", attrs...)

	ctx := context.Background()

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: "otlp-grpc",
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Repositories
	municipalities := municipality.NewPostgresRepository(database)
	dishes := dish.NewPostgresRepository(database)
	restaurants := restaurant.NewPostgresRepository(database)
	ratings := rating.NewPostgresRepository(database)
	favorites := favorite.NewPostgresRepository(database)
	auditLog := audit.NewPostgresRepository(database)

	// Metrics
	metrics := middleware.NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Redis backs rate limiting when configured; otherwise limits are kept
	// in process memory.
	var redisClient *redis.Client
	var rateLimitStore middleware.RateLimitStore
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(metrics)
		logger.Info("rate limiting backed by redis", "addr", cfg.RedisAddr)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		rateLimitStore = memStore
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		logger.Info("rate limiting backed by process memory")
	}

	// Services
	jwtService := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
	aggregator := rating.NewAggregator(ratings, api.RatingTargets(dishes, restaurants), nil, logger)
	curationService := curation.NewService(dishes, restaurants, auditLog, logger)
	favoriteService := favorite.NewService(favorites, map[rating.Kind]favorite.PopularityStore{
		rating.KindDish:       dishes,
		rating.KindRestaurant: restaurants,
	}, logger)

	var uploadService *upload.Service
	if cfg.UploadsEnabled() {
		uploadService, err = upload.NewService(upload.ServiceConfig{
			BucketName:      cfg.S3BucketName,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			MaxSizeMB:       cfg.MaxUploadSizeMB,
		})
		if err != nil {
			logger.Error("failed to initialize upload service", "error", err)
			os.Exit(1)
		}
		logger.Info("photo uploads enabled", "bucket", cfg.S3BucketName)
	} else {
		logger.Info("photo uploads disabled: S3 storage not configured")
	}

	var redisChecker health.Checker
	if redisClient != nil {
		redisChecker = health.NewRedisChecker(redisClient)
	}

	// Mutating endpoints carry a tighter per-user limit on top of the
	// global one.
	writeLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultWriteLimit(), middleware.UserKeyFunc())

	router := api.NewRouter(api.RouterConfig{
		Municipalities: api.NewMunicipalityHandlers(municipalities),
		Dishes:         api.NewDishHandlers(dishes, municipalities),
		Restaurants:    api.NewRestaurantHandlers(restaurants, municipalities),
		Ratings:        api.NewRatingHandlers(aggregator, ratings),
		Favorites:      api.NewFavoriteHandlers(favoriteService),
		Curation:       api.NewCurationHandlers(curationService, dishes, restaurants),
		Uploads:        api.NewUploadHandlers(uploadService),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:    health.NewDBChecker(database),
			RedisChecker: redisChecker,
		}),
		JWTService:   jwtService,
		WriteLimiter: writeLimiter,
	})

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	globalLimit := middleware.DefaultGlobalLimit()
	if cfg.RateLimitPerMinute > 0 {
		globalLimit.RequestsPerWindow = cfg.RateLimitPerMinute
	}

	// Apply middleware: RequestID -> Logging -> CORS -> Tracing ->
	// HTTPMetrics -> global RateLimiter -> routes.
	var handler http.Handler = mux
	handler = middleware.RateLimiter(rateLimitStore, globalLimit, middleware.IPKeyFunc())(handler)
	handler = middleware.HTTPMetrics(metrics)(handler)
	if tracingProvider.IsEnabled() {
		handler = middleware.Tracing(serviceName)(handler)
	}
	handler = middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins))(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down tracing", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}

	logger.Info("server stopped")
}
