package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/listdex/internal/config"
	dbRedis "github.com/kailas-cloud/listdex/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/listdex/internal/db/sqlite"
	"github.com/kailas-cloud/listdex/internal/domain/record"
	logpkg "github.com/kailas-cloud/listdex/internal/logger"
	"github.com/kailas-cloud/listdex/internal/metrics"
	"github.com/kailas-cloud/listdex/internal/repository/snapshot"
	chiTransport "github.com/kailas-cloud/listdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/listdex/internal/usecase/health"
	listinguc "github.com/kailas-cloud/listdex/internal/usecase/listing"
	"github.com/kailas-cloud/listdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting listdex API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("datasets", len(cfg.Datasets)),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	healthSvc := healthuc.New()
	readiness := time.Duration(cfg.Database.Redis.ReadinessTimeout) * time.Second

	// Snapshot stores, only for the sources datasets actually use
	var redisStore *dbRedis.Store
	if cfg.UsesSource(config.SourceRedis) {
		redisStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Redis.Addrs,
			Username: cfg.Database.Redis.Username,
			Password: cfg.Database.Redis.Password,
			DB:       cfg.Database.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer redisStore.Close()
		if err := redisStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		healthSvc.Add("redis", redisStore)
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Database.Redis.Addrs))
	}

	var sqliteStore *dbSQLite.Store
	if cfg.UsesSource(config.SourceSQLite) {
		sqliteStore, err = dbSQLite.NewStore(dbSQLite.Config{Path: cfg.Database.SQLite.Path})
		if err != nil {
			logger.Fatal("Failed to open sqlite", zap.Error(err))
		}
		defer sqliteStore.Close()
		if err := sqliteStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("SQLite not ready", zap.Error(err))
		}
		healthSvc.Add("sqlite", sqliteStore)
		logger.Info("Opened sqlite", zap.String("path", cfg.Database.SQLite.Path))
	}

	// Register listing metrics explicitly (no init())
	metrics.RegisterListingMetrics()

	listingSvc := listinguc.New(listinguc.WithMetrics(metrics.Listing{}))
	for _, d := range cfg.Datasets {
		def, err := buildDefinition(d, redisStore, sqliteStore)
		if err != nil {
			logger.Fatal("Invalid dataset", zap.String("dataset", d.Name), zap.Error(err))
		}
		if err := listingSvc.Register(ctx, def); err != nil {
			logger.Fatal("Failed to register dataset", zap.String("dataset", d.Name), zap.Error(err))
		}
	}
	healthSvc.Add("datasets", healthuc.PingFunc(listingSvc.Ready))

	// Failed datasets answer 503 until a later refresh succeeds.
	if err := listingSvc.LoadAll(ctx); err != nil {
		logger.Warn("Some datasets failed to load", zap.Error(err))
	}
	go func() {
		if err := listingSvc.Run(ctx); err != nil {
			logger.Error("Refresh loop stopped", zap.Error(err))
		}
	}()

	// Create chi server
	server := chiTransport.NewServer(listingSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildDefinition turns a dataset config into a listing definition with the
// loader for its source.
func buildDefinition(
	d config.DatasetConfig,
	redisStore *dbRedis.Store,
	sqliteStore *dbSQLite.Store,
) (listinguc.Definition, error) {
	schema, err := record.ParseSchema(d.Schema)
	if err != nil {
		return listinguc.Definition{}, fmt.Errorf("schema: %w", err)
	}
	tag, err := language.Parse(d.Collation)
	if err != nil {
		return listinguc.Definition{}, fmt.Errorf("collation: %w", err)
	}

	var loader listinguc.Loader
	switch d.Source.Type {
	case config.SourceFile:
		loader = snapshot.NewFileLoader(d.Source.Path, schema)
	case config.SourceRedis:
		loader = snapshot.NewHashLoader(redisStore, d.Source.KeyPattern, schema)
	case config.SourceSQLite:
		loader = snapshot.NewSQLLoader(sqliteStore, d.Source.Query, schema)
	default:
		return listinguc.Definition{}, fmt.Errorf("unknown source type %q", d.Source.Type)
	}

	return listinguc.Definition{
		Name:             d.Name,
		Loader:           loader,
		SearchableFields: d.SearchableFields,
		Collation:        tag,
		DefaultPageSize:  d.DefaultPageSize,
		MaxPageSize:      d.MaxPageSize,
		RefreshInterval:  time.Duration(d.RefreshInterval) * time.Second,
	}, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("dataset", chi.URLParam(r, "dataset")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
