package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sanchar-ai/hangout-planner/internal/config"
	"github.com/sanchar-ai/hangout-planner/internal/geocode"
	"github.com/sanchar-ai/hangout-planner/internal/httpapi"
	"github.com/sanchar-ai/hangout-planner/internal/observability"
	"github.com/sanchar-ai/hangout-planner/internal/planner"
	"github.com/sanchar-ai/hangout-planner/internal/session"
	"github.com/sanchar-ai/hangout-planner/internal/weather"
)

func main() {
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	geocodeClient := geocode.NewNominatimClientWithRetry(
		cfg.GeocodeURL,
		cfg.GeocodeRegionQualifier,
		cfg.GeocodeUserAgent,
		cfg.GeocodeTimeout,
		cfg.RetryAttempts,
		cfg.RetryBaseDelay,
		cfg.RetryMaxDelay,
	)

	var geocodeCache geocode.Cache
	var memcacheCloser *geocode.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := geocode.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		geocodeCache = mc
		logger.Info("geocode cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		geocodeCache = geocode.NewInMemoryCache()
		logger.Info("geocode cache backend: in_memory")
	}
	resolver := geocode.NewCachedResolver(geocodeClient, geocodeCache, logger)

	weatherClient := weather.NewOpenMeteoClient(cfg.WeatherURL, cfg.WeatherTimeout)
	plannerClient := planner.NewHTTPClient(cfg.PlannerBaseURL, cfg.PlannerTimeout)

	engine := session.NewEngine(resolver, weatherClient, plannerClient, logger)
	store := session.NewStore()

	var cachePing func() error
	if memcacheCloser != nil {
		cachePing = memcacheCloser.Ping
	}
	handler := httpapi.NewHandler(engine, store, cfg.ShareBaseURL, logger, cachePing)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	router := mux.NewRouter()
	router.Use(httpapi.CorrelationIDMiddleware(logger))
	router.Use(httpapi.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	router.HandleFunc("/plan/{token}", handler.GetSharedPlan).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(httpapi.RateLimitMiddleware(limiter))
	apiRouter.Use(httpapi.TimeoutMiddleware(cfg.RequestTimeout))
	apiRouter.HandleFunc("/sessions", handler.CreateSession).Methods("POST")
	apiRouter.HandleFunc("/sessions/{id}", handler.GetSession).Methods("GET")
	apiRouter.HandleFunc("/sessions/{id}", handler.DeleteSession).Methods("DELETE")
	apiRouter.HandleFunc("/sessions/{id}/messages", handler.PostMessage).Methods("POST")
	apiRouter.HandleFunc("/sessions/{id}/retry", handler.RetrySession).Methods("POST")
	apiRouter.HandleFunc("/sessions/{id}/share", handler.GetShareLink).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httpapi.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer waitCancel()
	if err := httpapi.WaitForInFlight(waitCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httpapi.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
