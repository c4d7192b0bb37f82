package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/config"
	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/metrics"
	"zborinfo/dispecer/internal/providers"
	"zborinfo/dispecer/internal/registry"
	"zborinfo/dispecer/internal/routes"
	"zborinfo/dispecer/internal/seed"
	"zborinfo/dispecer/internal/services"
	"zborinfo/dispecer/internal/stats"
	"zborinfo/dispecer/internal/workers"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Dispecer starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	metricsReg := metrics.NewMetricsRegistry()

	// Persistent cache tier: redis wins, then postgres, then local sqlite.
	store, storeKind, err := openStore(cfg)
	if err != nil {
		logging.Error("Failed to open persistent cache tier", "kind", storeKind, "error", err.Error())
		log.Fatalf("failed to open persistent cache tier (%s): %v", storeKind, err)
	}
	defer store.Close()
	logging.Info("Persistent cache tier ready", "kind", storeKind)

	cacheManager := cache.NewManager(store, cache.TTLConfig{
		FlightData: cfg.FlightDataTTL,
		Analytics:  cfg.AnalyticsTTL,
		Aircraft:   cfg.AircraftTTL,
	}, metricsReg)
	if err := cacheManager.Initialize(context.Background()); err != nil {
		logging.Error("Failed to initialize cache manager", "error", err.Error())
		log.Fatalf("failed to initialize cache manager: %v", err)
	}

	// Airport registry database (gorm).
	registryDB, err := openRegistryDB(cfg)
	if err != nil {
		logging.Error("Failed to open airport registry", "error", err.Error())
		log.Fatalf("failed to open airport registry: %v", err)
	}
	repo := registry.NewAirportRepository(registryDB)
	airportSvc := registry.NewService(repo)

	if err := airportSvc.Bootstrap(context.Background(), seed.Airports()); err != nil {
		logging.Error("Failed to seed airport registry", "error", err.Error())
		log.Fatalf("failed to seed airport registry: %v", err)
	}

	// Upstream clients.
	flightAPI := providers.NewFlightAPIClient(cfg.FlightAPIBaseURL, cfg.FlightAPIKey, metricsReg)
	airportAPI := providers.NewAirportAPIClient(cfg.AirportAPIBaseURL, cfg.AirportAPIKey, metricsReg)

	// Background discovery of airports seen in flight data.
	loader := registry.NewAutoLoader(
		repo,
		airportAPI,
		&registry.CacheSource{Manager: cacheManager},
		rate.NewLimiter(rate.Every(cfg.EnrichmentInterval), 1),
		cfg.RescanInterval,
		metricsReg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loader.Start(ctx)

	flightsSvc := services.NewFlightsService(cacheManager, flightAPI, loader)

	statsCfg := stats.DefaultConfig()
	statsCfg.DefaultDelayMinutes = cfg.DefaultDelayMinutes
	statsCfg.MinDelayMinutes = cfg.MinDelayMinutes
	statsCfg.MaxDelayMinutes = cfg.MaxDelayMinutes
	engine := stats.NewEngine(statsCfg, stats.NewCodeshareFilter(), airportSvc)
	statsSvc := services.NewStatsService(cacheManager, flightsSvc, engine, metricsReg)

	refresher := workers.NewRefreshWorker(flightsSvc, loader, seed.Codes(), cfg.RefreshInterval)
	refresher.Start(ctx)

	upSince := time.Now()
	router := routes.RegisterRoutes(routes.Deps{
		MetricsReg: metricsReg,
		Cache:      cacheManager,
		Store:      store,
		Flights:    flightsSvc,
		Stats:      statsSvc,
		Airports:   airportSvc,
		Repo:       repo,
		Loader:     loader,
		UpSince:    upSince,
	})

	// Metrics endpoint lives outside the chi router so it skips the
	// rate-limit and logging middleware.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Port, "environment", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed", "error", err.Error())
			log.Fatalf("server failed: %v", err)
		}
	}()

	// Graceful shutdown: stop taking requests, then stop the background work.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn("HTTP server shutdown failed", "error", err.Error())
	}

	refresher.Stop()
	loader.Stop()
	cancel()
	logging.Info("Dispecer stopped")
}

func openStore(cfg *config.Config) (cache.Store, string, error) {
	switch {
	case cfg.UseRedis():
		store, err := cache.NewRedisStore(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		return store, "redis", err
	case cfg.UsePostgres():
		store, err := cache.NewSQLStore("postgres", cfg.PostgresDSN())
		return store, "postgres", err
	default:
		store, err := cache.NewSQLStore("sqlite3", cfg.SQLitePath)
		return store, "sqlite", err
	}
}

func openRegistryDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.UsePostgres() {
		return registry.OpenPostgres(cfg.PostgresDSN())
	}
	return registry.OpenSQLite(cfg.RegistrySQLitePath)
}
