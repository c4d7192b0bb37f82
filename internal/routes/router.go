package routes

import (
	"net/http"
	"time"

	"zborinfo/dispecer/internal/api"
	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/metrics"
	"zborinfo/dispecer/internal/middleware"
	"zborinfo/dispecer/internal/registry"
	"zborinfo/dispecer/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Deps bundles everything the router needs. All fields are required except
// where noted.
type Deps struct {
	MetricsReg *metrics.MetricsRegistry
	Cache      *cache.Manager
	Store      cache.Store
	Flights    *services.FlightsService
	Stats      *services.StatsService
	Airports   *registry.Service
	Repo       *registry.AirportRepository
	Loader     *registry.AutoLoader
	UpSince    time.Time
}

// RegisterRoutes wires the chi router with the public and admin API.
func RegisterRoutes(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.MetricsReg))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(deps.Store, deps.Repo, deps.UpSince))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/flights/{code}/{direction}", api.GetFlightsHandler(deps.Flights))
		r.Get("/statistics/{code}", api.GetStatisticsHandler(deps.Stats))
		r.Get("/airports", api.SearchAirportsHandler(deps.Airports))
		r.Get("/airports/search", api.SearchAirportsHandler(deps.Airports))
		r.Get("/airports/{code}", api.GetAirportHandler(deps.Airports))

		r.Route("/admin", func(r chi.Router) {
			r.Post("/registry/rebuild", api.RebuildRegistryHandler(deps.Loader))
			r.Get("/loader/status", api.LoaderStatusHandler(deps.Loader))
			r.Get("/airports/{code}/log", api.AirportLogHandler(deps.Repo))
			r.Get("/cache/stats", api.CacheStatsHandler(deps.Cache))
			r.Post("/cache/stats/reset", api.CacheStatsResetHandler(deps.Cache))
		})
	})

	logging.Info("Router initialized with metrics and rate-limit middleware")
	return r
}
