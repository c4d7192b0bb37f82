package api

import (
	"net/http"
	"time"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/registry"
)

// RebuildRegistryHandler handles POST /api/v1/admin/registry/rebuild.
// It walks the whole flight cache and registers every airport code found,
// blocking until the batch completes. Lookups keep the standard spacing, so
// large caches take a while.
func RebuildRegistryHandler(loader *registry.AutoLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		summary := loader.ProcessAllCacheAirports(r.Context())
		RespondSuccess(w, initTime, "catalog rebuild finished", summary)
	}
}

// LoaderStatusHandler handles GET /api/v1/admin/loader/status.
func LoaderStatusHandler(loader *registry.AutoLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		RespondSuccess(w, initTime, "", loader.Status())
	}
}

// CacheStatsHandler handles GET /api/v1/admin/cache/stats.
func CacheStatsHandler(manager *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		RespondSuccess(w, initTime, "", manager.Counters())
	}
}

// CacheStatsResetHandler handles POST /api/v1/admin/cache/stats/reset.
func CacheStatsResetHandler(manager *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		manager.ResetCounters()
		RespondSuccess(w, initTime, "counters reset", manager.Counters())
	}
}
