package api

import (
	"net/http"
	"time"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/registry"
)

// HealthCheckHandler handles GET /healthCheck. It pings the persistent cache
// tier and the registry so load balancers see a real readiness signal.
func HealthCheckHandler(store cache.Store, repo *registry.AirportRepository, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		status := map[string]any{
			"uptime": time.Since(upSince).Round(time.Second).String(),
		}

		if err := store.Ping(r.Context()); err != nil {
			status["cache_store"] = "down: " + err.Error()
			RespondError(w, initTime, nil, "persistent cache tier unreachable", http.StatusServiceUnavailable)
			return
		}
		status["cache_store"] = "ok"

		count, err := repo.Count(r.Context())
		if err != nil {
			status["registry"] = "down: " + err.Error()
			RespondError(w, initTime, nil, "airport registry unreachable", http.StatusServiceUnavailable)
			return
		}
		status["registry"] = "ok"
		status["airports"] = count

		RespondSuccess(w, initTime, "healthy", status)
	}
}
