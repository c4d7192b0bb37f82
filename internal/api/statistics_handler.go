package api

import (
	"net/http"
	"strings"
	"time"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/registry"
	"zborinfo/dispecer/internal/services"
	"zborinfo/dispecer/internal/stats"

	"github.com/go-chi/chi/v5"
)

// GetStatisticsHandler handles GET /api/v1/statistics/{code}?period=daily.
// Missing data comes back as a 200 with the insufficient-data message so the
// frontend renders a friendly placeholder instead of an error page.
func GetStatisticsHandler(statsSvc *services.StatsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		code := strings.ToUpper(chi.URLParam(r, "code"))
		if !registry.ValidIATACode(code) {
			RespondError(w, initTime, nil, constants.MsgInvalidAirport, http.StatusBadRequest)
			return
		}

		period := stats.Period(r.URL.Query().Get("period"))
		if period == "" {
			period = stats.PeriodDaily
		}
		if !period.Valid() {
			RespondError(w, initTime, nil, "perioada trebuie să fie 'daily', 'weekly' sau 'monthly'", http.StatusBadRequest)
			return
		}

		result := statsSvc.GetStatistics(r.Context(), code, period)
		if result.NoData() {
			RespondSuccess(w, initTime, result.Message, nil)
			return
		}

		RespondSuccess(w, initTime, "", result.Report)
	}
}
