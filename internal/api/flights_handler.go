package api

import (
	"net/http"
	"strings"
	"time"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/registry"
	"zborinfo/dispecer/internal/services"

	"github.com/go-chi/chi/v5"
)

// GetFlightsHandler handles GET /api/v1/flights/{code}/{direction}.
// Responses are cache-first; an empty list is a normal outcome rendered with
// the insufficient-data message, not an error.
func GetFlightsHandler(flights *services.FlightsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		code := strings.ToUpper(chi.URLParam(r, "code"))
		if !registry.ValidIATACode(code) {
			RespondError(w, initTime, nil, constants.MsgInvalidAirport, http.StatusBadRequest)
			return
		}

		way := constants.FlightWay(chi.URLParam(r, "direction"))
		if way != constants.FlightWayArrivals && way != constants.FlightWayDepartures {
			RespondError(w, initTime, nil, constants.MsgInvalidDirection, http.StatusBadRequest)
			return
		}

		list, err := flights.GetFlights(r.Context(), code, way)
		if err != nil {
			RespondError(w, initTime, err, "", http.StatusBadGateway)
			return
		}
		if len(list) == 0 {
			RespondSuccess(w, initTime, constants.MsgInsufficientData, []any{})
			return
		}

		RespondSuccess(w, initTime, "", list)
	}
}
