package api

import (
	"net/http"
	"strings"
	"time"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/registry"

	"github.com/go-chi/chi/v5"
)

// GetAirportHandler handles GET /api/v1/airports/{code}.
func GetAirportHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		code := strings.ToUpper(chi.URLParam(r, "code"))
		if !registry.ValidIATACode(code) {
			RespondError(w, initTime, nil, constants.MsgInvalidAirport, http.StatusBadRequest)
			return
		}

		airport, err := svc.GetAirport(r.Context(), code)
		if err != nil {
			RespondError(w, initTime, err, "")
			return
		}
		if airport == nil || !airport.IsActive {
			RespondError(w, initTime, nil, constants.MsgAirportNotFound, http.StatusNotFound)
			return
		}

		RespondSuccess(w, initTime, "", airport)
	}
}

// SearchAirportsHandler handles GET /api/v1/airports?q=. An empty query lists
// the whole active catalog.
func SearchAirportsHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		airports, err := svc.SearchAirports(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			RespondError(w, initTime, err, "")
			return
		}

		RespondSuccess(w, initTime, "", airports)
	}
}

// AirportLogHandler handles GET /api/v1/admin/airports/{code}/log, returning
// the append-only audit trail for one airport, newest first.
func AirportLogHandler(repo *registry.AirportRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		code := strings.ToUpper(chi.URLParam(r, "code"))
		if !registry.ValidIATACode(code) {
			RespondError(w, initTime, nil, constants.MsgInvalidAirport, http.StatusBadRequest)
			return
		}

		entries, err := repo.LogEntries(r.Context(), code)
		if err != nil {
			RespondError(w, initTime, err, "")
			return
		}

		RespondSuccess(w, initTime, "", entries)
	}
}
