package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/models"
	"zborinfo/dispecer/internal/services"
	"zborinfo/dispecer/internal/stats"

	"github.com/go-chi/chi/v5"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
}

func newMemStore() *memStore { return &memStore{entries: make(map[string]cache.Entry)} }

func (s *memStore) Init(ctx context.Context) error { return nil }

func (s *memStore) Get(ctx context.Context, key string) (*cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *memStore) Set(ctx context.Context, entry cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = entry
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close() error                   { return nil }

type stubFetcher struct {
	flights []models.FlightRecord
}

func (s *stubFetcher) FetchFlights(ctx context.Context, airport string, way constants.FlightWay) ([]models.FlightRecord, error) {
	return s.flights, nil
}

func newTestRouter(fetcher *stubFetcher) http.Handler {
	manager := cache.NewManager(newMemStore(), cache.DefaultTTLConfig(), nil)
	flightsSvc := services.NewFlightsService(manager, fetcher, nil)
	engine := stats.NewEngine(stats.DefaultConfig(), stats.NewCodeshareFilter(), nil)
	statsSvc := services.NewStatsService(manager, flightsSvc, engine, nil)

	r := chi.NewRouter()
	r.Get("/api/v1/flights/{code}/{direction}", GetFlightsHandler(flightsSvc))
	r.Get("/api/v1/statistics/{code}", GetStatisticsHandler(statsSvc))
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return rec, body
}

func TestGetFlightsHandler_InvalidAirportCode(t *testing.T) {
	router := newTestRouter(&stubFetcher{})

	for _, code := range []string{"otp", "OTPX", "O1P"} {
		rec, body := doRequest(t, router, http.MethodGet, "/api/v1/flights/"+code+"/arrivals")
		// Lowercase codes are normalized, not rejected.
		if code == "otp" {
			if rec.Code != http.StatusOK {
				t.Errorf("Expected lowercase code to be accepted, got %d", rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Code %q: expected 400, got %d", code, rec.Code)
		}
		if body.Message != constants.MsgInvalidAirport {
			t.Errorf("Code %q: expected invalid-airport message, got %q", code, body.Message)
		}
	}
}

func TestGetFlightsHandler_InvalidDirection(t *testing.T) {
	router := newTestRouter(&stubFetcher{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/flights/OTP/sosiri")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if body.Message != constants.MsgInvalidDirection {
		t.Errorf("Expected invalid-direction message, got %q", body.Message)
	}
}

func TestGetFlightsHandler_EmptyListRendersMessage(t *testing.T) {
	router := newTestRouter(&stubFetcher{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/flights/OTP/arrivals")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for no data, got %d", rec.Code)
	}
	if body.Status != string(constants.APIStatusOk) {
		t.Errorf("Expected ok status, got %q", body.Status)
	}
	if body.Message != constants.MsgInsufficientData {
		t.Errorf("Expected insufficient-data message, got %q", body.Message)
	}
}

func TestGetFlightsHandler_ReturnsFlights(t *testing.T) {
	fetcher := &stubFetcher{flights: []models.FlightRecord{{
		FlightNumber:  "RO301",
		Airline:       models.Airline{Code: "RO", Name: "Tarom"},
		Origin:        models.Endpoint{Code: "LHR"},
		Destination:   models.Endpoint{Code: "OTP"},
		ScheduledTime: time.Now(),
		Status:        models.StatusLanded,
	}}}
	router := newTestRouter(fetcher)

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/flights/OTP/arrivals")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body.Data == nil {
		t.Fatal("Expected flight data in response")
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Expected JSON content type, got %q", rec.Header().Get("Content-Type"))
	}
}

func TestGetStatisticsHandler_InvalidPeriod(t *testing.T) {
	router := newTestRouter(&stubFetcher{})

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/statistics/OTP?period=yearly")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown period, got %d", rec.Code)
	}
}

func TestGetStatisticsHandler_NoDataSentinel(t *testing.T) {
	router := newTestRouter(&stubFetcher{})

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/statistics/OTP")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body.Message != constants.MsgInsufficientData {
		t.Errorf("Expected insufficient-data message, got %q", body.Message)
	}
	if body.Data != nil {
		t.Errorf("Expected no report payload, got %v", body.Data)
	}
}

func TestGetStatisticsHandler_ReturnsReport(t *testing.T) {
	fetcher := &stubFetcher{flights: []models.FlightRecord{{
		FlightNumber:  "W64302",
		Airline:       models.Airline{Code: "W6", Name: "Wizz Air"},
		Origin:        models.Endpoint{Code: "BGY"},
		Destination:   models.Endpoint{Code: "OTP"},
		ScheduledTime: time.Now().Add(-2 * time.Hour),
		Status:        models.StatusLanded,
	}}}
	router := newTestRouter(fetcher)

	rec, body := doRequest(t, router, http.MethodGet, "/api/v1/statistics/OTP?period=weekly")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body.Data == nil {
		t.Fatal("Expected a report payload")
	}
}
