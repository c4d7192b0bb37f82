package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/models"
)

func TestFlightAPIClient_FetchFlights_NormalizesMixedShapes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("iataCode") != "OTP" {
			t.Errorf("Expected iataCode=OTP, got %s", r.URL.Query().Get("iataCode"))
		}
		if r.URL.Query().Get("type") != "arrival" {
			t.Errorf("Expected type=arrival, got %s", r.URL.Query().Get("type"))
		}

		// Two rows using different upstream field conventions.
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[
			{
				"flight_number": "RO301",
				"airline_name": "Tarom",
				"origin": "LHR",
				"destination": "OTP",
				"scheduled_time": "2026-08-20T10:00:00Z",
				"status": "landed"
			},
			{
				"flightNumber": "W64302",
				"airline": {"iata": "W6", "name": "Wizz Air"},
				"departure": {"iata": "bgy", "city": "Bergamo"},
				"arrival": {"iata": "OTP"},
				"scheduledTime": "2026-08-20 11:30:00",
				"status": "Delayed",
				"delay": 40
			}
		]`))
	}))
	defer server.Close()

	client := NewFlightAPIClient(server.URL, "test-key", nil)
	flights, err := client.FetchFlights(context.Background(), "OTP", constants.FlightWayArrivals)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(flights) != 2 {
		t.Fatalf("Expected 2 flights, got %d", len(flights))
	}

	first := flights[0]
	if first.FlightNumber != "RO301" || first.Origin.Code != "LHR" || first.Status != models.StatusLanded {
		t.Errorf("Unexpected first record: %+v", first)
	}

	second := flights[1]
	if second.FlightNumber != "W64302" {
		t.Errorf("Expected camelCase flight number picked up, got %q", second.FlightNumber)
	}
	if second.Origin.Code != "BGY" {
		t.Errorf("Expected nested departure code uppercased, got %q", second.Origin.Code)
	}
	if second.Status != models.StatusDelayed {
		t.Errorf("Expected delayed status, got %s", second.Status)
	}
	if second.DelayMinutes == nil || *second.DelayMinutes != 40 {
		t.Errorf("Expected 40 delay minutes, got %v", second.DelayMinutes)
	}
	if second.Airline.Name != "Wizz Air" || second.Airline.Code != "W6" {
		t.Errorf("Expected nested airline mapped, got %+v", second.Airline)
	}
}

func TestFlightAPIClient_FetchFlights_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewFlightAPIClient(server.URL, "test-key", nil)
	flights, err := client.FetchFlights(context.Background(), "ZZZ", constants.FlightWayDepartures)
	if err != nil {
		t.Errorf("Expected 404 to surface as no data, got error %v", err)
	}
	if flights != nil {
		t.Errorf("Expected nil flight list, got %v", flights)
	}
}

func TestFlightAPIClient_FetchFlights_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewFlightAPIClient(server.URL, "test-key", nil)
	if _, err := client.FetchFlights(context.Background(), "OTP", constants.FlightWayArrivals); err == nil {
		t.Error("Expected error for 500 response")
	}
}

func TestAirportAPIClient_LookupAirport_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/airports/iata/KIV" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Error("Expected API key header")
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"iata": "KIV",
			"icao": "LUKK",
			"fullName": "Chișinău International Airport",
			"shortName": "Chișinău",
			"municipalityName": "Chișinău",
			"country": {"code": "MD", "name": "Moldova"},
			"location": {"lat": 46.9277, "lon": 28.931},
			"elevation": {"feet": 399},
			"timeZone": "Europe/Chisinau"
		}`))
	}))
	defer server.Close()

	client := NewAirportAPIClient(server.URL, "test-key", nil)
	info, err := client.LookupAirport(context.Background(), "kiv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info == nil {
		t.Fatal("Expected airport info")
	}
	if info.IATA != "KIV" || info.ICAO != "LUKK" {
		t.Errorf("Unexpected codes: %+v", info)
	}
	if info.CountryCode != "MD" || info.Timezone != "Europe/Chisinau" {
		t.Errorf("Unexpected metadata: %+v", info)
	}
	if info.Elevation == nil || *info.Elevation != 399 {
		t.Errorf("Expected elevation 399, got %v", info.Elevation)
	}
}

func TestAirportAPIClient_LookupAirport_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewAirportAPIClient(server.URL, "test-key", nil)
	info, err := client.LookupAirport(context.Background(), "XXX")
	if err != nil {
		t.Errorf("Expected not-found to be nil/nil, got error %v", err)
	}
	if info != nil {
		t.Errorf("Expected nil info, got %+v", info)
	}
}
