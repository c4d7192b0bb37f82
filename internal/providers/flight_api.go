package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"encoding/json"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/metrics"
	"zborinfo/dispecer/internal/models"
)

// FlightAPIClient fetches raw flight lists per airport and direction from
// the upstream flight-data source.
type FlightAPIClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Reg     *metrics.MetricsRegistry
}

// NewFlightAPIClient creates a client from explicit settings. Reg may be nil.
func NewFlightAPIClient(baseURL, apiKey string, reg *metrics.MetricsRegistry) *FlightAPIClient {
	return &FlightAPIClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Reg:     reg,
	}
}

// FetchFlights returns the normalized flight list for one airport and
// direction. A 404 from upstream is "no data", not an error.
func (c *FlightAPIClient) FetchFlights(ctx context.Context, airport string, way constants.FlightWay) ([]models.FlightRecord, error) {
	kind := "arrival"
	if way == constants.FlightWayDepartures {
		kind = "departure"
	}

	endpoint := fmt.Sprintf("/timetable?iataCode=%s&type=%s&key=%s",
		url.QueryEscape(airport), kind, url.QueryEscape(c.APIKey))

	var raw []models.RawFlight
	status, err := c.doGET(ctx, endpoint, &raw)
	c.countRequest(status, err)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	flights := make([]models.FlightRecord, 0, len(raw))
	for i := range raw {
		rec := raw[i].Normalize()
		if rec.FlightNumber == "" && rec.Origin.Code == "" && rec.Destination.Code == "" {
			continue // nothing usable on this row
		}
		flights = append(flights, rec)
	}
	return flights, nil
}

// doGET performs a GET against the upstream, decoding JSON into result and
// returning the HTTP status code.
func (c *FlightAPIClient) doGET(ctx context.Context, endpoint string, result interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, errors.New("resource not found")
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(result)
}

func (c *FlightAPIClient) countRequest(status int, err error) {
	if c.Reg == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = fmt.Sprintf("error_%d", status)
	}
	c.Reg.UpstreamRequestsTotal.WithLabelValues("flight_api", outcome).Inc()
}
