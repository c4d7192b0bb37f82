package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"zborinfo/dispecer/internal/metrics"
	"zborinfo/dispecer/internal/models"
)

// AirportAPIClient looks up airport metadata by IATA code from the upstream
// airport-info source (AeroDataBox-compatible shape).
type AirportAPIClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Reg     *metrics.MetricsRegistry
}

// NewAirportAPIClient creates a client from explicit settings. Reg may be nil.
func NewAirportAPIClient(baseURL, apiKey string, reg *metrics.MetricsRegistry) *AirportAPIClient {
	return &AirportAPIClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Reg:     reg,
	}
}

// airportResponse mirrors the upstream payload shape.
type airportResponse struct {
	IATA         string `json:"iata"`
	ICAO         string `json:"icao"`
	FullName     string `json:"fullName"`
	ShortName    string `json:"shortName"`
	Municipality string `json:"municipalityName"`
	Country      struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"country"`
	Location struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
	Elevation *struct {
		Feet int `json:"feet"`
	} `json:"elevation"`
	TimeZone string `json:"timeZone"`
}

// LookupAirport returns metadata for the code, or (nil, nil) when the
// provider does not know it. The caller decides whether to retry later.
func (c *AirportAPIClient) LookupAirport(ctx context.Context, iata string) (*models.AirportInfo, error) {
	endpoint := fmt.Sprintf("%s/airports/iata/%s", c.BaseURL, strings.ToUpper(iata))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.countRequest("error")
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fallthrough to decode
	case http.StatusNotFound, http.StatusNoContent:
		c.countRequest("not_found")
		return nil, nil
	default:
		c.countRequest("error")
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body airportResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.countRequest("error")
		return nil, err
	}
	c.countRequest("ok")

	info := &models.AirportInfo{
		IATA:        strings.ToUpper(firstOf(body.IATA, iata)),
		ICAO:        body.ICAO,
		Name:        firstOf(body.FullName, body.ShortName),
		ShortName:   body.ShortName,
		City:        body.Municipality,
		CountryCode: body.Country.Code,
		CountryName: body.Country.Name,
		Timezone:    body.TimeZone,
		Latitude:    body.Location.Lat,
		Longitude:   body.Location.Lon,
	}
	if body.Elevation != nil {
		feet := body.Elevation.Feet
		info.Elevation = &feet
	}
	if info.Name == "" {
		// A nameless row is useless to the registry; treat as not found.
		return nil, nil
	}
	return info, nil
}

func (c *AirportAPIClient) countRequest(outcome string) {
	if c.Reg != nil {
		c.Reg.UpstreamRequestsTotal.WithLabelValues("airport_api", outcome).Inc()
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
