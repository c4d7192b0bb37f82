package services

import (
	"context"
	"fmt"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/models"

	"golang.org/x/sync/singleflight"
)

// FlightDataError represents a flight-data specific error
type FlightDataError struct {
	Code    string
	Message string
	Err     error
}

func (e *FlightDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FlightDataError) Unwrap() error {
	return e.Err
}

// Error codes for FlightDataError.
const (
	ErrCodeUpstreamFetch = "UPSTREAM_FETCH"
)

// FlightFetcher is the upstream flight-data contract.
type FlightFetcher interface {
	FetchFlights(ctx context.Context, airport string, way constants.FlightWay) ([]models.FlightRecord, error)
}

// FlightDetector receives freshly fetched flights for airport discovery.
// Detection is decoupled from the request path; the implementation queues
// work and returns immediately.
type FlightDetector interface {
	Detect(flights []models.FlightRecord) int
}

// FlightsService serves flight lists cache-first with a persistent fallback,
// refilling from upstream on a full miss. Concurrent misses for the same key
// collapse into a single upstream call.
type FlightsService struct {
	Cache    *cache.Manager
	API      FlightFetcher
	Detector FlightDetector

	group singleflight.Group
}

// NewFlightsService wires the service. detector may be nil.
func NewFlightsService(cacheManager *cache.Manager, api FlightFetcher, detector FlightDetector) *FlightsService {
	return &FlightsService{
		Cache:    cacheManager,
		API:      api,
		Detector: detector,
	}
}

// GetFlights returns the flight list for one airport and direction.
// Order of preference: fresh memory, persistent tier (stale allowed),
// upstream fetch. A nil list with nil error means "no data" and callers
// must render the insufficient-data message, not an error.
func (s *FlightsService) GetFlights(ctx context.Context, airport string, way constants.FlightWay) ([]models.FlightRecord, error) {
	key := constants.FlightCacheKey(airport, way)

	if flights, found := cache.GetTypedWithPersistent[[]models.FlightRecord](s.Cache, ctx, key); found {
		return flights, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchAndCache(ctx, airport, way, key)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.([]models.FlightRecord), nil
}

// Refresh forces an upstream fetch for the key, replacing both cache tiers.
// Used by the background refresh worker and manual refresh triggers.
func (s *FlightsService) Refresh(ctx context.Context, airport string, way constants.FlightWay) error {
	key := constants.FlightCacheKey(airport, way)
	_, err := s.fetchAndCache(ctx, airport, way, key)
	return err
}

func (s *FlightsService) fetchAndCache(ctx context.Context, airport string, way constants.FlightWay, key string) ([]models.FlightRecord, error) {
	flights, err := s.API.FetchFlights(ctx, airport, way)
	if err != nil {
		logging.Warn("upstream flight fetch failed", "airport", airport, "way", string(way), "error", err.Error())
		return nil, &FlightDataError{
			Code:    ErrCodeUpstreamFetch,
			Message: fmt.Sprintf("failed to fetch %s for %s", way, airport),
			Err:     err,
		}
	}
	if flights == nil {
		return nil, nil
	}

	s.Cache.SetCachedData(ctx, key, flights, constants.CategoryFlightData, 0)

	if s.Detector != nil {
		s.Detector.Detect(flights)
	}
	return flights, nil
}
