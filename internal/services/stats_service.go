package services

import (
	"context"
	"fmt"
	"time"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/metrics"
	"zborinfo/dispecer/internal/models"
	"zborinfo/dispecer/internal/stats"
)

// StatsService computes and caches per-airport statistics reports.
type StatsService struct {
	Cache   *cache.Manager
	Flights *FlightsService
	Engine  *stats.Engine
	Reg     *metrics.MetricsRegistry
}

// NewStatsService wires the service. reg may be nil.
func NewStatsService(cacheManager *cache.Manager, flights *FlightsService, engine *stats.Engine, reg *metrics.MetricsRegistry) *StatsService {
	return &StatsService{
		Cache:   cacheManager,
		Flights: flights,
		Engine:  engine,
		Reg:     reg,
	}
}

// GetStatistics returns the aggregate report for one airport and period,
// serving a cached report when fresh. Only successful reports are cached;
// the insufficient-data sentinel is recomputed each time so data showing up
// is reflected immediately.
func (s *StatsService) GetStatistics(ctx context.Context, airport string, period stats.Period) stats.Result {
	key := statsCacheKey(airport, period)

	if cached, found := cache.GetTypedWithPersistent[stats.Result](s.Cache, ctx, key); found && !cached.NoData() {
		return cached
	}

	start := time.Now()
	flights := s.gatherFlights(ctx, airport)
	result := s.Engine.Compute(airport, period, flights)

	if s.Reg != nil {
		s.Reg.StatsComputeDuration.WithLabelValues(string(period)).Observe(time.Since(start).Seconds())
		if result.NoData() {
			s.Reg.StatsNoDataTotal.Inc()
		}
	}

	if !result.NoData() {
		s.Cache.SetCachedData(ctx, key, result, constants.CategoryAnalytics, 0)
	}
	return result
}

// gatherFlights pulls both directions for the airport. A failed direction
// degrades to an empty list: best-effort statistics beat an error page.
func (s *StatsService) gatherFlights(ctx context.Context, airport string) []models.FlightRecord {
	var all []models.FlightRecord
	for _, way := range []constants.FlightWay{constants.FlightWayArrivals, constants.FlightWayDepartures} {
		flights, err := s.Flights.GetFlights(ctx, airport, way)
		if err != nil {
			logging.Warn("statistics input fetch failed", "airport", airport, "way", string(way), "error", err.Error())
			continue
		}
		all = append(all, flights...)
	}
	return all
}

func statsCacheKey(airport string, period stats.Period) string {
	return fmt.Sprintf("%s:%s:%s", constants.CacheKeyAirportStatistics, airport, period)
}
