package registry

import (
	"context"
	"strings"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/models"
	gormModels "zborinfo/dispecer/internal/models/gorm"
)

// Service is the read-side query contract over the airport catalog.
type Service struct {
	repo *AirportRepository
}

// NewService wraps the repository.
func NewService(repo *AirportRepository) *Service {
	return &Service{repo: repo}
}

// GetAirport returns the airport for an IATA code, or (nil, nil) when the
// registry has no record.
func (s *Service) GetAirport(ctx context.Context, code string) (*gormModels.Airport, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ValidIATACode(code) {
		return nil, nil
	}
	return s.repo.FindByIATA(ctx, code)
}

// SearchAirports returns active airports matching the free-text query.
func (s *Service) SearchAirports(ctx context.Context, query string) ([]gormModels.Airport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListActive(ctx)
	}
	return s.repo.Search(ctx, query)
}

// AirportName resolves a code to a display name for statistics output.
// Unknown codes degrade gracefully: the caller keeps the raw code string.
func (s *Service) AirportName(code string) (string, bool) {
	airport, err := s.repo.FindByIATA(context.Background(), code)
	if err != nil || airport == nil || !airport.IsActive {
		return "", false
	}
	if airport.ShortName != "" {
		return airport.ShortName, true
	}
	return airport.Name, true
}

// Bootstrap inserts the seed airports that are not yet present.
func (s *Service) Bootstrap(ctx context.Context, seed []gormModels.Airport) error {
	inserted, err := s.repo.SeedIfMissing(ctx, seed)
	if err != nil {
		return err
	}
	if inserted > 0 {
		logging.Info("registry seeded", "airports", inserted)
	}
	return nil
}

// CacheSource adapts the cache manager to the FlightSource the auto-loader
// scans.
type CacheSource struct {
	Manager *cache.Manager
}

func (c *CacheSource) Keys(ctx context.Context, prefix string) []string {
	return c.Manager.Keys(ctx, prefix)
}

func (c *CacheSource) Flights(ctx context.Context, key string) ([]models.FlightRecord, bool) {
	return cache.GetTypedWithPersistent[[]models.FlightRecord](c.Manager, ctx, key)
}
