package registry

import (
	"context"
	"fmt"
	"time"

	gormModels "zborinfo/dispecer/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite opens (or creates) the sqlite-backed registry database and
// migrates the schema.
func OpenSQLite(path string) (*gormlib.DB, error) {
	db, err := gormlib.Open(sqlite.Open(path), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	if err := db.AutoMigrate(&gormModels.Airport{}, &gormModels.AirportUpdateLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate registry schema: %w", err)
	}
	return db, nil
}

// OpenPostgres connects the registry to postgres and migrates the schema.
func OpenPostgres(dsn string) (*gormlib.DB, error) {
	db, err := gormlib.Open(postgres.Open(dsn), &gormlib.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&gormModels.Airport{}, &gormModels.AirportUpdateLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate registry schema: %w", err)
	}
	return db, nil
}

// AirportRepository handles airport and audit-log table operations.
type AirportRepository struct {
	db *gormlib.DB
}

// NewAirportRepository creates a new airport repository
func NewAirportRepository(db *gormlib.DB) *AirportRepository {
	return &AirportRepository{db: db}
}

// FindByIATA finds an airport by IATA code (case-insensitive).
// Returns (nil, nil) when no record exists.
func (r *AirportRepository) FindByIATA(ctx context.Context, iata string) (*gormModels.Airport, error) {
	var airport gormModels.Airport

	err := r.db.WithContext(ctx).
		Where("UPPER(iata) = UPPER(?)", iata).
		First(&airport).Error

	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &airport, nil
}

// Search returns active airports whose code, name or city matches the query.
func (r *AirportRepository) Search(ctx context.Context, query string) ([]gormModels.Airport, error) {
	var airports []gormModels.Airport

	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("UPPER(iata) LIKE UPPER(?) OR name LIKE ? OR city LIKE ?", pattern, pattern, pattern).
		Order("iata").
		Limit(50).
		Find(&airports).Error
	if err != nil {
		return nil, err
	}
	return airports, nil
}

// ListActive returns every active airport ordered by IATA code.
func (r *AirportRepository) ListActive(ctx context.Context) ([]gormModels.Airport, error) {
	var airports []gormModels.Airport
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("iata").
		Find(&airports).Error
	return airports, err
}

// Upsert creates the airport row or replaces it wholesale, bumping
// last_updated. IATA codes are immutable once created.
func (r *AirportRepository) Upsert(ctx context.Context, airport *gormModels.Airport) error {
	now := time.Now()
	airport.LastUpdated = now
	if airport.CreatedAt.IsZero() {
		airport.CreatedAt = now
	}
	return r.db.WithContext(ctx).Save(airport).Error
}

// MarkInactive soft-deletes the airport; rows are never hard-deleted.
func (r *AirportRepository) MarkInactive(ctx context.Context, iata string) error {
	return r.db.WithContext(ctx).
		Model(&gormModels.Airport{}).
		Where("iata = ?", iata).
		Updates(map[string]any{"is_active": false, "last_updated": time.Now()}).Error
}

// SetHasFlightData flags an airport as having cached flight data.
func (r *AirportRepository) SetHasFlightData(ctx context.Context, iata string) error {
	return r.db.WithContext(ctx).
		Model(&gormModels.Airport{}).
		Where("iata = ?", iata).
		Updates(map[string]any{"has_flight_data": true, "last_updated": time.Now()}).Error
}

// Count returns total number of airports.
func (r *AirportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gormModels.Airport{}).Count(&count).Error
	return count, err
}

// AppendLog writes one append-only audit entry. Entries are never mutated
// or deleted.
func (r *AirportRepository) AppendLog(ctx context.Context, iata, updateType, source, details string) error {
	entry := gormModels.AirportUpdateLog{
		ID:         uuid.NewString(),
		IATA:       iata,
		UpdateType: updateType,
		Source:     source,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// LogEntries returns the audit trail for one airport, newest first.
func (r *AirportRepository) LogEntries(ctx context.Context, iata string) ([]gormModels.AirportUpdateLog, error) {
	var entries []gormModels.AirportUpdateLog
	err := r.db.WithContext(ctx).
		Where("iata = ?", iata).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// SeedIfMissing inserts the given seed airports when they are not already
// present, without overwriting discovered or manual rows.
func (r *AirportRepository) SeedIfMissing(ctx context.Context, airports []gormModels.Airport) (int, error) {
	inserted := 0
	for i := range airports {
		existing, err := r.FindByIATA(ctx, airports[i].IATA)
		if err != nil {
			return inserted, err
		}
		if existing != nil {
			continue
		}
		if err := r.Upsert(ctx, &airports[i]); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
