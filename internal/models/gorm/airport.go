package gorm

import (
	"database/sql"
	"time"
)

// Airport source values.
const (
	AirportSourceSeed        = "seed"
	AirportSourceManual      = "manual"
	AirportSourceAeroDataBox = "aerodatabox"
)

// Airport is one metadata row in the registry, keyed by IATA code.
// Rows are never hard-deleted, only marked inactive.
type Airport struct {
	IATA                string        `gorm:"column:iata;primaryKey;type:varchar(3)"`
	ICAO                string        `gorm:"column:icao;type:varchar(4)"`
	Name                string        `gorm:"column:name;type:text;not null"`
	ShortName           string        `gorm:"column:short_name;type:text"`
	City                string        `gorm:"column:city;type:varchar(100)"`
	CountryCode         string        `gorm:"column:country_code;type:varchar(2)"`
	CountryName         string        `gorm:"column:country_name;type:varchar(100)"`
	Timezone            string        `gorm:"column:timezone;type:varchar(50)"`
	Latitude            float64       `gorm:"column:latitude;type:numeric(10,6)"`
	Longitude           float64       `gorm:"column:longitude;type:numeric(10,6)"`
	Elevation           sql.NullInt64 `gorm:"column:elevation;type:integer"`
	Source              string        `gorm:"column:source;type:varchar(20);not null"`
	DiscoveredFromCache bool          `gorm:"column:discovered_from_cache;not null;default:false"`
	IsActive            bool          `gorm:"column:is_active;not null;default:true"`
	HasFlightData       bool          `gorm:"column:has_flight_data;not null;default:false"`
	CreatedAt           time.Time     `gorm:"column:created_at"`
	LastUpdated         time.Time     `gorm:"column:last_updated"`
}

// TableName specifies the table name for GORM
func (Airport) TableName() string {
	return "airports"
}
