package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, read from environment variables with
// sensible defaults for local development.
type Config struct {
	AppEnv string
	Port   string

	// Persistent cache tier. Redis wins if RedisHost is set, otherwise
	// postgres if PGHost is set, otherwise a local sqlite file.
	SQLitePath    string
	PGHost        string
	PGPort        string
	PGUser        string
	PGPassword    string
	PGDatabase    string
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Registry database (gorm). Shares the postgres settings above when
	// present; falls back to its own sqlite file.
	RegistrySQLitePath string

	// Upstream APIs.
	FlightAPIBaseURL  string
	FlightAPIKey      string
	AirportAPIBaseURL string
	AirportAPIKey     string

	// Cache TTLs per category.
	FlightDataTTL time.Duration
	AnalyticsTTL  time.Duration
	AircraftTTL   time.Duration

	// Statistics tuning. Product-tuned values, kept configurable because
	// their derivation was never validated against ground truth.
	DefaultDelayMinutes int
	MinDelayMinutes     int
	MaxDelayMinutes     int

	// Auto-loader pacing.
	EnrichmentInterval time.Duration
	RescanInterval     time.Duration

	// Background refresh of seed airports.
	RefreshInterval time.Duration
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		SQLitePath:    getEnv("CACHE_SQLITE_PATH", "data/flightcache.db"),
		PGHost:        os.Getenv("PG_HOST"),
		PGPort:        getEnv("PG_PORT", "5432"),
		PGUser:        os.Getenv("PG_USER"),
		PGPassword:    os.Getenv("PG_PASSWORD"),
		PGDatabase:    os.Getenv("PG_DB"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RegistrySQLitePath: getEnv("REGISTRY_SQLITE_PATH", "data/airports.db"),

		FlightAPIBaseURL:  getEnv("FLIGHT_API_BASE_URL", "https://aviation-edge.com/v2/public"),
		FlightAPIKey:      os.Getenv("FLIGHT_API_KEY"),
		AirportAPIBaseURL: getEnv("AIRPORT_API_BASE_URL", "https://aerodatabox.p.rapidapi.com"),
		AirportAPIKey:     os.Getenv("AIRPORT_API_KEY"),

		FlightDataTTL: getEnvDuration("FLIGHT_DATA_TTL", 30*time.Minute),
		AnalyticsTTL:  getEnvDuration("ANALYTICS_TTL", 30*24*time.Hour),
		AircraftTTL:   getEnvDuration("AIRCRAFT_TTL", 30*24*time.Hour),

		DefaultDelayMinutes: getEnvInt("STATS_DEFAULT_DELAY_MIN", 25),
		MinDelayMinutes:     getEnvInt("STATS_MIN_DELAY_MIN", 15),
		MaxDelayMinutes:     getEnvInt("STATS_MAX_DELAY_MIN", 240),

		EnrichmentInterval: getEnvDuration("ENRICHMENT_INTERVAL", time.Second),
		RescanInterval:     getEnvDuration("RESCAN_INTERVAL", 5*time.Minute),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 30*time.Minute),
	}
}

// UsePostgres reports whether the postgres settings are complete enough to use.
func (c *Config) UsePostgres() bool {
	return c.PGHost != "" && c.PGUser != "" && c.PGDatabase != ""
}

// UseRedis reports whether a redis persistent tier is configured.
func (c *Config) UseRedis() bool {
	return c.RedisHost != ""
}

// PostgresDSN builds the DSN shared by sqlx and gorm.
func (c *Config) PostgresDSN() string {
	return "postgres://" + c.PGUser + ":" + c.PGPassword + "@" +
		c.PGHost + ":" + c.PGPort + "/" + c.PGDatabase + "?sslmode=disable"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
