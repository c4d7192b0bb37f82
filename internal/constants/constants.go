package constants

type (
	APIStatus     string
	CacheCategory string
	FlightWay     string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	// Cache categories. Each category carries its own default TTL,
	// configured in config.Config.
	CategoryFlightData CacheCategory = "flightData"
	CategoryAnalytics  CacheCategory = "analytics"
	CategoryAircraft   CacheCategory = "aircraft"

	FlightWayArrivals   FlightWay = "arrivals"
	FlightWayDepartures FlightWay = "departures"

	// Key used for cached statistics objects, suffixed with airport and period.
	CacheKeyAirportStatistics = "airport-statistics"
)

// User-facing messages. The site is Romanian-language; these strings are
// returned verbatim by the API layer.
const (
	MsgInsufficientData = "Nu sunt suficiente date pentru a afișa această informație."
	MsgAirportNotFound  = "Aeroportul nu a fost găsit."
	MsgInvalidDirection = "Direcția trebuie să fie 'arrivals' sau 'departures'."
	MsgInvalidAirport   = "Codul de aeroport trebuie să fie format din 3 litere."
)

// FlightCacheKey builds the canonical cache key for a raw flight list,
// e.g. "OTP_arrivals".
func FlightCacheKey(airport string, way FlightWay) string {
	return airport + "_" + string(way)
}
