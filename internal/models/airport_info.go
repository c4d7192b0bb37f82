package models

// AirportInfo is the normalized result of an external airport-info lookup.
type AirportInfo struct {
	IATA        string  `json:"iata"`
	ICAO        string  `json:"icao,omitempty"`
	Name        string  `json:"name"`
	ShortName   string  `json:"short_name,omitempty"`
	City        string  `json:"city,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	CountryName string  `json:"country_name,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Elevation   *int    `json:"elevation,omitempty"`
}
