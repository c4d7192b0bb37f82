package models

import (
	"strings"
	"time"
)

// FlightStatus is the normalized status of one flight leg.
type FlightStatus string

const (
	StatusScheduled  FlightStatus = "scheduled"
	StatusActive     FlightStatus = "active"
	StatusLanded     FlightStatus = "landed"
	StatusArrived    FlightStatus = "arrived"
	StatusCancelled  FlightStatus = "cancelled"
	StatusDelayed    FlightStatus = "delayed"
	StatusBoarding   FlightStatus = "boarding"
	StatusDeparted   FlightStatus = "departed"
	StatusGateClosed FlightStatus = "gate-closed"
	StatusTaxiing    FlightStatus = "taxiing"
	StatusUnknown    FlightStatus = "unknown"
)

// Airline identifies the marketing carrier of a flight.
type Airline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Endpoint is one end of a flight leg.
type Endpoint struct {
	Code string `json:"code"`
	City string `json:"city,omitempty"`
}

// FlightRecord is one scheduled/actual flight leg as seen from one airport.
// Records are immutable once cached; a cache refresh replaces the whole list.
type FlightRecord struct {
	FlightNumber  string       `json:"flight_number"`
	Airline       Airline      `json:"airline"`
	Origin        Endpoint     `json:"origin"`
	Destination   Endpoint     `json:"destination"`
	ScheduledTime time.Time    `json:"scheduled_time"`
	ActualTime    *time.Time   `json:"actual_time,omitempty"`
	Status        FlightStatus `json:"status"`
	DelayMinutes  *int         `json:"delay_minutes,omitempty"`
}

// RawFlight mirrors the loose shapes the upstream feed uses. Field naming is
// inconsistent between endpoints (snake_case vs camelCase, nested vs flat
// airline info), so every variant gets its own field and Normalize picks the
// first populated one. Nothing outside the providers package should ever see
// this type.
type RawFlight struct {
	FlightNumber    string `json:"flight_number"`
	FlightNumberAlt string `json:"flightNumber"`
	FlightIata      string `json:"flight_iata"`

	AirlineCode    string `json:"airline_code"`
	AirlineCodeAlt string `json:"airlineCode"`
	AirlineName    string `json:"airline_name"`
	AirlineNameAlt string `json:"airlineName"`
	Airline        *struct {
		Code string `json:"code"`
		Iata string `json:"iata"`
		Name string `json:"name"`
	} `json:"airline"`

	OriginCode    string `json:"origin"`
	OriginCodeAlt string `json:"departure_airport"`
	OriginCity    string `json:"origin_city"`
	Departure     *struct {
		Iata string `json:"iata"`
		City string `json:"city"`
	} `json:"departure"`

	DestinationCode    string `json:"destination"`
	DestinationCodeAlt string `json:"arrival_airport"`
	DestinationCity    string `json:"destination_city"`
	Arrival            *struct {
		Iata string `json:"iata"`
		City string `json:"city"`
	} `json:"arrival"`

	ScheduledTime    string `json:"scheduled_time"`
	ScheduledTimeAlt string `json:"scheduledTime"`
	EstimatedTime    string `json:"estimated_time"`
	EstimatedTimeAlt string `json:"estimatedTime"`
	ActualTime       string `json:"actual_time"`
	ActualTimeAlt    string `json:"actualTime"`

	Status       string `json:"status"`
	DelayMinutes *int   `json:"delay"`
	DelayAlt     *int   `json:"delay_minutes"`
}

// timeLayouts covers the formats observed in the upstream feeds.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

func parseFlexibleTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// NormalizeStatus maps an upstream status string onto the FlightStatus enum.
// Unrecognized values become StatusUnknown rather than failing.
func NormalizeStatus(raw string) FlightStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusUnknown
	case strings.Contains(s, "cancel"):
		return StatusCancelled
	case strings.Contains(s, "delay"):
		return StatusDelayed
	case s == "scheduled" || s == "estimated" || s == "expected":
		return StatusScheduled
	case s == "active" || s == "en-route" || s == "airborne" || s == "in air":
		return StatusActive
	case s == "landed":
		return StatusLanded
	case s == "arrived" || s == "completed":
		return StatusArrived
	case s == "boarding":
		return StatusBoarding
	case s == "departed" || s == "left gate":
		return StatusDeparted
	case s == "gate closed" || s == "gate-closed":
		return StatusGateClosed
	case s == "taxiing" || s == "taxi":
		return StatusTaxiing
	default:
		return StatusUnknown
	}
}

// Normalize converts a RawFlight into the single FlightRecord shape the rest
// of the system works with. Applied exactly once, at ingestion.
func (r *RawFlight) Normalize() FlightRecord {
	rec := FlightRecord{
		FlightNumber: firstNonEmpty(r.FlightNumber, r.FlightNumberAlt, r.FlightIata),
		Status:       NormalizeStatus(r.Status),
	}

	rec.Airline.Code = firstNonEmpty(r.AirlineCode, r.AirlineCodeAlt)
	rec.Airline.Name = firstNonEmpty(r.AirlineName, r.AirlineNameAlt)
	if r.Airline != nil {
		rec.Airline.Code = firstNonEmpty(rec.Airline.Code, r.Airline.Code, r.Airline.Iata)
		rec.Airline.Name = firstNonEmpty(rec.Airline.Name, r.Airline.Name)
	}

	rec.Origin.Code = strings.ToUpper(firstNonEmpty(r.OriginCode, r.OriginCodeAlt))
	rec.Origin.City = r.OriginCity
	if r.Departure != nil {
		rec.Origin.Code = strings.ToUpper(firstNonEmpty(rec.Origin.Code, r.Departure.Iata))
		rec.Origin.City = firstNonEmpty(rec.Origin.City, r.Departure.City)
	}

	rec.Destination.Code = strings.ToUpper(firstNonEmpty(r.DestinationCode, r.DestinationCodeAlt))
	rec.Destination.City = r.DestinationCity
	if r.Arrival != nil {
		rec.Destination.Code = strings.ToUpper(firstNonEmpty(rec.Destination.Code, r.Arrival.Iata))
		rec.Destination.City = firstNonEmpty(rec.Destination.City, r.Arrival.City)
	}

	if t, ok := parseFlexibleTime(firstNonEmpty(r.ScheduledTime, r.ScheduledTimeAlt)); ok {
		rec.ScheduledTime = t
	}
	if t, ok := parseFlexibleTime(firstNonEmpty(r.ActualTime, r.ActualTimeAlt, r.EstimatedTime, r.EstimatedTimeAlt)); ok {
		rec.ActualTime = &t
	}

	if r.DelayMinutes != nil {
		rec.DelayMinutes = r.DelayMinutes
	} else if r.DelayAlt != nil {
		rec.DelayMinutes = r.DelayAlt
	}

	return rec
}
