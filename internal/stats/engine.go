package stats

import (
	"math"
	"sort"
	"time"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/models"
)

// Period selects a rolling statistics window ending now.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Duration returns the window length for the period.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDaily:
		return 24 * time.Hour
	case PeriodMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// Config holds the delay tuning constants. The values are product-tuned and
// unvalidated against ground truth, hence configurable rather than hard-coded.
type Config struct {
	DefaultDelayMinutes int // assumed delay when a delayed flight has no timing data
	MinDelayMinutes     int // floor applied to every delay value
	MaxDelayMinutes     int // cap applied before aggregation, against multi-day outliers
	TopHours            int
	TopRoutes           int
	TopAirlinesPerRoute int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		DefaultDelayMinutes: 25,
		MinDelayMinutes:     15,
		MaxDelayMinutes:     240,
		TopHours:            4,
		TopRoutes:           15,
		TopAirlinesPerRoute: 2,
	}
}

// Totals are the headline counts for the window.
type Totals struct {
	Total     int `json:"total"`
	OnTime    int `json:"on_time"`
	Delayed   int `json:"delayed"`
	Cancelled int `json:"cancelled"`
}

// HourlyBucket aggregates flights scheduled within one hour of day.
type HourlyBucket struct {
	Hour         int `json:"hour"`
	Flights      int `json:"flights"`
	AverageDelay int `json:"average_delay,omitempty"`
}

// RouteAirline is one operating airline within a route group.
type RouteAirline struct {
	Name    string `json:"name"`
	Flights int    `json:"flights"`
}

// RouteAggregate is one unordered airport pair seen from the queried
// airport's perspective.
type RouteAggregate struct {
	Route            string         `json:"route"` // e.g. "OTP-LHR"
	Counterpart      string         `json:"counterpart"`
	CounterpartName  string         `json:"counterpart_name,omitempty"`
	Flights          int            `json:"flights"`
	OnTimePercentage int            `json:"on_time_percentage"`
	AverageDelay     int            `json:"average_delay"`
	TopAirlines      []RouteAirline `json:"top_airlines"`
}

// Report is the full aggregate for one airport and window.
type Report struct {
	Airport             string           `json:"airport"`
	Period              Period           `json:"period"`
	From                time.Time        `json:"from"`
	To                  time.Time        `json:"to"`
	Totals              Totals           `json:"totals"`
	OnTimePercentage    int              `json:"on_time_percentage"`
	AverageDelayMinutes int              `json:"average_delay_minutes"`
	DelayIndex          int              `json:"delay_index"`
	BusyHours           []HourlyBucket   `json:"busy_hours"`
	PeakDelayHours      []HourlyBucket   `json:"peak_delay_hours"`
	MostFrequentRoutes  []RouteAggregate `json:"most_frequent_routes"`
}

// Result is either a Report or the insufficient-data sentinel. Zeros would
// read as "0% delays" instead of "no data collected yet", so the sentinel is
// a first-class outcome, not an error.
type Result struct {
	Report  *Report `json:"report,omitempty"`
	Message string  `json:"message,omitempty"`
}

// NoData reports whether the result is the sentinel.
func (r Result) NoData() bool {
	return r.Report == nil
}

// AirportNamer resolves an IATA code to a display name. The registry
// implements this; a nil namer (or an unknown code) degrades to the raw code.
type AirportNamer interface {
	AirportName(code string) (string, bool)
}

// Engine derives per-airport aggregates from codeshare-filtered flights.
type Engine struct {
	cfg    Config
	filter *CodeshareFilter
	namer  AirportNamer
	now    func() time.Time
}

// NewEngine builds an engine. namer may be nil.
func NewEngine(cfg Config, filter *CodeshareFilter, namer AirportNamer) *Engine {
	if filter == nil {
		filter = NewCodeshareFilter()
	}
	return &Engine{cfg: cfg, filter: filter, namer: namer, now: time.Now}
}

// Compute aggregates the given raw flights for one airport and period.
// The codeshare filter is applied here, never earlier, so cached raw data
// stays complete.
func (e *Engine) Compute(airport string, period Period, flights []models.FlightRecord) Result {
	filtered := e.filter.Filter(flights)
	if len(filtered) == 0 {
		return Result{Message: constants.MsgInsufficientData}
	}

	to := e.now()
	from := to.Add(-period.Duration())

	windowed := inWindow(filtered, from, to)
	if len(windowed) == 0 {
		// The feed may only hold older data. Shift the window to end at the
		// most recent flight so a best-effort "most recent N days" view
		// survives instead of an empty report.
		latest := latestScheduled(filtered)
		if latest.IsZero() {
			return Result{Message: constants.MsgInsufficientData}
		}
		to = latest
		from = to.Add(-period.Duration())
		windowed = inWindow(filtered, from, to)
	}
	if len(windowed) == 0 {
		return Result{Message: constants.MsgInsufficientData}
	}

	report := &Report{
		Airport: airport,
		Period:  period,
		From:    from,
		To:      to,
	}

	report.Totals = e.countStatuses(windowed)
	report.AverageDelayMinutes = e.medianDelay(windowed)
	report.OnTimePercentage = e.onTimePercentage(windowed, report.Totals)
	report.DelayIndex = roundPct(report.Totals.Delayed, report.Totals.Total)
	report.BusyHours, report.PeakDelayHours = e.hourBuckets(windowed)
	report.MostFrequentRoutes = e.routeAggregates(airport, windowed)

	return Result{Report: report}
}

// onTimeStatuses are the statuses counted as "not delayed" for the window.
var onTimeStatuses = map[models.FlightStatus]bool{
	models.StatusScheduled: true,
	models.StatusActive:    true,
	models.StatusBoarding:  true,
	models.StatusDeparted:  true,
	models.StatusLanded:    true,
	models.StatusArrived:   true,
}

// resolvedStatuses are the statuses of flights whose outcome is known.
var resolvedStatuses = map[models.FlightStatus]bool{
	models.StatusDeparted:  true,
	models.StatusLanded:    true,
	models.StatusArrived:   true,
	models.StatusDelayed:   true,
	models.StatusCancelled: true,
}

func (e *Engine) countStatuses(flights []models.FlightRecord) Totals {
	t := Totals{Total: len(flights)}
	for _, fl := range flights {
		switch {
		case fl.Status == models.StatusCancelled:
			t.Cancelled++
		case fl.Status == models.StatusDelayed:
			t.Delayed++
		case onTimeStatuses[fl.Status]:
			t.OnTime++
		}
	}
	return t
}

// onTimePercentage uses the resolved denominator when any flight has a known
// outcome, otherwise falls back to the full total so a day of still-scheduled
// flights doesn't report 0% or divide by zero.
func (e *Engine) onTimePercentage(flights []models.FlightRecord, t Totals) int {
	resolved := 0
	for _, fl := range flights {
		if resolvedStatuses[fl.Status] {
			resolved++
		}
	}
	if resolved > 0 {
		return roundPct(t.OnTime, t.OnTime+t.Delayed+t.Cancelled)
	}
	return roundPct(t.OnTime, t.Total)
}

// delayMinutes resolves one delayed flight's delay value: explicit field
// first, then the actual/estimated vs scheduled difference, then the
// configured default. The result is clamped to [floor, cap].
func (e *Engine) delayMinutes(fl models.FlightRecord) int {
	minutes := 0
	switch {
	case fl.DelayMinutes != nil:
		minutes = *fl.DelayMinutes
	case fl.ActualTime != nil && !fl.ScheduledTime.IsZero():
		minutes = int(fl.ActualTime.Sub(fl.ScheduledTime).Minutes())
	}
	if minutes <= 0 {
		minutes = e.cfg.DefaultDelayMinutes
	}
	if minutes < e.cfg.MinDelayMinutes {
		minutes = e.cfg.MinDelayMinutes
	}
	if minutes > e.cfg.MaxDelayMinutes {
		minutes = e.cfg.MaxDelayMinutes
	}
	return minutes
}

// medianDelay is the median of capped delay values over delayed flights.
// The median, not the mean, so a handful of multi-day delays can't skew the
// figure.
func (e *Engine) medianDelay(flights []models.FlightRecord) int {
	var delays []int
	for _, fl := range flights {
		if fl.Status == models.StatusDelayed {
			delays = append(delays, e.delayMinutes(fl))
		}
	}
	if len(delays) == 0 {
		return 0
	}
	sort.Ints(delays)

	mid := len(delays) / 2
	if len(delays)%2 == 1 {
		return delays[mid]
	}
	return int(math.Round(float64(delays[mid-1]+delays[mid]) / 2))
}

func (e *Engine) hourBuckets(flights []models.FlightRecord) (busy, peakDelay []HourlyBucket) {
	type bucket struct {
		count      int
		delaySum   int
		delayCount int
	}
	buckets := make(map[int]*bucket)

	for _, fl := range flights {
		if fl.ScheduledTime.IsZero() {
			continue
		}
		h := fl.ScheduledTime.Hour()
		b, ok := buckets[h]
		if !ok {
			b = &bucket{}
			buckets[h] = b
		}
		b.count++
		if fl.Status == models.StatusDelayed {
			b.delaySum += e.delayMinutes(fl)
			b.delayCount++
		}
	}

	for h, b := range buckets {
		busy = append(busy, HourlyBucket{Hour: h, Flights: b.count})
		if b.delayCount > 0 {
			avg := int(math.Round(float64(b.delaySum) / float64(b.delayCount)))
			peakDelay = append(peakDelay, HourlyBucket{Hour: h, Flights: b.count, AverageDelay: avg})
		}
	}

	// Busiest hours by flight count; ties break toward the earlier hour so
	// the order is deterministic.
	sort.Slice(busy, func(i, j int) bool {
		if busy[i].Flights != busy[j].Flights {
			return busy[i].Flights > busy[j].Flights
		}
		return busy[i].Hour < busy[j].Hour
	})
	// Peak delay hours weighted by average delay, not flight count.
	sort.Slice(peakDelay, func(i, j int) bool {
		if peakDelay[i].AverageDelay != peakDelay[j].AverageDelay {
			return peakDelay[i].AverageDelay > peakDelay[j].AverageDelay
		}
		return peakDelay[i].Hour < peakDelay[j].Hour
	})

	if len(busy) > e.cfg.TopHours {
		busy = busy[:e.cfg.TopHours]
	}
	if len(peakDelay) > e.cfg.TopHours {
		peakDelay = peakDelay[:e.cfg.TopHours]
	}
	return busy, peakDelay
}

func (e *Engine) routeAggregates(airport string, flights []models.FlightRecord) []RouteAggregate {
	type group struct {
		counterpart string
		flights     []models.FlightRecord
		airlines    map[string]int
	}
	groups := make(map[string]*group)

	for _, fl := range flights {
		other := counterpartCode(airport, fl)
		if other == "" || other == airport {
			continue
		}
		g, ok := groups[other]
		if !ok {
			g = &group{counterpart: other, airlines: make(map[string]int)}
			groups[other] = g
		}
		g.flights = append(g.flights, fl)
		if name := airlineDisplayName(fl.Airline); name != "" {
			g.airlines[name]++
		}
	}

	aggregates := make([]RouteAggregate, 0, len(groups))
	for _, g := range groups {
		totals := e.countStatuses(g.flights)

		delaySum, delayCount := 0, 0
		for _, fl := range g.flights {
			if fl.Status == models.StatusDelayed {
				delaySum += e.delayMinutes(fl)
				delayCount++
			}
		}
		avgDelay := 0
		if delayCount > 0 {
			avgDelay = int(math.Round(float64(delaySum) / float64(delayCount)))
		}

		agg := RouteAggregate{
			Route:            airport + "-" + g.counterpart,
			Counterpart:      g.counterpart,
			Flights:          len(g.flights),
			OnTimePercentage: e.onTimePercentage(g.flights, totals),
			AverageDelay:     avgDelay,
			TopAirlines:      topAirlines(g.airlines, e.cfg.TopAirlinesPerRoute),
		}
		if e.namer != nil {
			if name, ok := e.namer.AirportName(g.counterpart); ok {
				agg.CounterpartName = name
			}
		}
		aggregates = append(aggregates, agg)
	}

	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].Flights != aggregates[j].Flights {
			return aggregates[i].Flights > aggregates[j].Flights
		}
		return aggregates[i].Counterpart < aggregates[j].Counterpart
	})
	if len(aggregates) > e.cfg.TopRoutes {
		aggregates = aggregates[:e.cfg.TopRoutes]
	}
	return aggregates
}

// counterpartCode returns the endpoint of the leg that is not the queried
// airport, so OTP→LHR and LHR→OTP land in the same group.
func counterpartCode(airport string, fl models.FlightRecord) string {
	if fl.Origin.Code == airport {
		return fl.Destination.Code
	}
	if fl.Destination.Code == airport {
		return fl.Origin.Code
	}
	// Neither endpoint matches; trust the feed's destination as the far end.
	return fl.Destination.Code
}

func airlineDisplayName(a models.Airline) string {
	if a.Name != "" {
		return a.Name
	}
	return a.Code
}

func topAirlines(counts map[string]int, limit int) []RouteAirline {
	airlines := make([]RouteAirline, 0, len(counts))
	for name, n := range counts {
		airlines = append(airlines, RouteAirline{Name: name, Flights: n})
	}
	sort.Slice(airlines, func(i, j int) bool {
		if airlines[i].Flights != airlines[j].Flights {
			return airlines[i].Flights > airlines[j].Flights
		}
		return airlines[i].Name < airlines[j].Name
	})
	if len(airlines) > limit {
		airlines = airlines[:limit]
	}
	return airlines
}

func inWindow(flights []models.FlightRecord, from, to time.Time) []models.FlightRecord {
	var out []models.FlightRecord
	for _, fl := range flights {
		if fl.ScheduledTime.IsZero() {
			continue
		}
		if !fl.ScheduledTime.Before(from) && !fl.ScheduledTime.After(to) {
			out = append(out, fl)
		}
	}
	return out
}

func latestScheduled(flights []models.FlightRecord) time.Time {
	var latest time.Time
	for _, fl := range flights {
		if fl.ScheduledTime.After(latest) {
			latest = fl.ScheduledTime
		}
	}
	return latest
}

func roundPct(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
