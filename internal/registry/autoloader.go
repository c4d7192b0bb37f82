package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/metrics"
	"zborinfo/dispecer/internal/models"
	gormModels "zborinfo/dispecer/internal/models/gorm"

	"golang.org/x/time/rate"
)

// AirportInfoProvider is the external airport-info lookup contract.
// Lookup returns (nil, nil) when the provider does not know the code.
type AirportInfoProvider interface {
	LookupAirport(ctx context.Context, iata string) (*models.AirportInfo, error)
}

// FlightSource exposes the parts of the flight cache the auto-loader scans:
// the key space and the cached flight lists themselves.
type FlightSource interface {
	Keys(ctx context.Context, prefix string) []string
	Flights(ctx context.Context, key string) ([]models.FlightRecord, bool)
}

// BatchSummary is the outcome of a full-catalog discovery pass.
type BatchSummary struct {
	Processed  int      `json:"processed"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors"`
}

// LoaderStatus is an observable snapshot of the background discovery task.
type LoaderStatus struct {
	Queued    int       `json:"queued"`
	Running   bool      `json:"running"`
	Succeeded int64     `json:"succeeded"`
	Failed    int64     `json:"failed"`
	Skipped   int64     `json:"skipped"`
	LastScan  time.Time `json:"last_scan,omitempty"`
}

// AutoLoader discovers unfamiliar IATA codes inside cached flight data and
// enriches the registry with their metadata. Lookups are spaced by a token
// bucket so third-party quotas are respected; full rescans of the cache are
// additionally throttled.
type AutoLoader struct {
	repo     *AirportRepository
	provider AirportInfoProvider
	source   FlightSource
	limiter  *rate.Limiter
	reg      *metrics.MetricsRegistry

	rescanEvery time.Duration

	mu        sync.Mutex
	queued    map[string]struct{}
	order     []string
	running   bool
	succeeded int64
	failed    int64
	skipped   int64
	lastScan  time.Time

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewAutoLoader builds the loader. limiter paces external lookups (production
// uses one token per second); metricsReg may be nil.
func NewAutoLoader(repo *AirportRepository, provider AirportInfoProvider, source FlightSource, limiter *rate.Limiter, rescanEvery time.Duration, metricsReg *metrics.MetricsRegistry) *AutoLoader {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	}
	return &AutoLoader{
		repo:        repo,
		provider:    provider,
		source:      source,
		limiter:     limiter,
		reg:         metricsReg,
		rescanEvery: rescanEvery,
		queued:      make(map[string]struct{}),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the background worker. The worker drains the queue in
// detection order and stops cleanly on Stop.
func (l *AutoLoader) Start(ctx context.Context) {
	go l.run(ctx)
}

// Stop signals the worker and waits for it to finish the in-flight lookup.
func (l *AutoLoader) Stop() {
	close(l.stop)
	<-l.done
}

func (l *AutoLoader) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		case <-ctx.Done():
			return
		case <-l.wake:
		}

		for {
			code, ok := l.dequeue()
			if !ok {
				break
			}
			select {
			case <-l.stop:
				return
			case <-ctx.Done():
				return
			default:
			}
			l.processCode(ctx, code)
		}
	}
}

// Detect scans a flight list for candidate IATA codes and queues the unknown
// ones. Invalid codes are discarded silently; queueing is deduplicated so
// concurrent detections of the same code cause one lookup.
func (l *AutoLoader) Detect(flights []models.FlightRecord) int {
	queued := 0
	for _, fl := range flights {
		for _, code := range []string{fl.Origin.Code, fl.Destination.Code} {
			if !ValidIATACode(code) {
				continue
			}
			if l.enqueue(code) {
				queued++
			}
		}
	}
	if queued > 0 {
		l.signal()
	}
	return queued
}

// ScanCache triggers Detect over every cached flight list, throttled to at
// most one full scan per rescan interval. Returns false when throttled.
func (l *AutoLoader) ScanCache(ctx context.Context) bool {
	l.mu.Lock()
	if time.Since(l.lastScan) < l.rescanEvery {
		l.mu.Unlock()
		return false
	}
	l.lastScan = time.Now()
	l.mu.Unlock()

	for _, key := range l.source.Keys(ctx, "") {
		if code := airportFromCacheKey(key); code != "" && ValidIATACode(code) {
			l.enqueue(code)
		}
		if flights, ok := l.source.Flights(ctx, key); ok {
			l.Detect(flights)
		}
	}
	l.signal()
	return true
}

// ProcessAllCacheAirports rebuilds the catalog: every 3-letter code found in
// cache keys or embedded in cached payloads is deduplicated and processed
// sequentially with the standard lookup spacing. Blocking; intended for the
// admin rebuild endpoint.
func (l *AutoLoader) ProcessAllCacheAirports(ctx context.Context) BatchSummary {
	codes := l.collectCacheCodes(ctx)

	summary := BatchSummary{Errors: []string{}}
	for _, code := range codes {
		summary.Processed++
		switch outcome := l.processCode(ctx, code); outcome.kind {
		case outcomeRegistered:
			summary.Successful++
		case outcomeSkipped:
			summary.Skipped++
		default:
			summary.Failed++
			if outcome.err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", code, outcome.err))
			} else {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: not found", code))
			}
		}
	}

	logging.Info("airport catalog rebuild finished",
		"processed", summary.Processed,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary
}

// Status returns an observable snapshot of the loader.
func (l *AutoLoader) Status() LoaderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LoaderStatus{
		Queued:    len(l.order),
		Running:   l.running,
		Succeeded: l.succeeded,
		Failed:    l.failed,
		Skipped:   l.skipped,
		LastScan:  l.lastScan,
	}
}

type outcomeKind int

const (
	outcomeRegistered outcomeKind = iota
	outcomeSkipped
	outcomeFailed
)

type processOutcome struct {
	kind outcomeKind
	err  error
}

func (l *AutoLoader) processCode(ctx context.Context, code string) processOutcome {
	l.setRunning(true)
	defer l.setRunning(false)

	// Idempotency: an existing active record means no re-fetch and no new
	// audit entry, whatever triggered the detection.
	existing, err := l.repo.FindByIATA(ctx, code)
	if err != nil {
		logging.Warn("registry lookup failed", "iata", code, "error", err.Error())
		l.bump(&l.failed)
		return processOutcome{kind: outcomeFailed, err: err}
	}
	if existing != nil && existing.IsActive {
		l.bump(&l.skipped)
		return processOutcome{kind: outcomeSkipped}
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return processOutcome{kind: outcomeFailed, err: err}
	}

	info, err := l.provider.LookupAirport(ctx, code)
	if err != nil {
		logging.Warn("airport enrichment failed", "iata", code, "error", err.Error())
		l.countLookup("error")
		l.bump(&l.failed)
		return processOutcome{kind: outcomeFailed, err: err}
	}
	if info == nil {
		logging.Info("airport not found upstream", "iata", code)
		l.countLookup("not_found")
		l.bump(&l.failed)
		return processOutcome{kind: outcomeFailed}
	}
	l.countLookup("found")

	airport := airportFromInfo(code, info)
	updateType := gormModels.UpdateTypeDiscovered
	if existing != nil {
		// Inactive record comes back to life with fresh metadata.
		updateType = gormModels.UpdateTypeUpdated
		airport.CreatedAt = existing.CreatedAt
	}

	if err := l.repo.Upsert(ctx, airport); err != nil {
		logging.Error("failed to persist discovered airport", "iata", code, "error", err.Error())
		l.bump(&l.failed)
		return processOutcome{kind: outcomeFailed, err: err}
	}
	details := fmt.Sprintf("enriched from flight cache: %s (%s)", airport.Name, airport.City)
	if err := l.repo.AppendLog(ctx, code, updateType, airport.Source, details); err != nil {
		logging.Warn("failed to append airport audit entry", "iata", code, "error", err.Error())
	}

	if l.reg != nil {
		l.reg.AirportsDiscoveredTotal.Inc()
	}
	l.bump(&l.succeeded)
	logging.Info("airport registered from cache discovery", "iata", code, "name", airport.Name)
	return processOutcome{kind: outcomeRegistered}
}

func (l *AutoLoader) collectCacheCodes(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var order []string

	add := func(code string) {
		if !ValidIATACode(code) {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		order = append(order, code)
	}

	for _, key := range l.source.Keys(ctx, "") {
		add(airportFromCacheKey(key))
		if flights, ok := l.source.Flights(ctx, key); ok {
			for _, fl := range flights {
				add(fl.Origin.Code)
				add(fl.Destination.Code)
			}
		}
	}
	return order
}

func (l *AutoLoader) enqueue(code string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.queued[code]; ok {
		return false
	}
	l.queued[code] = struct{}{}
	l.order = append(l.order, code)
	if l.reg != nil {
		l.reg.DiscoveryQueueDepth.Set(float64(len(l.order)))
	}
	return true
}

func (l *AutoLoader) dequeue() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.order) == 0 {
		return "", false
	}
	code := l.order[0]
	l.order = l.order[1:]
	delete(l.queued, code)
	if l.reg != nil {
		l.reg.DiscoveryQueueDepth.Set(float64(len(l.order)))
	}
	return code, true
}

func (l *AutoLoader) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *AutoLoader) setRunning(v bool) {
	l.mu.Lock()
	l.running = v
	l.mu.Unlock()
}

func (l *AutoLoader) bump(counter *int64) {
	l.mu.Lock()
	*counter++
	l.mu.Unlock()
}

func (l *AutoLoader) countLookup(outcome string) {
	if l.reg != nil {
		l.reg.AirportLookupsTotal.WithLabelValues(outcome).Inc()
	}
}

// ValidIATACode reports whether the candidate is exactly 3 uppercase ASCII
// letters. Anything else is discarded silently at the point of detection.
func ValidIATACode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// airportFromCacheKey extracts the airport prefix of a flight cache key,
// e.g. "OTP_arrivals" -> "OTP". Non-flight keys yield "".
func airportFromCacheKey(key string) string {
	idx := strings.IndexByte(key, '_')
	if idx != 3 {
		return ""
	}
	suffix := key[idx+1:]
	if suffix != "arrivals" && suffix != "departures" {
		return ""
	}
	return key[:3]
}

func airportFromInfo(code string, info *models.AirportInfo) *gormModels.Airport {
	airport := &gormModels.Airport{
		IATA:                code,
		ICAO:                info.ICAO,
		Name:                info.Name,
		ShortName:           info.ShortName,
		City:                info.City,
		CountryCode:         info.CountryCode,
		CountryName:         info.CountryName,
		Timezone:            info.Timezone,
		Latitude:            info.Latitude,
		Longitude:           info.Longitude,
		Source:              gormModels.AirportSourceAeroDataBox,
		DiscoveredFromCache: true,
		IsActive:            true,
	}
	if info.Elevation != nil {
		airport.Elevation = sql.NullInt64{Int64: int64(*info.Elevation), Valid: true}
	}
	return airport
}
