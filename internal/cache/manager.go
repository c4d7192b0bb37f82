package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/metrics"

	gocache "github.com/patrickmn/go-cache"
)

// TTLConfig holds the default TTL per cache category.
type TTLConfig struct {
	FlightData time.Duration
	Analytics  time.Duration
	Aircraft   time.Duration
}

// DefaultTTLConfig mirrors the production polling cadence: flight data on the
// order of the refresh interval, analytics and aircraft on the order of weeks.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		FlightData: 30 * time.Minute,
		Analytics:  30 * 24 * time.Hour,
		Aircraft:   30 * 24 * time.Hour,
	}
}

func (c TTLConfig) forCategory(category constants.CacheCategory) time.Duration {
	switch category {
	case constants.CategoryFlightData:
		return c.FlightData
	case constants.CategoryAnalytics:
		return c.Analytics
	case constants.CategoryAircraft:
		return c.Aircraft
	default:
		return c.FlightData
	}
}

// memEntry wraps an in-memory value so the manager can attribute counter and
// metric increments to the right category on reads.
type memEntry struct {
	value    any
	category constants.CacheCategory
}

// CategoryCounters is a per-category request counter snapshot.
type CategoryCounters struct {
	Gets   int64 `json:"gets"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// CounterSnapshot is the operational-visibility view of cache traffic.
// Counts are best-effort process-wide state, not persisted.
type CounterSnapshot struct {
	Categories map[constants.CacheCategory]CategoryCounters `json:"categories"`
	LastReset  time.Time                                    `json:"last_reset"`
}

// Manager is the single source of truth for cache freshness. It coordinates
// the volatile in-memory tier with a durable Store, applies category TTLs,
// and tracks request counters. A failure in the persistent tier never
// prevents serving from memory.
type Manager struct {
	mem   *gocache.Cache
	store Store
	ttls  TTLConfig
	reg   *metrics.MetricsRegistry

	initMu      sync.Mutex
	initialized bool

	countMu   sync.Mutex
	counters  map[constants.CacheCategory]*CategoryCounters
	lastReset time.Time
}

// NewManager builds a cache manager over the given persistent store.
// metricsReg may be nil (tests).
func NewManager(store Store, ttls TTLConfig, metricsReg *metrics.MetricsRegistry) *Manager {
	return &Manager{
		mem:       gocache.New(ttls.FlightData, 10*time.Minute),
		store:     store,
		ttls:      ttls,
		reg:       metricsReg,
		counters:  make(map[constants.CacheCategory]*CategoryCounters),
		lastReset: time.Now(),
	}
}

// Initialize prepares the persistent tier. Idempotent and safe to call
// concurrently; once it has succeeded, subsequent calls are no-ops.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.initialized {
		return nil
	}
	if err := m.store.Init(ctx); err != nil {
		return err
	}
	m.initialized = true
	return nil
}

// GetCachedData returns the in-memory value for key if present and fresh.
// It never consults the persistent tier.
func (m *Manager) GetCachedData(key string) (any, bool) {
	category := categoryForKey(key)

	v, found := m.mem.Get(key)
	if !found {
		m.count(category, func(c *CategoryCounters) { c.Gets++; c.Misses++ })
		if m.reg != nil {
			m.reg.CacheMissesTotal.WithLabelValues(string(category)).Inc()
		}
		return nil, false
	}

	entry := v.(memEntry)
	m.count(entry.category, func(c *CategoryCounters) { c.Gets++; c.Hits++ })
	if m.reg != nil {
		m.reg.CacheHitsTotal.WithLabelValues(string(entry.category), "memory").Inc()
	}
	return entry.value, true
}

// GetCachedDataWithPersistent returns the in-memory value if fresh, otherwise
// falls back to the persistent tier regardless of that tier's own freshness.
// Stale-but-present data beats no data for a best-effort flight display.
// The second return is false only when neither tier has the key.
func (m *Manager) GetCachedDataWithPersistent(ctx context.Context, key string) (any, bool) {
	if v, found := m.GetCachedData(key); found {
		return v, true
	}

	entry, err := m.store.Get(ctx, key)
	if err != nil {
		logging.Warn("persistent cache read failed", "key", key, "error", err.Error())
		if m.reg != nil {
			m.reg.PersistentTierErrors.Inc()
		}
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	if m.reg != nil {
		m.reg.CacheFallbacksTotal.WithLabelValues(string(entry.Category)).Inc()
		m.reg.CacheHitsTotal.WithLabelValues(string(entry.Category), "persistent").Inc()
	}
	return entry.Payload, true
}

// SetCachedData writes to both tiers. A zero ttl selects the category
// default. Persistent-tier failures are logged and absorbed: the in-memory
// write has already happened and callers must not see an error.
func (m *Manager) SetCachedData(ctx context.Context, key string, value any, category constants.CacheCategory, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttls.forCategory(category)
	}

	m.mem.Set(key, memEntry{value: value, category: category}, ttl)
	m.count(category, func(c *CategoryCounters) { c.Sets++ })
	if m.reg != nil {
		m.reg.CacheWritesTotal.WithLabelValues(string(category)).Inc()
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logging.Warn("cache value not serializable, memory tier only", "key", key, "error", err.Error())
		return
	}

	err = m.store.Set(ctx, Entry{
		Key:      key,
		Category: category,
		Payload:  payload,
		StoredAt: time.Now(),
		TTL:      ttl,
	})
	if err != nil {
		logging.Warn("persistent cache write failed", "key", key, "error", err.Error())
		if m.reg != nil {
			m.reg.PersistentTierErrors.Inc()
		}
	}
}

// Delete removes the key from both tiers.
func (m *Manager) Delete(ctx context.Context, key string) {
	m.mem.Delete(key)
	if err := m.store.Delete(ctx, key); err != nil {
		logging.Warn("persistent cache delete failed", "key", key, "error", err.Error())
	}
}

// Keys returns the union of keys across both tiers, sorted, deduplicated.
// Used by the auto-loader's full-catalog scan.
func (m *Manager) Keys(ctx context.Context, prefix string) []string {
	seen := make(map[string]struct{})

	for k := range m.mem.Items() {
		if strings.HasPrefix(k, prefix) {
			seen[k] = struct{}{}
		}
	}

	stored, err := m.store.Keys(ctx, prefix)
	if err != nil {
		logging.Warn("persistent cache key scan failed", "error", err.Error())
	}
	for _, k := range stored {
		seen[k] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Counters returns a snapshot of the per-category request counters.
func (m *Manager) Counters() CounterSnapshot {
	m.countMu.Lock()
	defer m.countMu.Unlock()

	snap := CounterSnapshot{
		Categories: make(map[constants.CacheCategory]CategoryCounters, len(m.counters)),
		LastReset:  m.lastReset,
	}
	for cat, c := range m.counters {
		snap.Categories[cat] = *c
	}
	return snap
}

// ResetCounters zeroes all counters and stamps the reset time.
func (m *Manager) ResetCounters() {
	m.countMu.Lock()
	defer m.countMu.Unlock()
	m.counters = make(map[constants.CacheCategory]*CategoryCounters)
	m.lastReset = time.Now()
}

func (m *Manager) count(category constants.CacheCategory, apply func(*CategoryCounters)) {
	m.countMu.Lock()
	defer m.countMu.Unlock()
	c, ok := m.counters[category]
	if !ok {
		c = &CategoryCounters{}
		m.counters[category] = c
	}
	apply(c)
}

// categoryForKey attributes a read to a category before the entry is known.
// Keys follow fixed conventions: "{AIRPORT}_arrivals|_departures" for flight
// data, "airport-statistics..." for analytics.
func categoryForKey(key string) constants.CacheCategory {
	switch {
	case strings.HasSuffix(key, "_"+string(constants.FlightWayArrivals)),
		strings.HasSuffix(key, "_"+string(constants.FlightWayDepartures)):
		return constants.CategoryFlightData
	case strings.HasPrefix(key, constants.CacheKeyAirportStatistics):
		return constants.CategoryAnalytics
	default:
		return constants.CategoryAircraft
	}
}

// GetTyped returns the fresh in-memory value for key as a T.
func GetTyped[T any](m *Manager, key string) (T, bool) {
	var zero T
	v, found := m.GetCachedData(key)
	if !found {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// GetTypedWithPersistent returns the value for key as a T, falling back to
// the persistent tier. Persistent payloads are stored as JSON and decoded
// into T here.
func GetTypedWithPersistent[T any](m *Manager, ctx context.Context, key string) (T, bool) {
	var zero T

	v, found := m.GetCachedDataWithPersistent(ctx, key)
	if !found {
		return zero, false
	}

	if typed, ok := v.(T); ok {
		return typed, true
	}

	raw, ok := v.(json.RawMessage)
	if !ok {
		return zero, false
	}
	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		logging.Warn("cache payload decode failed", "key", key, "error", err.Error())
		return zero, false
	}
	return decoded, true
}
