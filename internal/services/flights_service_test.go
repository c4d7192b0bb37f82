package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"zborinfo/dispecer/internal/cache"
	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/models"
	"zborinfo/dispecer/internal/stats"
)

// fakeStore is a minimal in-memory persistent tier for these tests.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
}

func newFakeStore() *fakeStore { return &fakeStore{entries: make(map[string]cache.Entry)} }

func (f *fakeStore) Init(ctx context.Context) error { return nil }

func (f *fakeStore) Get(ctx context.Context, key string) (*cache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeStore) Set(ctx context.Context, entry cache.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.Key] = entry
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

// mockFetcher answers with a fixed list and counts calls.
type mockFetcher struct {
	calls   int64
	flights []models.FlightRecord
	err     error
	delay   time.Duration
}

func (m *mockFetcher) FetchFlights(ctx context.Context, airport string, way constants.FlightWay) ([]models.FlightRecord, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.flights, m.err
}

type mockDetector struct {
	detected int64
}

func (m *mockDetector) Detect(flights []models.FlightRecord) int {
	atomic.AddInt64(&m.detected, int64(len(flights)))
	return len(flights)
}

func sampleFlights() []models.FlightRecord {
	return []models.FlightRecord{
		{
			FlightNumber:  "RO301",
			Airline:       models.Airline{Code: "RO", Name: "Tarom"},
			Origin:        models.Endpoint{Code: "LHR"},
			Destination:   models.Endpoint{Code: "OTP"},
			ScheduledTime: time.Now().Add(-time.Hour),
			Status:        models.StatusLanded,
		},
	}
}

func TestFlightsService_CacheMissFetchesAndCaches(t *testing.T) {
	manager := cache.NewManager(newFakeStore(), cache.DefaultTTLConfig(), nil)
	fetcher := &mockFetcher{flights: sampleFlights()}
	detector := &mockDetector{}
	svc := NewFlightsService(manager, fetcher, detector)
	ctx := context.Background()

	flights, err := svc.GetFlights(ctx, "OTP", constants.FlightWayArrivals)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(flights) != 1 {
		t.Fatalf("Expected 1 flight, got %d", len(flights))
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", fetcher.calls)
	}
	if detector.detected != 1 {
		t.Errorf("Expected detector to see the fetched flights, got %d", detector.detected)
	}

	// Second read comes from cache.
	if _, err := svc.GetFlights(ctx, "OTP", constants.FlightWayArrivals); err != nil {
		t.Fatalf("Cached read failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected cached read to skip upstream, got %d calls", fetcher.calls)
	}
}

func TestFlightsService_ConcurrentMissesCollapse(t *testing.T) {
	manager := cache.NewManager(newFakeStore(), cache.DefaultTTLConfig(), nil)
	fetcher := &mockFetcher{flights: sampleFlights(), delay: 50 * time.Millisecond}
	svc := NewFlightsService(manager, fetcher, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.GetFlights(ctx, "CLJ", constants.FlightWayDepartures)
		}()
	}
	wg.Wait()

	if fetcher.calls != 1 {
		t.Errorf("Expected singleflight to collapse to 1 upstream call, got %d", fetcher.calls)
	}
}

func TestFlightsService_UpstreamErrorPropagates(t *testing.T) {
	manager := cache.NewManager(newFakeStore(), cache.DefaultTTLConfig(), nil)
	fetcher := &mockFetcher{err: errors.New("upstream down")}
	svc := NewFlightsService(manager, fetcher, nil)

	if _, err := svc.GetFlights(context.Background(), "IAS", constants.FlightWayArrivals); err == nil {
		t.Error("Expected error when both cache tiers are empty and upstream fails")
	}
}

func TestFlightsService_NoDataIsNotAnError(t *testing.T) {
	manager := cache.NewManager(newFakeStore(), cache.DefaultTTLConfig(), nil)
	fetcher := &mockFetcher{flights: nil}
	svc := NewFlightsService(manager, fetcher, nil)

	flights, err := svc.GetFlights(context.Background(), "SBZ", constants.FlightWayArrivals)
	if err != nil {
		t.Errorf("Expected no error for upstream no-data, got %v", err)
	}
	if flights != nil {
		t.Errorf("Expected nil flights for no-data, got %v", flights)
	}
}

func TestStatsService_CachesSuccessfulReports(t *testing.T) {
	manager := cache.NewManager(newFakeStore(), cache.DefaultTTLConfig(), nil)
	fetcher := &mockFetcher{flights: sampleFlights()}
	flightsSvc := NewFlightsService(manager, fetcher, nil)
	engine := stats.NewEngine(stats.DefaultConfig(), stats.NewCodeshareFilter(), nil)
	svc := NewStatsService(manager, flightsSvc, engine, nil)
	ctx := context.Background()

	first := svc.GetStatistics(ctx, "OTP", stats.PeriodWeekly)
	if first.NoData() {
		t.Fatalf("Expected a report, got sentinel %q", first.Message)
	}

	// Second call must come from the analytics cache, not refetch upstream.
	callsAfterFirst := fetcher.calls
	second := svc.GetStatistics(ctx, "OTP", stats.PeriodWeekly)
	if second.NoData() {
		t.Fatal("Expected cached report")
	}
	if fetcher.calls != callsAfterFirst {
		t.Errorf("Expected cached statistics to skip upstream, calls went %d -> %d", callsAfterFirst, fetcher.calls)
	}
}

func TestStatsService_SentinelNotCached(t *testing.T) {
	manager := cache.NewManager(newFakeStore(), cache.DefaultTTLConfig(), nil)
	fetcher := &mockFetcher{flights: nil}
	flightsSvc := NewFlightsService(manager, fetcher, nil)
	engine := stats.NewEngine(stats.DefaultConfig(), stats.NewCodeshareFilter(), nil)
	svc := NewStatsService(manager, flightsSvc, engine, nil)
	ctx := context.Background()

	result := svc.GetStatistics(ctx, "BAY", stats.PeriodDaily)
	if !result.NoData() {
		t.Fatal("Expected sentinel for empty data")
	}

	// Data shows up; the sentinel must not shadow it.
	fetcher.flights = sampleFlights()
	result = svc.GetStatistics(ctx, "BAY", stats.PeriodDaily)
	if result.NoData() {
		t.Error("Expected fresh report once data exists")
	}
}
