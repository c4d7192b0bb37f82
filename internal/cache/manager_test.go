package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"zborinfo/dispecer/internal/constants"
)

// fakeStore is an in-memory Store with overridable behavior per method.
type fakeStore struct {
	entries map[string]Entry

	initCalls int
	getErr    error
	setErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]Entry)}
}

func (f *fakeStore) Init(ctx context.Context) error {
	f.initCalls++
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (*Entry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (f *fakeStore) Set(ctx context.Context, entry Entry) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[entry.Key] = entry
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func TestManager_Initialize_Idempotent(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, DefaultTTLConfig(), nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := m.Initialize(ctx); err != nil {
			t.Fatalf("Initialize call %d failed: %v", i, err)
		}
	}

	if store.initCalls != 1 {
		t.Errorf("Expected 1 store init, got %d", store.initCalls)
	}
}

func TestManager_SetGet_Idempotent(t *testing.T) {
	m := NewManager(newFakeStore(), DefaultTTLConfig(), nil)
	ctx := context.Background()

	flights := []string{"RO301", "RO302"}
	m.SetCachedData(ctx, "OTP_arrivals", flights, constants.CategoryFlightData, time.Minute)
	m.SetCachedData(ctx, "OTP_arrivals", flights, constants.CategoryFlightData, time.Minute)

	got, found := GetTyped[[]string](m, "OTP_arrivals")
	if !found {
		t.Fatal("Expected cached value")
	}
	if len(got) != 2 || got[0] != "RO301" {
		t.Errorf("Unexpected cached value: %v", got)
	}
}

func TestManager_PersistentFallback(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, DefaultTTLConfig(), nil)
	ctx := context.Background()

	m.SetCachedData(ctx, "CLJ_departures", []string{"W63101"}, constants.CategoryFlightData, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	// Memory tier must report nothing once expired.
	if _, found := m.GetCachedData("CLJ_departures"); found {
		t.Error("Expected expired in-memory entry to be absent")
	}

	// Persistent tier still serves the value, stale or not.
	got, found := GetTypedWithPersistent[[]string](m, ctx, "CLJ_departures")
	if !found {
		t.Fatal("Expected persistent fallback to serve the entry")
	}
	if len(got) != 1 || got[0] != "W63101" {
		t.Errorf("Unexpected fallback value: %v", got)
	}
}

func TestManager_PersistentReadFailure_DegradesToNoData(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("disk gone")
	m := NewManager(store, DefaultTTLConfig(), nil)

	if _, found := m.GetCachedDataWithPersistent(context.Background(), "IAS_arrivals"); found {
		t.Error("Expected no data when both tiers fail")
	}
}

func TestManager_PersistentWriteFailure_StillServesMemory(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("disk full")
	m := NewManager(store, DefaultTTLConfig(), nil)
	ctx := context.Background()

	m.SetCachedData(ctx, "SBZ_arrivals", "payload", constants.CategoryFlightData, time.Minute)

	got, found := GetTyped[string](m, "SBZ_arrivals")
	if !found || got != "payload" {
		t.Errorf("Expected memory tier to serve despite persistent failure, got %q found=%v", got, found)
	}
}

func TestManager_DefaultTTLPerCategory(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, DefaultTTLConfig(), nil)
	ctx := context.Background()

	m.SetCachedData(ctx, constants.CacheKeyAirportStatistics+":OTP:weekly", "stats", constants.CategoryAnalytics, 0)

	entry := store.entries[constants.CacheKeyAirportStatistics+":OTP:weekly"]
	if entry.TTL != 30*24*time.Hour {
		t.Errorf("Expected analytics default TTL, got %v", entry.TTL)
	}
}

func TestManager_Counters(t *testing.T) {
	m := NewManager(newFakeStore(), DefaultTTLConfig(), nil)
	ctx := context.Background()

	m.SetCachedData(ctx, "OTP_arrivals", "x", constants.CategoryFlightData, time.Minute)
	m.GetCachedData("OTP_arrivals")
	m.GetCachedData("TSR_departures") // miss

	snap := m.Counters()
	fd := snap.Categories[constants.CategoryFlightData]
	if fd.Sets != 1 || fd.Hits != 1 || fd.Misses != 1 || fd.Gets != 2 {
		t.Errorf("Unexpected counters: %+v", fd)
	}

	before := snap.LastReset
	m.ResetCounters()
	snap = m.Counters()
	if len(snap.Categories) != 0 {
		t.Errorf("Expected empty counters after reset, got %+v", snap.Categories)
	}
	if !snap.LastReset.After(before) && !snap.LastReset.Equal(before) {
		t.Error("Expected reset timestamp to advance")
	}
}

func TestManager_Keys_UnionOfTiers(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, DefaultTTLConfig(), nil)
	ctx := context.Background()

	m.SetCachedData(ctx, "OTP_arrivals", "x", constants.CategoryFlightData, time.Minute)
	store.entries["RMO_arrivals"] = Entry{Key: "RMO_arrivals", Category: constants.CategoryFlightData}

	keys := m.Keys(ctx, "")
	want := map[string]bool{"OTP_arrivals": false, "RMO_arrivals": false}
	for _, k := range keys {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("Expected key %s in union", k)
		}
	}
}

func TestCategoryForKey(t *testing.T) {
	cases := map[string]constants.CacheCategory{
		"OTP_arrivals":               constants.CategoryFlightData,
		"KIV_departures":             constants.CategoryFlightData,
		"airport-statistics:OTP:day": constants.CategoryAnalytics,
		"aircraft:YR-BGA":            constants.CategoryAircraft,
	}
	for key, want := range cases {
		if got := categoryForKey(key); got != want {
			t.Errorf("categoryForKey(%q) = %s, want %s", key, got, want)
		}
	}
}
