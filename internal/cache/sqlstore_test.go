package cache

import (
	"context"
	"testing"
	"time"

	"zborinfo/dispecer/internal/constants"
)

func setupSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return store
}

func TestSQLStore_SetGetRoundTrip(t *testing.T) {
	store := setupSQLStore(t)
	ctx := context.Background()

	stored := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	err := store.Set(ctx, Entry{
		Key:      "OTP_arrivals",
		Category: constants.CategoryFlightData,
		Payload:  []byte(`["RO301"]`),
		StoredAt: stored,
		TTL:      30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entry, err := store.Get(ctx, "OTP_arrivals")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("Expected entry, got nil")
	}
	if entry.Category != constants.CategoryFlightData {
		t.Errorf("Expected flightData category, got %s", entry.Category)
	}
	if string(entry.Payload) != `["RO301"]` {
		t.Errorf("Unexpected payload: %s", entry.Payload)
	}
	if entry.TTL != 30*time.Minute {
		t.Errorf("Expected 30m TTL, got %v", entry.TTL)
	}
}

func TestSQLStore_GetMissing(t *testing.T) {
	store := setupSQLStore(t)

	entry, err := store.Get(context.Background(), "XXX_arrivals")
	if err != nil {
		t.Fatalf("Expected no error for missing key, got %v", err)
	}
	if entry != nil {
		t.Errorf("Expected nil entry for missing key, got %+v", entry)
	}
}

func TestSQLStore_UpsertReplacesWholesale(t *testing.T) {
	store := setupSQLStore(t)
	ctx := context.Background()

	first := Entry{Key: "CLJ_departures", Category: constants.CategoryFlightData, Payload: []byte(`["old"]`), StoredAt: time.Now()}
	second := Entry{Key: "CLJ_departures", Category: constants.CategoryFlightData, Payload: []byte(`["new"]`), StoredAt: time.Now()}

	if err := store.Set(ctx, first); err != nil {
		t.Fatalf("First set failed: %v", err)
	}
	if err := store.Set(ctx, second); err != nil {
		t.Fatalf("Second set failed: %v", err)
	}

	entry, err := store.Get(ctx, "CLJ_departures")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(entry.Payload) != `["new"]` {
		t.Errorf("Expected replaced payload, got %s", entry.Payload)
	}
}

func TestSQLStore_KeysByPrefix(t *testing.T) {
	store := setupSQLStore(t)
	ctx := context.Background()

	for _, key := range []string{"OTP_arrivals", "OTP_departures", "airport-statistics:OTP:weekly"} {
		if err := store.Set(ctx, Entry{Key: key, Category: constants.CategoryFlightData, Payload: []byte(`{}`), StoredAt: time.Now()}); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	keys, err := store.Keys(ctx, "OTP_")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Expected 2 keys with prefix OTP_, got %v", keys)
	}
}

func TestEntry_Expired(t *testing.T) {
	now := time.Now()
	entry := &Entry{StoredAt: now.Add(-time.Hour), TTL: 30 * time.Minute}
	if !entry.Expired(now) {
		t.Error("Expected entry past TTL to be expired")
	}

	entry = &Entry{StoredAt: now, TTL: 0}
	if entry.Expired(now.Add(100 * time.Hour)) {
		t.Error("Expected zero-TTL entry to never expire")
	}
}
