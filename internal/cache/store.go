package cache

import (
	"context"
	"encoding/json"
	"time"

	"zborinfo/dispecer/internal/constants"
)

// Entry is one persisted cache row. Payload is kept as raw JSON so the store
// never needs to know the caller's concrete type.
type Entry struct {
	Key      string                  `json:"key" db:"key"`
	Category constants.CacheCategory `json:"category" db:"category"`
	Payload  json.RawMessage         `json:"payload" db:"payload"`
	StoredAt time.Time               `json:"stored_at" db:"stored_at"`
	TTL      time.Duration           `json:"ttl" db:"-"`
}

// Expired reports whether the entry is past its TTL at the given instant.
// The persistent tier keeps serving expired entries; only the in-memory
// fast path treats them as absent.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.StoredAt.Add(e.TTL))
}

// Store is the persistent cache tier contract. Implementations must be safe
// for concurrent use. Get returns (nil, nil) when the key is absent.
type Store interface {
	Init(ctx context.Context) error
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
