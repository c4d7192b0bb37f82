package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zborinfo/dispecer/internal/constants"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key         TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	payload     TEXT NOT NULL,
	stored_at   TIMESTAMP NOT NULL,
	ttl_seconds INTEGER NOT NULL DEFAULT 0
)`

// SQLStore is the durable cache tier backed by a key/value table.
// Driver is "sqlite3" for local deployments and "postgres" in production;
// queries go through sqlx.Rebind so both work from the same SQL.
type SQLStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore connects to the database. Postgres connections are retried a
// few times because the container may come up after the app.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	var (
		db  *sqlx.DB
		err error
	)
	attempts := 1
	if driver == "postgres" {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		db, err = sqlx.Connect(driver, dsn)
		if err == nil {
			return &SQLStore{db: db}, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("failed to connect to cache store: %w", err)
}

// Init creates the cache table. Safe to call repeatedly.
func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, cacheSchema)
	return err
}

type cacheRow struct {
	Key        string    `db:"key"`
	Category   string    `db:"category"`
	Payload    []byte    `db:"payload"`
	StoredAt   time.Time `db:"stored_at"`
	TTLSeconds int64     `db:"ttl_seconds"`
}

// Get returns the stored entry, or (nil, nil) when the key is absent.
func (s *SQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := s.db.Rebind(`SELECT key, category, payload, stored_at, ttl_seconds FROM cache_entries WHERE key = ?`)

	var row cacheRow
	if err := s.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &Entry{
		Key:      row.Key,
		Category: constants.CacheCategory(row.Category),
		Payload:  row.Payload,
		StoredAt: row.StoredAt,
		TTL:      time.Duration(row.TTLSeconds) * time.Second,
	}, nil
}

// Set upserts the entry. Entries are always replaced wholesale.
func (s *SQLStore) Set(ctx context.Context, entry Entry) error {
	query := s.db.Rebind(`
		INSERT INTO cache_entries (key, category, payload, stored_at, ttl_seconds)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			category = excluded.category,
			payload = excluded.payload,
			stored_at = excluded.stored_at,
			ttl_seconds = excluded.ttl_seconds`)

	_, err := s.db.ExecContext(ctx, query,
		entry.Key, string(entry.Category), []byte(entry.Payload),
		entry.StoredAt.UTC(), int64(entry.TTL/time.Second))
	return err
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM cache_entries WHERE key = ?`)
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// Keys returns all stored keys starting with prefix. An empty prefix lists
// every key.
func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := s.db.Rebind(`SELECT key FROM cache_entries WHERE key LIKE ? ORDER BY key`)

	var keys []string
	if err := s.db.SelectContext(ctx, &keys, query, prefix+"%"); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
