package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abyan-ai/askme/pkg/models"
)

// Cache is an exact-match response cache backed by SQLite. Entries are keyed
// by source and a hash of the request parameters.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS scrape_cache (
	key_hash TEXT NOT NULL,
	source TEXT NOT NULL,
	payload BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (key_hash, source)
);
CREATE INDEX IF NOT EXISTS idx_scrape_cache_expires ON scrape_cache (expires_at);
`

// New creates a Cache with the given database path and entry TTL.
func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// HashKey computes a SHA-256 hash of a source and its request parameters.
// Parameters are hashed as given; callers normalize case where the upstream ignores it.
func HashKey(source string, params ...string) string {
	h := sha256.New()
	h.Write([]byte(source))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get retrieves a cached payload. The bool is false if the entry is missing or expired.
func (c *Cache) Get(ctx context.Context, keyHash, source string) ([]byte, bool) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM scrape_cache WHERE key_hash = ? AND source = ? AND expires_at > ?`,
		keyHash, source, c.now().UnixMilli(),
	).Scan(&payload)

	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return payload, true
}

// Put stores a payload in the cache, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, keyHash, source string, payload []byte) error {
	now := c.now()
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scrape_cache (key_hash, source, payload, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		keyHash, source, payload, now.UnixMilli(), now.Add(c.ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() (models.CacheStats, error) {
	rows, err := c.db.Query(`SELECT source, COUNT(*) FROM scrape_cache GROUP BY source`)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()

	stats := models.CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		BySource: map[string]int64{},
	}
	for rows.Next() {
		var source string
		var n int64
		if err := rows.Scan(&source, &n); err != nil {
			return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
		}
		stats.BySource[source] = n
		stats.Entries += n
	}
	if err := rows.Err(); err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Clear removes cache entries and reports how many were deleted. If
// expiredOnly is true, only expired entries are removed.
func (c *Cache) Clear(expiredOnly bool) (int64, error) {
	var res sql.Result
	var err error
	if expiredOnly {
		res, err = c.db.Exec(`DELETE FROM scrape_cache WHERE expires_at <= ?`, c.now().UnixMilli())
	} else {
		res, err = c.db.Exec(`DELETE FROM scrape_cache`)
	}
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
