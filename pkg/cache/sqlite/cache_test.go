package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath, ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("github", "torvalds", "10")
	h2 := HashKey("github", "torvalds", "10")
	h3 := HashKey("github", "torvalds", "20")
	h4 := HashKey("reddit", "torvalds", "10")

	if h1 != h2 {
		t.Error("same params should produce same hash")
	}
	if HashKey("wikipedia", "Go (game)") == HashKey("wikipedia", "GO (game)") {
		t.Error("parameters should be hashed case-sensitively")
	}
	if h1 == h3 {
		t.Error("different params should produce different hash")
	}
	if h1 == h4 {
		t.Error("different source should produce different hash")
	}
	if HashKey("x", "ab", "c") == HashKey("x", "a", "bc") {
		t.Error("parameter boundaries should affect the hash")
	}
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, time.Hour)
	hash := HashKey("wikipedia", "golang")

	if err := c.Put(ctx, hash, "wikipedia", []byte(`{"title":"Go"}`)); err != nil {
		t.Fatal(err)
	}

	data, ok := c.Get(ctx, hash, "wikipedia")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != `{"title":"Go"}` {
		t.Errorf("unexpected payload: %s", data)
	}

	// Miss for different source
	_, ok = c.Get(ctx, hash, "hackernews")
	if ok {
		t.Error("expected cache miss for different source")
	}
}

func TestTTLExpiration(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	if err := c.Put(ctx, "testhash", "reddit", []byte("data")); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "testhash", "reddit"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get(ctx, "testhash", "reddit"); ok {
		t.Error("expected cache miss after TTL expiration")
	}

	n, err := c.Clear(true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired entry removed, got %d", n)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, time.Hour)

	_ = c.Put(ctx, "h1", "github", []byte("data"))
	_ = c.Put(ctx, "h2", "github", []byte("data"))
	_ = c.Put(ctx, "h3", "reddit", []byte("data"))
	c.Get(ctx, "h1", "github") // hit
	c.Get(ctx, "h9", "github") // miss

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 3 {
		t.Errorf("expected 3 entries, got %d", stats.Entries)
	}
	if stats.BySource["github"] != 2 || stats.BySource["reddit"] != 1 {
		t.Errorf("unexpected per-source counts: %v", stats.BySource)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, time.Hour)

	_ = c.Put(ctx, "h1", "github", []byte("data"))
	_ = c.Put(ctx, "h2", "github", []byte("data"))

	n, err := c.Clear(true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected no expired entries, got %d", n)
	}

	if _, err := c.Clear(false); err != nil {
		t.Fatal(err)
	}

	stats, _ := c.Stats()
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Entries)
	}
}
