// Package scraper fetches public profile and feed data from Wikipedia, GitHub,
// Reddit and Hacker News for the portfolio's scraping demo.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Sources served by the Client.
const (
	SourceWikipedia  = "wikipedia"
	SourceGitHub     = "github"
	SourceReddit     = "reddit"
	SourceHackerNews = "hackernews"
)

// MaxLimit caps every list size a caller may request.
const MaxLimit = 100

// ErrNotFound is returned when the upstream reports the resource does not exist.
var ErrNotFound = errors.New("not found")

// StatusError is an unexpected upstream HTTP status.
type StatusError struct {
	Source string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Source, e.Code)
}

// Cache stores encoded payloads keyed by source and request parameters.
type Cache interface {
	Get(ctx context.Context, keyHash, source string) ([]byte, bool)
	Put(ctx context.Context, keyHash, source string, payload []byte) error
}

// KeyFunc hashes a source and its parameters into a cache key.
type KeyFunc func(source string, params ...string) string

// Config controls outbound behavior and upstream endpoints.
type Config struct {
	UserAgent string
	// RPS and Burst throttle all outbound requests together.
	RPS     float64
	Burst   int
	Timeout time.Duration

	WikipediaURL  string
	GitHubURL     string
	RedditURL     string
	HackerNewsURL string
}

// DefaultConfig points at the public APIs.
func DefaultConfig() Config {
	return Config{
		UserAgent:     "askme-scraper/1.0",
		RPS:           5,
		Burst:         5,
		Timeout:       10 * time.Second,
		WikipediaURL:  "https://en.wikipedia.org",
		GitHubURL:     "https://api.github.com",
		RedditURL:     "https://www.reddit.com",
		HackerNewsURL: "https://hacker-news.firebaseio.com",
	}
}

// Client fetches and normalizes upstream data.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	key     KeyFunc
}

// Option customizes a Client.
type Option func(*Client)

// WithCache enables response caching; key hashes the cache key.
func WithCache(c Cache, key KeyFunc) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.key = key
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) { cl.http = h }
}

// New creates a Client. Zero fields of cfg take their DefaultConfig values.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.RPS <= 0 {
		cfg.RPS = def.RPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.WikipediaURL == "" {
		cfg.WikipediaURL = def.WikipediaURL
	}
	if cfg.GitHubURL == "" {
		cfg.GitHubURL = def.GitHubURL
	}
	if cfg.RedditURL == "" {
		cfg.RedditURL = def.RedditURL
	}
	if cfg.HackerNewsURL == "" {
		cfg.HackerNewsURL = def.HackerNewsURL
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// clampLimit maps non-positive values to def and caps at MaxLimit.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxLimit)
}

// getJSON performs a throttled GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, source, url string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", source, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", source, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Source: source, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", source, err)
	}
	return nil
}

// cached serves fetch through the cache when one is configured. Cache
// failures are logged and never fail the request.
func cached[T any](ctx context.Context, c *Client, source string, params []string, fetch func(context.Context) (T, error)) (T, error) {
	if c.cache == nil {
		return fetch(ctx)
	}

	key := c.key(source, params...)
	if data, ok := c.cache.Get(ctx, key, source); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			log.WithFields(log.Fields{"source": source, "params": strings.Join(params, ",")}).Debug("scrape cache hit")
			return v, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = c.cache.Put(ctx, key, source, data)
	}
	if err != nil {
		log.WithError(err).WithField("source", source).Warn("scrape cache write failed")
	}
	return v, nil
}
