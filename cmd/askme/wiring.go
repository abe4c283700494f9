package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/abyan-ai/askme/pkg/backend"
	"github.com/abyan-ai/askme/pkg/backend/gemini"
	cachepkg "github.com/abyan-ai/askme/pkg/cache/sqlite"
	"github.com/abyan-ai/askme/pkg/chat"
	"github.com/abyan-ai/askme/pkg/config"
	"github.com/abyan-ai/askme/pkg/persona"
	"github.com/abyan-ai/askme/pkg/ratelimit"
	"github.com/abyan-ai/askme/pkg/scraper"
)

// limiterStore is the limiter chosen by rate_limit.backend. sweep is set for
// the in-memory store only; Redis expires idle keys itself.
type limiterStore struct {
	limiter ratelimit.Limiter
	sweep   *ratelimit.SlidingWindow
	close   func() error
}

func buildLimiter(ctx context.Context, cfg *config.Config) (*limiterStore, error) {
	rl := cfg.RateLimit
	if rl.Backend == "redis" {
		rw, err := ratelimit.NewRedisWindow(ctx, ratelimit.RedisOptions{
			Addr:     rl.Redis.Addr,
			Password: rl.Redis.Password,
			DB:       rl.Redis.DB,
		}, rl.Limit, rl.Window)
		if err != nil {
			return nil, fmt.Errorf("init redis limiter: %w", err)
		}
		return &limiterStore{limiter: rw, close: rw.Close}, nil
	}

	sw := ratelimit.NewSlidingWindow(rl.Limit, rl.Window)
	return &limiterStore{limiter: sw, sweep: sw, close: func() error { return nil }}, nil
}

// buildBackend returns nil, leaving the dispatcher unconfigured, when no API key is set.
func buildBackend(ctx context.Context, cfg *config.Config) (backend.Backend, error) {
	if cfg.Gemini.APIKey == "" {
		log.Warnf("no Gemini API key (set gemini.api_key or %s); chat requests will fail", config.APIKeyEnv)
		return nil, nil
	}
	b, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	return b, nil
}

func buildDispatcher(cfg *config.Config, store *limiterStore, b backend.Backend, opts ...chat.Option) *chat.Dispatcher {
	return chat.New(chat.Config{
		MaxMessageChars: cfg.Chat.MaxMessageChars,
		MaxHistory:      cfg.Chat.MaxHistory,
		DefaultMode:     persona.Mode(cfg.Chat.DefaultMode),
		FailureMode:     ratelimit.FailureMode(cfg.RateLimit.FailureMode),
		Locale:          cfg.Locale,
		Timeout:         cfg.Gemini.Timeout,
	}, store.limiter, cfg.RateLimit.Limit, b, opts...)
}

// openCache opens the scrape cache, or returns nil when it is disabled.
func openCache(cfg *config.Config) (*cachepkg.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	c, err := cachepkg.New(cfg.Cache.DBPath, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return c, nil
}

func buildScraper(cfg *config.Config, cache *cachepkg.Cache) *scraper.Client {
	var opts []scraper.Option
	if cache != nil {
		opts = append(opts, scraper.WithCache(cache, cachepkg.HashKey))
	}
	sc := cfg.Scraper
	return scraper.New(scraper.Config{
		UserAgent:     sc.UserAgent,
		RPS:           sc.RPS,
		Burst:         sc.Burst,
		Timeout:       sc.Timeout,
		WikipediaURL:  sc.WikipediaURL,
		GitHubURL:     sc.GitHubURL,
		RedditURL:     sc.RedditURL,
		HackerNewsURL: sc.HackerNewsURL,
	}, opts...)
}
