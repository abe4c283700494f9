package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abyan-ai/askme/pkg/locale"
	"github.com/abyan-ai/askme/pkg/persona"
	"github.com/abyan-ai/askme/pkg/ratelimit"
)

// APIKeyEnv is consulted when gemini.api_key is left empty.
const APIKeyEnv = "GEMINI_API_KEY"

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all askme configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	Locale    string          `yaml:"locale"`
	Log       LogConfig       `yaml:"log"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Chat      ChatConfig      `yaml:"chat"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Cache     CacheConfig     `yaml:"cache"`
}

// LogConfig controls logrus output. Format is "text" or "json".
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GeminiConfig defines the upstream model. An empty APIKey leaves the
// service unconfigured.
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	BaseURL string        `yaml:"base_url"`
}

// ChatConfig controls request validation.
type ChatConfig struct {
	MaxMessageChars int    `yaml:"max_message_chars"`
	DefaultMode     string `yaml:"default_mode"`
	MaxHistory      int    `yaml:"max_history"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
}

// RateLimitConfig controls the per-client quota.
// Backend is "memory" (default) or "redis".
type RateLimitConfig struct {
	Limit         int           `yaml:"limit"`
	Window        time.Duration `yaml:"window"`
	FailureMode   string        `yaml:"failure_mode"`
	Backend       string        `yaml:"backend"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	KeyHeaders    []string      `yaml:"key_headers"`
	Redis         RedisConfig   `yaml:"redis"`
}

// RedisConfig locates the shared limiter store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ScraperConfig controls the public-data scraping endpoints.
type ScraperConfig struct {
	Enabled       bool          `yaml:"enabled"`
	UserAgent     string        `yaml:"user_agent"`
	RPS           float64       `yaml:"rps"`
	Burst         int           `yaml:"burst"`
	Timeout       time.Duration `yaml:"timeout"`
	WikipediaURL  string        `yaml:"wikipedia_url"`
	GitHubURL     string        `yaml:"github_url"`
	RedditURL     string        `yaml:"reddit_url"`
	HackerNewsURL string        `yaml:"hackernews_url"`
}

// CacheConfig controls the scraper response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	DBPath  string        `yaml:"db_path"`
	TTL     time.Duration `yaml:"ttl"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Locale: "en",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Chat: ChatConfig{
			MaxMessageChars: 1500,
			DefaultMode:     string(persona.Default),
			MaxHistory:      20,
			MaxBodyBytes:    8 << 20,
		},
		RateLimit: RateLimitConfig{
			Limit:         5,
			Window:        time.Minute,
			FailureMode:   string(ratelimit.FailOpen),
			Backend:       "memory",
			SweepInterval: time.Minute,
			KeyHeaders:    []string{"X-Forwarded-For"},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Scraper: ScraperConfig{
			Enabled:       true,
			UserAgent:     "askme-scraper/1.0",
			RPS:           5,
			Burst:         5,
			Timeout:       10 * time.Second,
			WikipediaURL:  "https://en.wikipedia.org",
			GitHubURL:     "https://api.github.com",
			RedditURL:     "https://www.reddit.com",
			HackerNewsURL: "https://hacker-news.firebaseio.com",
		},
		Cache: CacheConfig{
			Enabled: false,
			DBPath:  "askme.db",
			TTL:     10 * time.Minute,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv(APIKeyEnv)
	}
	return cfg, nil
}

// LoadEnvFiles loads .env.local then .env into the process environment.
// Variables already set are not overridden; missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Validate reports the first setting that cannot be served.
func (c *Config) Validate() error {
	switch {
	case c.Listen == "":
		return fmt.Errorf("%w: listen is required", ErrInvalid)
	case !locale.Supported(c.Locale):
		return fmt.Errorf("%w: unsupported locale %q", ErrInvalid, c.Locale)
	case c.Chat.MaxMessageChars <= 0:
		return fmt.Errorf("%w: chat.max_message_chars must be positive", ErrInvalid)
	case c.Chat.MaxHistory < 0:
		return fmt.Errorf("%w: chat.max_history must not be negative", ErrInvalid)
	case c.Chat.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: chat.max_body_bytes must be positive", ErrInvalid)
	case !persona.Known(c.Chat.DefaultMode):
		return fmt.Errorf("%w: unknown chat.default_mode %q", ErrInvalid, c.Chat.DefaultMode)
	case c.RateLimit.Limit <= 0:
		return fmt.Errorf("%w: rate_limit.limit must be positive", ErrInvalid)
	case c.RateLimit.Window < time.Millisecond:
		return fmt.Errorf("%w: rate_limit.window must be at least 1ms", ErrInvalid)
	case c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis":
		return fmt.Errorf("%w: rate_limit.backend must be memory or redis, got %q", ErrInvalid, c.RateLimit.Backend)
	case c.RateLimit.Backend == "memory" && c.RateLimit.SweepInterval <= 0:
		return fmt.Errorf("%w: rate_limit.sweep_interval must be positive", ErrInvalid)
	case c.RateLimit.Backend == "redis" && c.RateLimit.Redis.Addr == "":
		return fmt.Errorf("%w: rate_limit.redis.addr is required for the redis backend", ErrInvalid)
	case c.Scraper.Enabled && c.Scraper.RPS <= 0:
		return fmt.Errorf("%w: scraper.rps must be positive", ErrInvalid)
	case c.Cache.Enabled && c.Cache.DBPath == "":
		return fmt.Errorf("%w: cache.db_path is required when the cache is enabled", ErrInvalid)
	}
	if _, err := ratelimit.ParseFailureMode(c.RateLimit.FailureMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
