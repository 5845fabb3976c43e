package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Scraper    ScraperConfig
	ExtractAPI ExtractAPIConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// Proxy is the proxy URL passed to Chromium.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects go-rod/stealth into every tab.
	Stealth bool // default: true
}

// ScraperConfig controls the browser scraping strategy.
type ScraperConfig struct {
	// NavigationTimeout bounds each navigation attempt and the idle wait.
	NavigationTimeout time.Duration // default: 30s

	// RequestDelay is slept after every ranking or review scrape.
	RequestDelay time.Duration // default: 2s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// SearchURL is the search page template; %s receives the escaped query.
	SearchURL string

	// ReviewsURL is the review page template; %s receives the listing ID.
	ReviewsURL string

	// Debug dumps page anchors and content when a selector cascade misses.
	Debug bool
}

// SearchPageURL returns the public search page URL for a query.
func (c ScraperConfig) SearchPageURL(query string) string {
	return fmt.Sprintf(c.SearchURL, url.QueryEscape(query))
}

// ReviewPageURL returns the public review page URL for a listing.
func (c ScraperConfig) ReviewPageURL(listingID string) string {
	return fmt.Sprintf(c.ReviewsURL, url.PathEscape(listingID))
}

// ExtractAPIConfig controls the structured-extraction API strategy.
type ExtractAPIConfig struct {
	// APIKey enables the strategy when non-empty.
	APIKey string

	// Endpoint is the API base URL; "/scrape" is appended.
	Endpoint string // default: "https://api.firecrawl.dev/v1"

	// WaitFor is the render wait requested from the service, in milliseconds.
	WaitFor int // default: 3000
}

// Enabled reports whether credentials for the extraction API are present.
func (c ExtractAPIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// RateLimitConfig controls per-client rate limiting of the HTTP API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per client.
	Burst int // default: 3
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500

	// TTL evicts entries older than this. Zero disables the cache.
	TTL time.Duration // default: 0
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PLACERANK_HOST", "0.0.0.0"),
			Port: envIntOr("PLACERANK_PORT", 8080),
			Mode: envOr("PLACERANK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PLACERANK_HEADLESS", true),
			Proxy:      os.Getenv("PLACERANK_PROXY"),
			NoSandbox:  envBoolOr("PLACERANK_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PLACERANK_BROWSER_BIN"),
			Stealth:    envBoolOr("PLACERANK_STEALTH", true),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("PLACERANK_NAV_TIMEOUT", 30*time.Second),
			RequestDelay:      envDurationOr("PLACERANK_REQUEST_DELAY", 2*time.Second),
			BlockedResourceTypes: envSliceOr("PLACERANK_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			SearchURL:  envOr("PLACERANK_SEARCH_URL", "https://m.place.naver.com/place/list?query=%s"),
			ReviewsURL: envOr("PLACERANK_REVIEWS_URL", "https://m.place.naver.com/place/%s/review/visitor"),
			Debug:      envBoolOr("PLACERANK_DEBUG", false),
		},
		ExtractAPI: ExtractAPIConfig{
			APIKey:   os.Getenv("PLACERANK_EXTRACT_API_KEY"),
			Endpoint: envOr("PLACERANK_EXTRACT_API_URL", "https://api.firecrawl.dev/v1"),
			WaitFor:  envIntOr("PLACERANK_EXTRACT_WAIT_MS", 3000),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PLACERANK_RATE_RPS", 1.0),
			Burst:             envIntOr("PLACERANK_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("PLACERANK_CACHE_TTL", 0),
		},
		Log: LogConfig{
			Level:  envOr("PLACERANK_LOG_LEVEL", "info"),
			Format: envOr("PLACERANK_LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects configurations the scraper cannot run with.
func (c *Config) Validate() error {
	if c.Scraper.NavigationTimeout <= 0 {
		return fmt.Errorf("config: navigation timeout must be positive, got %s", c.Scraper.NavigationTimeout)
	}
	if c.Scraper.RequestDelay < 0 {
		return fmt.Errorf("config: request delay must not be negative, got %s", c.Scraper.RequestDelay)
	}
	if strings.Count(c.Scraper.SearchURL, "%s") != 1 {
		return fmt.Errorf("config: search URL %q must contain exactly one %%s", c.Scraper.SearchURL)
	}
	if strings.Count(c.Scraper.ReviewsURL, "%s") != 1 {
		return fmt.Errorf("config: reviews URL %q must contain exactly one %%s", c.Scraper.ReviewsURL)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: cache TTL must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
