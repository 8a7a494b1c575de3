package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Catalog   CatalogConfig
	Sources   []SourceConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared Rod browser session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL handed to the browser.
	Proxy string

	// UserAgent is sent by every page the session opens.
	UserAgent string

	// PageTimeout is the hard deadline for one page's scrape.
	PageTimeout time.Duration // default: 30s

	// LaunchTimeout bounds browser start-up.
	LaunchTimeout time.Duration // default: 20s

	// BlockedResourceTypes lists resource types to block on scrape pages.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 10

	// Burst is the maximum burst size per identity.
	Burst int // default: 20
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// CatalogConfig controls caching and refresh of the scheme and price catalogs.
type CatalogConfig struct {
	// SchemeTTL is how long a scheme snapshot stays fresh.
	SchemeTTL time.Duration // default: 1h

	// PriceTTL is how long a price snapshot stays fresh.
	PriceTTL time.Duration // default: 30m

	// DetailTTL is how long an enriched scheme detail stays cached.
	DetailTTL time.Duration // default: 24h

	// DetailMaxEntries bounds the detail cache.
	DetailMaxEntries int // default: 1024

	// RefreshInterval is the background refresh period. Zero disables it.
	RefreshInterval time.Duration // default: 1h

	// RefreshMaxBackoff caps the delay between refreshes after repeated
	// fallback outcomes.
	RefreshMaxBackoff time.Duration // default: 6h

	// RequestDeadline bounds a whole source chain for a foreground request.
	// When it expires the synthetic fallback is served.
	RequestDeadline time.Duration // default: 20s
}

// Catalog names used by SourceConfig.Catalog.
const (
	CatalogSchemes = "schemes"
	CatalogPrices  = "prices"
	CatalogDetails = "details"
)

// Source kinds understood by the source registry.
const (
	KindAgmarknetAPI      = "agmarknet_api"
	KindPortalHTML        = "portal_html"
	KindPortalBrowser     = "portal_browser"
	KindPriceTableBrowser = "price_table_browser"
	KindDetailPage        = "detail_page"
)

// SourceConfig is one row of the operator's source table.
type SourceConfig struct {
	Name      string         `yaml:"name"`
	Kind      string         `yaml:"kind"`
	Catalog   string         `yaml:"catalog"`
	Enabled   bool           `yaml:"enabled"`
	Priority  int            `yaml:"priority"`
	Timeout   time.Duration  `yaml:"timeout"`
	URL       string         `yaml:"url"`
	APIKey    string         `yaml:"api_key"`
	Selectors SelectorConfig `yaml:"selectors"`
}

// SelectorConfig holds the CSS selectors used to parse a listing or price table.
// Row is evaluated against the document; the rest against each row.
type SelectorConfig struct {
	Row         string `yaml:"row"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Status      string `yaml:"status"`
	Link        string `yaml:"link"`

	// Price table columns.
	Date   string `yaml:"date"`
	Market string `yaml:"market"`
	Min    string `yaml:"min"`
	Max    string `yaml:"max"`
	Modal  string `yaml:"modal"`
}

// Load reads configuration from environment variables with sane defaults.
// If FARMDATA_SOURCES_FILE is set, its YAML source table replaces the
// built-in one.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("FARMDATA_HOST", "0.0.0.0"),
			Port: envIntOr("FARMDATA_PORT", 8080),
			Mode: envOr("FARMDATA_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:      envBoolOr("FARMDATA_HEADLESS", true),
			NoSandbox:     envBoolOr("FARMDATA_NO_SANDBOX", false),
			BrowserBin:    os.Getenv("FARMDATA_BROWSER_BIN"),
			Proxy:         os.Getenv("FARMDATA_PROXY"),
			UserAgent:     envOr("FARMDATA_USER_AGENT", DefaultUserAgent),
			PageTimeout:   envDurationOr("FARMDATA_PAGE_TIMEOUT", 30*time.Second),
			LaunchTimeout: envDurationOr("FARMDATA_LAUNCH_TIMEOUT", 20*time.Second),
			BlockedResourceTypes: envSliceOr("FARMDATA_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FARMDATA_AUTH_ENABLED", false),
			APIKeys: envSliceOr("FARMDATA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FARMDATA_RATE_RPS", 10.0),
			Burst:             envIntOr("FARMDATA_RATE_BURST", 20),
		},
		Log: LogConfig{
			Level:  envOr("FARMDATA_LOG_LEVEL", "info"),
			Format: envOr("FARMDATA_LOG_FORMAT", "json"),
		},
		Catalog: CatalogConfig{
			SchemeTTL:         envDurationOr("FARMDATA_SCHEME_TTL", time.Hour),
			PriceTTL:          envDurationOr("FARMDATA_PRICE_TTL", 30*time.Minute),
			DetailTTL:         envDurationOr("FARMDATA_DETAIL_TTL", 24*time.Hour),
			DetailMaxEntries:  envIntOr("FARMDATA_DETAIL_MAX_ENTRIES", 1024),
			RefreshInterval:   envDurationOr("FARMDATA_REFRESH_INTERVAL", time.Hour),
			RefreshMaxBackoff: envDurationOr("FARMDATA_REFRESH_MAX_BACKOFF", 6*time.Hour),
			RequestDeadline:   envDurationOr("FARMDATA_REQUEST_DEADLINE", 20*time.Second),
		},
		Sources: DefaultSources(),
	}

	if path := os.Getenv("FARMDATA_SOURCES_FILE"); path != "" {
		sources, err := LoadSources(path)
		if err != nil {
			return nil, err
		}
		cfg.Sources = sources
	}

	// Enable named sources without a file, e.g. FARMDATA_ENABLE_SOURCES=agmarknet-api.
	for _, name := range envSliceOr("FARMDATA_ENABLE_SOURCES", nil) {
		for i := range cfg.Sources {
			if cfg.Sources[i].Name == name {
				cfg.Sources[i].Enabled = true
			}
		}
	}
	if key := os.Getenv("FARMDATA_AGMARKNET_API_KEY"); key != "" {
		for i := range cfg.Sources {
			if cfg.Sources[i].Kind == KindAgmarknetAPI && cfg.Sources[i].APIKey == "" {
				cfg.Sources[i].APIKey = key
			}
		}
	}

	return cfg, nil
}

// NeedsBrowser reports whether any enabled source renders pages in the
// shared browser session.
func (c *Config) NeedsBrowser() bool {
	for _, s := range c.Sources {
		if s.Enabled && (s.Kind == KindPortalBrowser || s.Kind == KindPriceTableBrowser) {
			return true
		}
	}
	return false
}

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultSources is the built-in source table. Every source ships disabled;
// operators opt in per deployment because portal markup changes without notice.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:     "myscheme-browser",
			Kind:     KindPortalBrowser,
			Catalog:  CatalogSchemes,
			Priority: 1,
			Timeout:  25 * time.Second,
			URL:      "https://www.myscheme.gov.in/search/category/Agriculture,Rural%20&%20Environment",
			Selectors: SelectorConfig{
				Row:         "div.scheme-card, article",
				Name:        "h2, h3",
				Description: "p",
				Category:    ".category, .tag",
				Status:      ".status",
				Link:        "a[href]",
			},
		},
		{
			Name:     "agriwelfare-html",
			Kind:     KindPortalHTML,
			Catalog:  CatalogSchemes,
			Priority: 2,
			Timeout:  10 * time.Second,
			URL:      "https://agriwelfare.gov.in/en/Major",
			Selectors: SelectorConfig{
				Row:         "table tbody tr",
				Name:        "td:nth-child(2)",
				Description: "td:nth-child(3)",
				Link:        "a[href]",
			},
		},
		{
			Name:     "agmarknet-api",
			Kind:     KindAgmarknetAPI,
			Catalog:  CatalogPrices,
			Priority: 1,
			Timeout:  8 * time.Second,
			URL:      "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070",
		},
		{
			Name:     "agmarknet-browser",
			Kind:     KindPriceTableBrowser,
			Catalog:  CatalogPrices,
			Priority: 2,
			Timeout:  30 * time.Second,
			URL:      "https://agmarknet.gov.in/SearchCmmMkt.aspx?Tx_CommodityHead={commodity}&Tx_StateHead={state}&Tx_MarketHead={market}",
			Selectors: SelectorConfig{
				Row:    "table#cphBody_GridPriceData tr:not(:first-child)",
				Market: "td:nth-child(3)",
				Min:    "td:nth-child(7)",
				Max:    "td:nth-child(8)",
				Modal:  "td:nth-child(9)",
				Date:   "td:nth-child(10)",
			},
		},
		{
			Name:     "scheme-detail",
			Kind:     KindDetailPage,
			Catalog:  CatalogDetails,
			Priority: 1,
			Timeout:  10 * time.Second,
		},
	}
}

// sourcesFile is the on-disk shape of FARMDATA_SOURCES_FILE.
type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads a YAML source table.
func LoadSources(path string) ([]SourceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sources file: %w", err)
	}
	return ParseSources(raw)
}

// ParseSources decodes and validates a YAML source table.
func ParseSources(raw []byte) ([]SourceConfig, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse sources: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Sources))
	for i, s := range f.Sources {
		if s.Name == "" {
			return nil, fmt.Errorf("config: source %d has no name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("config: duplicate source %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		switch s.Catalog {
		case CatalogSchemes, CatalogPrices, CatalogDetails:
		default:
			return nil, fmt.Errorf("config: source %q: unknown catalog %q", s.Name, s.Catalog)
		}
		if s.Timeout <= 0 {
			f.Sources[i].Timeout = 10 * time.Second
		}
	}
	return f.Sources, nil
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
