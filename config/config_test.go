package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Catalog.SchemeTTL != time.Hour {
		t.Errorf("Catalog.SchemeTTL = %v, want 1h", cfg.Catalog.SchemeTTL)
	}
	for _, s := range cfg.Sources {
		if s.Enabled {
			t.Errorf("source %q enabled by default", s.Name)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FARMDATA_PORT", "9090")
	t.Setenv("FARMDATA_PRICE_TTL", "5m")
	t.Setenv("FARMDATA_ENABLE_SOURCES", "agmarknet-api, agriwelfare-html")
	t.Setenv("FARMDATA_AGMARKNET_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Catalog.PriceTTL != 5*time.Minute {
		t.Errorf("Catalog.PriceTTL = %v, want 5m", cfg.Catalog.PriceTTL)
	}

	enabled := map[string]bool{}
	for _, s := range cfg.Sources {
		enabled[s.Name] = s.Enabled
		if s.Kind == KindAgmarknetAPI && s.APIKey != "secret" {
			t.Errorf("agmarknet api key = %q, want secret", s.APIKey)
		}
	}
	if !enabled["agmarknet-api"] || !enabled["agriwelfare-html"] {
		t.Errorf("named sources not enabled: %v", enabled)
	}
	if enabled["myscheme-browser"] {
		t.Error("myscheme-browser should stay disabled")
	}
}

func TestParseSources(t *testing.T) {
	raw := []byte(`
sources:
  - name: mandi-api
    kind: agmarknet_api
    catalog: prices
    enabled: true
    priority: 2
    timeout: 3s
    url: https://example.org/prices
  - name: portal
    kind: portal_html
    catalog: schemes
    enabled: true
    priority: 1
    selectors:
      row: li.scheme
      name: h3
`)
	sources, err := ParseSources(raw)
	if err != nil {
		t.Fatalf("ParseSources error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", sources[0].Timeout)
	}
	if sources[1].Timeout != 10*time.Second {
		t.Errorf("default timeout = %v, want 10s", sources[1].Timeout)
	}
	if sources[1].Selectors.Row != "li.scheme" {
		t.Errorf("row selector = %q, want li.scheme", sources[1].Selectors.Row)
	}
}

func TestParseSources_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"missing name", "sources:\n  - catalog: prices\n", "no name"},
		{"duplicate", "sources:\n  - {name: a, catalog: prices}\n  - {name: a, catalog: prices}\n", "duplicate"},
		{"bad catalog", "sources:\n  - {name: a, catalog: weather}\n", "unknown catalog"},
		{"bad yaml", "sources: [", "parse sources"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSources([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestNeedsBrowser(t *testing.T) {
	cfg := &Config{Sources: DefaultSources()}
	if cfg.NeedsBrowser() {
		t.Fatal("default table should not need a browser")
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Kind == KindAgmarknetAPI {
			cfg.Sources[i].Enabled = true
		}
	}
	if cfg.NeedsBrowser() {
		t.Error("API source alone should not need a browser")
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Kind == KindPriceTableBrowser {
			cfg.Sources[i].Enabled = true
		}
	}
	if !cfg.NeedsBrowser() {
		t.Error("enabled price table browser should need a browser")
	}
}
