package api

import (
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/use-agent/farmdata/api/handler"
	"github.com/use-agent/farmdata/api/middleware"
	"github.com/use-agent/farmdata/catalog"
	"github.com/use-agent/farmdata/config"
	"github.com/use-agent/farmdata/models"
	"github.com/use-agent/farmdata/synth"
)

func testNow() time.Time { return time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC) }

func newTestRouter(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Catalog: config.CatalogConfig{
			SchemeTTL:       time.Hour,
			PriceTTL:        30 * time.Minute,
			RequestDeadline: 2 * time.Second,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	cat := catalog.New(cfg.Catalog, catalog.Deps{
		Clock: testNow,
		Model: synth.New(
			synth.WithRand(rand.New(rand.NewPCG(7, 11))),
			synth.WithClock(testNow),
		),
	})
	ref := catalog.NewRefresher(cat, 0, 0)
	t.Cleanup(ref.Stop)

	return NewRouter(cfg, cat, ref, nil, time.Now())
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestRoutes_Status(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{"search", http.MethodGet, "/api/v1/schemes?q=irrigation", "", http.StatusOK},
		{"search page size too large", http.MethodGet, "/api/v1/schemes?page_size=500", "", http.StatusBadRequest},
		{"search bad page", http.MethodGet, "/api/v1/schemes?page=abc", "", http.StatusBadRequest},
		{"scheme", http.MethodGet, "/api/v1/schemes/kisan-credit-card-kcc", "", http.StatusOK},
		{"unknown scheme", http.MethodGet, "/api/v1/schemes/no-such-scheme", "", http.StatusNotFound},
		{"eligibility", http.MethodPost, "/api/v1/schemes/kisan-credit-card-kcc/eligibility", `{"age":30}`, http.StatusOK},
		{"eligibility empty body", http.MethodPost, "/api/v1/schemes/kisan-credit-card-kcc/eligibility", "", http.StatusOK},
		{"eligibility bad body", http.MethodPost, "/api/v1/schemes/kisan-credit-card-kcc/eligibility", `{"age":"old"}`, http.StatusBadRequest},
		{"eligibility unknown scheme", http.MethodPost, "/api/v1/schemes/no-such-scheme/eligibility", `{}`, http.StatusNotFound},
		{"prices", http.MethodGet, "/api/v1/prices?commodity=Tomato", "", http.StatusOK},
		{"prices without commodity", http.MethodGet, "/api/v1/prices?state=Punjab", "", http.StatusBadRequest},
		{"prediction", http.MethodGet, "/api/v1/prices/prediction?commodity=Onion&days=10", "", http.StatusOK},
		{"prediction horizon too long", http.MethodGet, "/api/v1/prices/prediction?commodity=Onion&days=120", "", http.StatusBadRequest},
		{"refresh", http.MethodPost, "/api/v1/catalog/refresh", "", http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.target, tt.body, nil)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSchemes_NotFoundBody(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/v1/schemes/no-such-scheme", "", nil)
	resp := decode[models.ErrorResponse](t, w)
	if resp.Success || resp.Error == nil || resp.Error.Code != models.ErrCodeNotFound {
		t.Fatalf("response = %+v, want NOT_FOUND error", resp)
	}
}

func TestSchemes_SearchFallbackListing(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/v1/schemes?q=irrigation&page_size=1", "", nil)
	res := decode[models.SchemeSearchResult](t, w)
	if len(res.Schemes) != 1 {
		t.Fatalf("got %d schemes, want 1", len(res.Schemes))
	}
	if res.Pagination.TotalResults < 2 || !res.Pagination.HasNextPage {
		t.Errorf("pagination = %+v, want several irrigation schemes", res.Pagination)
	}
	if res.SourceUsed != models.SourceTagFallback {
		t.Errorf("source_used = %q, want %q", res.SourceUsed, models.SourceTagFallback)
	}
}

func TestEligibility_TenantAndLandScheme(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/schemes/pradhan-mantri-kisan-samman-nidhi-pm-kisan/eligibility",
		`{"age":35,"land_ownership":"tenant"}`, nil)
	resp := decode[models.EligibilityResponse](t, w)
	if resp.Result == nil {
		t.Fatalf("missing result: %s", w.Body.String())
	}
	if resp.Result.IsEligible {
		t.Error("tenant should not be eligible for a landholding scheme")
	}
	if len(resp.Result.Reasons) == 0 {
		t.Error("expected a rejection reason")
	}
}

func TestPrices_SyntheticRecords(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/v1/prices?commodity=Tomato&state=Maharashtra&market=Pune", "", nil)
	resp := decode[models.PricesResponse](t, w)
	if len(resp.Prices) != 7 {
		t.Fatalf("got %d prices, want 7", len(resp.Prices))
	}
	for i, p := range resp.Prices {
		if p.SourceTag != models.SourceTagSynthetic {
			t.Errorf("prices[%d].source_tag = %q, want synthetic", i, p.SourceTag)
		}
		if p.MinPrice > p.ModalPrice || p.ModalPrice > p.MaxPrice {
			t.Errorf("prices[%d] bounds out of order: %+v", i, p)
		}
		if i > 0 && p.Date.After(resp.Prices[i-1].Date) {
			t.Errorf("prices[%d] newer than prices[%d]", i, i-1)
		}
	}
}

func TestPrediction_Days(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		query string
		want  int
	}{
		{"commodity=Wheat", synth.DefaultHorizon},
		{"commodity=Wheat&days=10", 10},
		{"commodity=Wheat&days=90", 90},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, r, http.MethodGet, "/api/v1/prices/prediction?"+tt.query, "", nil)
			resp := decode[models.PredictionResponse](t, w)
			if resp.Days != tt.want || len(resp.Predictions) != tt.want {
				t.Errorf("days = %d, predictions = %d, want %d", resp.Days, len(resp.Predictions), tt.want)
			}
		})
	}
}

func TestHealth_ReportsCatalogs(t *testing.T) {
	r := newTestRouter(t, nil)

	do(t, r, http.MethodGet, "/api/v1/prices?commodity=Onion", "", nil)
	w := do(t, r, http.MethodGet, "/api/v1/health", "", nil)
	resp := decode[models.HealthResponse](t, w)

	if resp.Version != handler.Version {
		t.Errorf("version = %q, want %q", resp.Version, handler.Version)
	}
	if resp.Browser.Enabled {
		t.Error("browser should be reported disabled")
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded while serving synthetic prices", resp.Status)
	}
	var found bool
	for _, cs := range resp.Catalogs {
		if strings.HasPrefix(cs.Key, "prices:") {
			found = true
			if cs.State != string(catalog.StateFallback) {
				t.Errorf("%s state = %q, want fallback", cs.Key, cs.State)
			}
		}
	}
	if !found {
		t.Errorf("no price catalog in %+v", resp.Catalogs)
	}
}

func TestAuth(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"k1"}}
	})

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    int
	}{
		{"health is open", "/api/v1/health", nil, http.StatusOK},
		{"missing key", "/api/v1/schemes", nil, http.StatusUnauthorized},
		{"wrong key", "/api/v1/schemes", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", "/api/v1/schemes", map[string]string{"X-API-Key": "k1"}, http.StatusOK},
		{"bearer key", "/api/v1/schemes", map[string]string{"Authorization": "Bearer k1"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, tt.target, "", tt.headers)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}
	})

	for i := 0; i < 2; i++ {
		if w := do(t, r, http.MethodGet, "/api/v1/schemes", "", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	w := do(t, r, http.MethodGet, "/api/v1/schemes", "", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	resp := decode[models.ErrorResponse](t, w)
	if resp.Error == nil || resp.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("error = %+v, want RATE_LIMITED", resp.Error)
	}

	// Health is outside the limited group.
	if w := do(t, r, http.MethodGet, "/api/v1/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/v1/health", "", map[string]string{middleware.RequestIDHeader: "abc-123"})
	if got := w.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
		t.Errorf("echoed request id = %q, want abc-123", got)
	}

	w = do(t, r, http.MethodGet, "/api/v1/health", "", nil)
	if got := w.Header().Get(middleware.RequestIDHeader); len(got) != 36 {
		t.Errorf("generated request id = %q, want a UUID", got)
	}
}
