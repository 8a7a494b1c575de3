package models

import "time"

// Pagination describes where a page sits within a filtered result set.
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalResults int  `json:"total_results"`
	PageSize     int  `json:"page_size"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
}

// SchemeSearchResult is the response for GET /api/v1/schemes.
type SchemeSearchResult struct {
	Schemes    []Scheme   `json:"schemes"`
	Pagination Pagination `json:"pagination"`

	// SourceUsed names the source of the snapshot the page was cut from.
	SourceUsed string `json:"source_used,omitempty"`
}

// SchemeResponse is the response for GET /api/v1/schemes/:id.
type SchemeResponse struct {
	Success bool         `json:"success"`
	Scheme  *Scheme      `json:"scheme,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// EligibilityResponse is the response for POST /api/v1/schemes/:id/eligibility.
type EligibilityResponse struct {
	Success bool               `json:"success"`
	Result  *EligibilityResult `json:"result,omitempty"`
	Error   *ErrorDetail       `json:"error,omitempty"`
}

// PricesResponse is the response for GET /api/v1/prices.
type PricesResponse struct {
	Success   bool          `json:"success"`
	Commodity string        `json:"commodity"`
	State     string        `json:"state,omitempty"`
	Market    string        `json:"market,omitempty"`
	Prices    []PriceRecord `json:"prices"`
	Error     *ErrorDetail  `json:"error,omitempty"`
}

// PredictionResponse is the response for GET /api/v1/prices/prediction.
type PredictionResponse struct {
	Success     bool         `json:"success"`
	Commodity   string       `json:"commodity"`
	Days        int          `json:"days"`
	Predictions []Prediction `json:"predictions"`
	Error       *ErrorDetail `json:"error,omitempty"`
}

// ErrorResponse is returned by middleware and handlers on failure.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string          `json:"status"` // "healthy" or "degraded"
	Uptime   string          `json:"uptime"`
	Browser  BrowserStats    `json:"browser"`
	Catalogs []CatalogStatus `json:"catalogs"`
	Version  string          `json:"version"`
}

// BrowserStats reports the state of the shared browser session.
type BrowserStats struct {
	Enabled     bool  `json:"enabled"`
	Connected   bool  `json:"connected"`
	Launches    int64 `json:"launches"`
	ActivePages int   `json:"active_pages"`
}

// CatalogStatus reports the cache state of one catalog key.
type CatalogStatus struct {
	Key        string    `json:"key"`
	State      string    `json:"state"`
	SourceUsed string    `json:"source_used,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	Items      int       `json:"items"`
}
