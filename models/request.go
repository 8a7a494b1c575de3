package models

// SchemeSearchRequest is bound from the query string of GET /api/v1/schemes.
type SchemeSearchRequest struct {
	// Query is matched case-insensitively against name, description and category.
	Query string `form:"q"`

	// Category and Status are substring filters applied after Query.
	Category string `form:"category"`
	Status   string `form:"status"`

	// Page is 1-based. Default: 1.
	Page int `form:"page" binding:"omitempty,min=1"`

	// PageSize is the number of schemes per page. Default: 20. Max: 100.
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Defaults applies default values to unset fields.
func (r *SchemeSearchRequest) Defaults() {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = 20
	}
}

// Filters returns the non-empty field filters keyed by record field.
func (r *SchemeSearchRequest) Filters() map[string]string {
	f := make(map[string]string, 2)
	if r.Category != "" {
		f["category"] = r.Category
	}
	if r.Status != "" {
		f["status"] = r.Status
	}
	return f
}

// PriceRequest is bound from the query string of the price endpoints.
type PriceRequest struct {
	Commodity string `form:"commodity" binding:"required"`
	State     string `form:"state"`
	Market    string `form:"market"`

	// Days is the prediction horizon, only used by /prices/prediction.
	// Default: 30. Max: 90.
	Days int `form:"days" binding:"omitempty,min=1,max=90"`
}

// Defaults applies default values to unset fields.
func (r *PriceRequest) Defaults() {
	if r.Days == 0 {
		r.Days = 30
	}
}
