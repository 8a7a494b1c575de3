package models

import "time"

// Source tags for data that did not come from a configured source.
const (
	// SourceTagSynthetic marks records produced by the synthetic price model.
	SourceTagSynthetic = "synthetic"

	// SourceTagFallback marks the curated scheme set served when every
	// scheme source fails.
	SourceTagFallback = "fallback"
)

// PriceRecord is one day's mandi price for a commodity, in rupees per quintal.
type PriceRecord struct {
	Date       time.Time `json:"date"`
	MinPrice   int       `json:"min_price"`
	MaxPrice   int       `json:"max_price"`
	ModalPrice int       `json:"modal_price"`
	Commodity  string    `json:"commodity"`
	Market     string    `json:"market"`
	State      string    `json:"state"`
	SourceTag  string    `json:"source_tag"`
}

// Normalize restores MinPrice <= ModalPrice <= MaxPrice for records coming
// from sources that occasionally publish swapped or zero bounds.
func (p *PriceRecord) Normalize() {
	if p.MinPrice > p.MaxPrice {
		p.MinPrice, p.MaxPrice = p.MaxPrice, p.MinPrice
	}
	if p.ModalPrice <= 0 {
		p.ModalPrice = (p.MinPrice + p.MaxPrice) / 2
	}
	if p.MinPrice <= 0 || p.MinPrice > p.ModalPrice {
		p.MinPrice = p.ModalPrice
	}
	if p.MaxPrice < p.ModalPrice {
		p.MaxPrice = p.ModalPrice
	}
}

// Prediction is one day of a forecast.
type Prediction struct {
	Date           time.Time         `json:"date"`
	PredictedPrice int               `json:"predicted_price"`
	Confidence     float64           `json:"confidence"`
	Factors        PredictionFactors `json:"factors"`
}

// PredictionFactors exposes the components that produced a prediction.
type PredictionFactors struct {
	Trend      float64 `json:"trend"`
	Seasonal   float64 `json:"seasonal"`
	Volatility float64 `json:"volatility"`
	TimeDecay  float64 `json:"time_decay"`
}
