// Package synth generates plausible commodity prices and a curated scheme
// set. It backs price predictions and serves as the terminal fallback when
// no real source answers.
package synth

import (
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/use-agent/farmdata/models"
)

// Prediction horizon limits in days.
const (
	DefaultHorizon = 30
	MaxHorizon     = 90
)

// recentDays is the number of daily records RecentPrices returns.
const recentDays = 7

// minConfidence is the floor of a prediction's confidence.
const minConfidence = 0.3

// Model is the multi-factor price generator. It never fails and never
// returns an empty result. It is safe for concurrent use.
type Model struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithRand sets the random source. Tests use a fixed seed.
func WithRand(r *rand.Rand) Option {
	return func(m *Model) { m.rng = r }
}

// WithClock sets the time source used for dates and the seasonal month.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates a Model seeded from the wall clock.
func New(opts ...Option) *Model {
	seed := uint64(time.Now().UnixNano())
	m := &Model{
		rng: rand.New(rand.NewPCG(seed, seed>>17|1)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// uniform returns a value in [lo, hi).
func (m *Model) uniform(lo, hi float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo + m.rng.Float64()*(hi-lo)
}

// point is one evaluation of the price formula.
type point struct {
	price   int
	factors models.PredictionFactors
}

// priceAt evaluates the model at horizon index i.
func (m *Model) priceAt(commodity, state string, month, i int) point {
	base := float64(BasePrice(commodity))
	x := float64(i)

	trend := math.Sin(x*0.1) * trendFactor(commodity, state)
	seasonal := seasonalFactor(commodity, month) * math.Sin((x+float64(month)*30)*0.02)
	volatility := m.uniform(-0.5, 0.5) * volatilityFactor(commodity)
	decay := math.Exp(-x * 0.01)

	variation := (trend + seasonal + volatility) * decay
	return point{
		price: int(math.Round(base * (1 + variation))),
		factors: models.PredictionFactors{
			Trend:      trend,
			Seasonal:   seasonal,
			Volatility: volatility,
			TimeDecay:  decay,
		},
	}
}

// Confidence is the model's confidence in a prediction i days ahead.
func Confidence(i int) float64 {
	return math.Max(minConfidence, 1-float64(i)*0.02)
}

// ClampHorizon maps a requested horizon onto [1, MaxHorizon], defaulting
// non-positive values to DefaultHorizon.
func ClampHorizon(days int) int {
	switch {
	case days <= 0:
		return DefaultHorizon
	case days > MaxHorizon:
		return MaxHorizon
	default:
		return days
	}
}

// Predict forecasts the modal price for each of the next days. The market
// does not change the forecast.
func (m *Model) Predict(commodity, state, market string, days int) []models.Prediction {
	days = ClampHorizon(days)
	today := startOfDay(m.now())
	month := int(today.Month())

	out := make([]models.Prediction, 0, days)
	for i := 1; i <= days; i++ {
		p := m.priceAt(commodity, state, month, i)
		out = append(out, models.Prediction{
			Date:           today.AddDate(0, 0, i),
			PredictedPrice: p.price,
			Confidence:     Confidence(i),
			Factors:        p.factors,
		})
	}
	return out
}

// RecentPrices produces the last seven days of records, most recent first.
// Every record satisfies MinPrice <= ModalPrice <= MaxPrice.
func (m *Model) RecentPrices(commodity, state, market string) []models.PriceRecord {
	today := startOfDay(m.now())
	month := int(today.Month())
	base := float64(BasePrice(commodity))
	commodity = displayName(commodity)

	out := make([]models.PriceRecord, 0, recentDays)
	for i := 0; i < recentDays; i++ {
		price := m.priceAt(commodity, state, month, i).price

		low := int(math.Round(float64(price) * m.uniform(0.85, 0.92)))
		floor := int(math.Round(base * m.uniform(0.7, 0.8)))
		minPrice := min(price, max(low, floor))
		maxPrice := int(math.Round(float64(price) * m.uniform(1.08, 1.15)))

		out = append(out, models.PriceRecord{
			Date:       today.AddDate(0, 0, -i),
			MinPrice:   minPrice,
			MaxPrice:   maxPrice,
			ModalPrice: price,
			Commodity:  commodity,
			Market:     market,
			State:      state,
			SourceTag:  models.SourceTagSynthetic,
		})
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// displayName title-cases a commodity for records, e.g. "green chilli" ->
// "Green Chilli".
func displayName(commodity string) string {
	words := strings.Fields(commodity)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
