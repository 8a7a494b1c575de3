package catalog

import (
	"context"
	"strings"

	"github.com/use-agent/farmdata/models"
	"github.com/use-agent/farmdata/source"
)

func (c *Catalog) priceRead(t source.Target) snapshotRead[models.PriceRecord] {
	return snapshotRead[models.PriceRecord]{
		key:   t.Key(),
		cache: c.priceCache,
		fetch: func(ctx context.Context) *source.Result[models.PriceRecord] {
			return c.prices.Fetch(ctx, t)
		},
		fallback: func() models.Snapshot[models.PriceRecord] {
			return models.Snapshot[models.PriceRecord]{
				Items:       c.model.RecentPrices(t.Commodity, t.State, t.Market),
				GeneratedAt: c.now(),
				SourceUsed:  models.SourceTagSynthetic,
				Fallback:    true,
			}
		},
	}
}

// GetMarketPrices returns recent daily prices for a commodity, most recent
// first. It never returns an empty list: when no source answers, the
// synthetic model supplies seven days of records.
func (c *Catalog) GetMarketPrices(ctx context.Context, commodity, state, market string) []models.PriceRecord {
	t := source.Target{
		Commodity: strings.TrimSpace(commodity),
		State:     strings.TrimSpace(state),
		Market:    strings.TrimSpace(market),
	}

	c.mu.Lock()
	c.targets[t.Key()] = t
	c.mu.Unlock()

	snap := read(ctx, c, c.priceRead(t))
	out := make([]models.PriceRecord, len(snap.Items))
	copy(out, snap.Items)
	return out
}

// GeneratePricePrediction forecasts prices for the next days, clamped to
// [1, 90] with a default of 30.
func (c *Catalog) GeneratePricePrediction(_ context.Context, commodity, state, market string, days int) []models.Prediction {
	return c.model.Predict(strings.TrimSpace(commodity), strings.TrimSpace(state), strings.TrimSpace(market), days)
}
