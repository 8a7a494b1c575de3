// Package catalog serves scheme listings and commodity prices from cache,
// configured sources or the synthetic model, so reads never fail.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/use-agent/farmdata/cache"
	"github.com/use-agent/farmdata/config"
	"github.com/use-agent/farmdata/models"
	"github.com/use-agent/farmdata/source"
	"github.com/use-agent/farmdata/synth"
	"golang.org/x/sync/singleflight"
)

// State is the cache state of one catalog key.
type State string

const (
	StateEmpty      State = "empty"
	StateFresh      State = "fresh"
	StateStale      State = "stale"
	StateRefreshing State = "refreshing"
	StateFallback   State = "fallback"
)

// schemesKey is the single cache key of the scheme listing.
const schemesKey = "schemes"

// Enricher fills in the detail fields of a scheme.
type Enricher interface {
	Enrich(ctx context.Context, s models.Scheme) (models.Scheme, error)
}

// Deps are the collaborators of a Catalog. Nil chains behave as chains with
// no enabled sources.
type Deps struct {
	Schemes *source.Chain[models.Scheme]
	Prices  *source.Chain[models.PriceRecord]
	Detail  Enricher
	Model   *synth.Model
	Clock   func() time.Time
}

// Catalog is the resilient read path over the scheme and price sources.
// It is safe for concurrent use.
type Catalog struct {
	cfg     config.CatalogConfig
	schemes *source.Chain[models.Scheme]
	prices  *source.Chain[models.PriceRecord]
	detail  Enricher
	model   *synth.Model
	now     func() time.Time

	schemeCache *cache.TTL[string, models.Snapshot[models.Scheme]]
	priceCache  *cache.TTL[string, models.Snapshot[models.PriceRecord]]
	details     *expirable.LRU[string, models.Scheme]

	// flight collapses concurrent refreshes of the same key.
	flight singleflight.Group

	mu         sync.Mutex
	refreshing map[string]bool
	targets    map[string]source.Target
}

// New creates a Catalog. Zero durations in cfg fall back to the defaults of
// config.Load.
func New(cfg config.CatalogConfig, deps Deps) *Catalog {
	cfg = withDefaults(cfg)
	if deps.Schemes == nil {
		deps.Schemes = source.NewChain[models.Scheme]()
	}
	if deps.Prices == nil {
		deps.Prices = source.NewChain[models.PriceRecord]()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Model == nil {
		deps.Model = synth.New(synth.WithClock(deps.Clock))
	}

	return &Catalog{
		cfg:         cfg,
		schemes:     deps.Schemes,
		prices:      deps.Prices,
		detail:      deps.Detail,
		model:       deps.Model,
		now:         deps.Clock,
		schemeCache: cache.New[string, models.Snapshot[models.Scheme]](cfg.SchemeTTL, cache.WithClock(deps.Clock)),
		priceCache:  cache.New[string, models.Snapshot[models.PriceRecord]](cfg.PriceTTL, cache.WithClock(deps.Clock)),
		details:     expirable.NewLRU[string, models.Scheme](cfg.DetailMaxEntries, nil, cfg.DetailTTL),
		refreshing:  make(map[string]bool),
		targets:     make(map[string]source.Target),
	}
}

func withDefaults(cfg config.CatalogConfig) config.CatalogConfig {
	if cfg.SchemeTTL <= 0 {
		cfg.SchemeTTL = time.Hour
	}
	if cfg.PriceTTL <= 0 {
		cfg.PriceTTL = 30 * time.Minute
	}
	if cfg.DetailTTL <= 0 {
		cfg.DetailTTL = 24 * time.Hour
	}
	if cfg.DetailMaxEntries <= 0 {
		cfg.DetailMaxEntries = 1024
	}
	if cfg.RequestDeadline <= 0 {
		cfg.RequestDeadline = 20 * time.Second
	}
	return cfg
}

// snapshotRead describes how to load one catalog key.
type snapshotRead[T any] struct {
	key      string
	cache    *cache.TTL[string, models.Snapshot[T]]
	fetch    func(ctx context.Context) *source.Result[T]
	fallback func() models.Snapshot[T]
}

// read implements the serve-or-refresh policy for one key:
// a fresh snapshot is served as is; a stale snapshot is served while another
// refresh of the key is running; otherwise the caller waits for a refresh.
// If the caller gives up first, it gets the stale snapshot or the fallback.
func read[T any](ctx context.Context, c *Catalog, r snapshotRead[T]) models.Snapshot[T] {
	if snap, ok := r.cache.Get(r.key); ok {
		return snap
	}
	stale, _, hasStale := r.cache.Peek(r.key)
	if hasStale && c.isRefreshing(r.key) {
		slog.Debug("catalog: serving stale snapshot during refresh", "key", r.key)
		return stale
	}

	ch := c.flight.DoChan(r.key, func() (any, error) {
		return refresh(ctx, c, r), nil
	})
	select {
	case res := <-ch:
		return res.Val.(models.Snapshot[T])
	case <-ctx.Done():
		if hasStale {
			return stale
		}
		return r.fallback()
	}
}

// refresh runs the source chain for one key under the request deadline and
// stores the outcome. The chain is detached from the caller's cancellation
// so one abandoned request does not fail the refresh for everyone waiting.
func refresh[T any](ctx context.Context, c *Catalog, r snapshotRead[T]) models.Snapshot[T] {
	c.setRefreshing(r.key, true)
	defer c.setRefreshing(r.key, false)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RequestDeadline)
	defer cancel()

	start := c.now()
	var snap models.Snapshot[T]
	if res := r.fetch(ctx); res != nil {
		snap = models.Snapshot[T]{
			Items:       res.Records,
			GeneratedAt: c.now(),
			SourceUsed:  res.SourceUsed,
		}
	} else {
		snap = r.fallback()
		slog.Info("catalog: serving fallback", "key", r.key, "items", len(snap.Items))
	}
	r.cache.Set(r.key, snap)

	slog.Debug("catalog: refreshed",
		"key", r.key,
		"source", snap.SourceUsed,
		"fallback", snap.Fallback,
		"items", len(snap.Items),
		"elapsed_ms", c.now().Sub(start).Milliseconds(),
	)
	return snap
}

func (c *Catalog) isRefreshing(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing[key]
}

func (c *Catalog) setRefreshing(key string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.refreshing[key] = true
	} else {
		delete(c.refreshing, key)
	}
}

// Refresh reloads the scheme listing and every cached price key, ignoring
// freshness. It reports how many keys were refreshed and how many of them
// ended on fallback data.
func (c *Catalog) Refresh(ctx context.Context) (refreshed, fallbacks int) {
	count := func(fallback bool) {
		refreshed++
		if fallback {
			fallbacks++
		}
	}

	r := c.schemeRead()
	count(waitRefresh(ctx, c, r).Fallback)

	c.mu.Lock()
	targets := make([]source.Target, 0, len(c.targets))
	for _, t := range c.targets {
		targets = append(targets, t)
	}
	c.mu.Unlock()

	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		count(waitRefresh(ctx, c, c.priceRead(t)).Fallback)
	}
	return refreshed, fallbacks
}

// waitRefresh forces a refresh of r's key, joining one already in flight.
func waitRefresh[T any](ctx context.Context, c *Catalog, r snapshotRead[T]) models.Snapshot[T] {
	v, _, _ := c.flight.Do(r.key, func() (any, error) {
		return refresh(ctx, c, r), nil
	})
	return v.(models.Snapshot[T])
}

// Prune drops price snapshots that have not been refreshed for two TTLs,
// along with their refresh targets.
func (c *Catalog) Prune() int {
	n := c.priceCache.Prune(2 * c.cfg.PriceTTL)
	if n == 0 {
		return 0
	}
	live := make(map[string]struct{})
	for _, k := range c.priceCache.Keys() {
		live[k] = struct{}{}
	}
	c.mu.Lock()
	for k := range c.targets {
		if _, ok := live[k]; !ok {
			delete(c.targets, k)
		}
	}
	c.mu.Unlock()
	slog.Debug("catalog: pruned price snapshots", "removed", n)
	return n
}

// Status reports the state of the scheme listing and every cached price key.
func (c *Catalog) Status() []models.CatalogStatus {
	out := []models.CatalogStatus{status(c, schemesKey, schemesKey, c.schemeCache)}
	for _, k := range c.priceCache.Keys() {
		out = append(out, status(c, "prices:"+k, k, c.priceCache))
	}
	return out
}

func status[T any](c *Catalog, label, key string, tc *cache.TTL[string, models.Snapshot[T]]) models.CatalogStatus {
	st := models.CatalogStatus{Key: label, State: string(StateEmpty)}
	if snap, writtenAt, ok := tc.Peek(key); ok {
		st.SourceUsed = snap.SourceUsed
		st.UpdatedAt = writtenAt
		st.Items = len(snap.Items)
		_, fresh := tc.Get(key)
		switch {
		case !fresh:
			st.State = string(StateStale)
		case snap.Fallback:
			st.State = string(StateFallback)
		default:
			st.State = string(StateFresh)
		}
	}
	if c.isRefreshing(key) {
		st.State = string(StateRefreshing)
	}
	return st
}
