package catalog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"
)

// Refresher periodically reloads the catalog in the background. At most one
// refresh runs at a time; foreground reads keep serving cached snapshots
// while it does. After refreshes that end entirely on fallback data the
// interval grows exponentially up to the configured maximum.
type Refresher struct {
	catalog    *Catalog
	interval   time.Duration
	maxBackoff time.Duration

	updating atomic.Bool
	trigger  chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// NewRefresher creates a stopped Refresher.
func NewRefresher(c *Catalog, interval, maxBackoff time.Duration) *Refresher {
	if maxBackoff < interval {
		maxBackoff = interval
	}
	return &Refresher{
		catalog:    c,
		interval:   interval,
		maxBackoff: maxBackoff,
		trigger:    make(chan struct{}, 1),
	}
}

// Start launches the refresh loop. It is a no-op when the interval is not
// positive or the loop is already running.
func (r *Refresher) Start(ctx context.Context) {
	if r.interval <= 0 {
		slog.Info("catalog refresher disabled")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Go(func() { r.loop(ctx) })
	slog.Info("catalog refresher started", "interval", r.interval, "max_backoff", r.maxBackoff)
}

// Stop cancels the loop and waits for in-flight refreshes to return.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	if cancel != nil {
		slog.Info("catalog refresher stopped")
	}
}

// Trigger requests an immediate refresh. The running loop picks it up;
// without a loop the refresh runs on its own goroutine. It returns false
// when a refresh is already running or pending.
func (r *Refresher) Trigger() bool {
	if r.updating.Load() {
		return false
	}
	r.mu.Lock()
	running := r.cancel != nil
	r.mu.Unlock()

	if !running {
		r.wg.Go(func() { r.RunOnce(context.Background()) })
		return true
	}
	select {
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Updating reports whether a refresh is running.
func (r *Refresher) Updating() bool { return r.updating.Load() }

// RunOnce refreshes the catalog unless a refresh is already running, in
// which case it returns false immediately. allFallback reports whether
// every refreshed key ended on fallback data.
func (r *Refresher) RunOnce(ctx context.Context) (allFallback, ran bool) {
	if !r.updating.CompareAndSwap(false, true) {
		slog.Debug("catalog refresh skipped, previous refresh still running")
		return false, false
	}
	defer r.updating.Store(false)

	start := time.Now()
	refreshed, fallbacks := r.catalog.Refresh(ctx)
	pruned := r.catalog.Prune()
	slog.Info("catalog refreshed",
		"keys", refreshed,
		"fallbacks", fallbacks,
		"pruned", pruned,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return refreshed > 0 && fallbacks == refreshed, true
}

func (r *Refresher) loop(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	b.MaxInterval = r.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.1

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-r.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		next := r.interval
		if allFallback, ran := r.RunOnce(ctx); ran && allFallback {
			next = b.NextBackOff()
			if next == backoff.Stop || next > r.maxBackoff {
				next = r.maxBackoff
			}
			slog.Warn("catalog refresh fell back on every key, backing off", "next", next)
		} else if ran {
			b.Reset()
		}
		timer.Reset(next)
	}
}
