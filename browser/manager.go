// Package browser owns the single shared headless-browser session used by
// page-based sources.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/farmdata/models"
	"golang.org/x/sync/singleflight"
)

// Page is a short-lived browser tab. Pages are opened per scrape attempt and
// never shared between requests.
type Page interface {
	// SetHeaders sets the user agent and extra request headers for every
	// subsequent navigation.
	SetHeaders(userAgent string, headers map[string]string) error
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Handle is a live automation session.
type Handle interface {
	NewPage(ctx context.Context) (Page, error)
	// Connected reports whether the session still answers commands.
	Connected() bool
	Close() error
}

// Launcher creates a new Handle. It is called at most once at a time.
type Launcher interface {
	Launch(ctx context.Context) (Handle, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (Handle, error)

func (f LauncherFunc) Launch(ctx context.Context) (Handle, error) { return f(ctx) }

// acceptLanguage is sent alongside the user agent; Indian government portals
// serve English content for it.
const acceptLanguage = "en-IN,en;q=0.9,hi;q=0.8"

// Manager provides at most one live browser session, created lazily on first
// use, reused across calls and recreated after a disconnect.
// It is safe for concurrent use.
type Manager struct {
	launcher      Launcher
	userAgent     string
	pageTimeout   time.Duration
	launchTimeout time.Duration

	mu     sync.Mutex
	handle Handle

	// launch deduplicates concurrent creations: every caller that arrives
	// while a launch is in flight waits for that same launch.
	launch singleflight.Group

	launches    atomic.Int64
	activePages atomic.Int32
}

// Option configures a Manager.
type Option func(*Manager)

// WithUserAgent sets the user agent sent by every page.
func WithUserAgent(ua string) Option {
	return func(m *Manager) { m.userAgent = ua }
}

// WithPageTimeout sets the hard deadline for a WithPage callback.
func WithPageTimeout(d time.Duration) Option {
	return func(m *Manager) { m.pageTimeout = d }
}

// WithLaunchTimeout bounds how long a browser launch may take.
func WithLaunchTimeout(d time.Duration) Option {
	return func(m *Manager) { m.launchTimeout = d }
}

// NewManager creates a Manager. No browser is started until the first Acquire.
func NewManager(l Launcher, opts ...Option) *Manager {
	m := &Manager{
		launcher:      l,
		userAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		pageTimeout:   30 * time.Second,
		launchTimeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns the shared session, launching it if needed. Concurrent
// callers never cause more than one launch.
func (m *Manager) Acquire(ctx context.Context) (Handle, error) {
	if h := m.current(); h != nil {
		return h, nil
	}

	ch := m.launch.DoChan("browser", m.doLaunch)
	select {
	case <-ctx.Done():
		return nil, models.NewError(models.ErrCodeBrowserUnavailable, "gave up waiting for browser launch", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Handle), nil
	}
}

// current returns the connected handle, discarding a disconnected one.
func (m *Manager) current() Handle {
	m.mu.Lock()
	h := m.handle
	m.mu.Unlock()

	if h == nil {
		return nil
	}
	if h.Connected() {
		return h
	}
	slog.Warn("browser: session disconnected, will relaunch")
	m.discard(h)
	return nil
}

// doLaunch runs inside the singleflight group. The launch context is detached
// from any single caller so one impatient caller cannot abort a launch that
// others are waiting on.
func (m *Manager) doLaunch() (any, error) {
	if h := m.current(); h != nil {
		return h, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.launchTimeout)
	defer cancel()

	m.launches.Add(1)
	start := time.Now()
	h, err := m.launcher.Launch(ctx)
	if err != nil {
		slog.Error("browser: launch failed", "error", err)
		return nil, models.NewError(models.ErrCodeBrowserUnavailable, "failed to launch browser", err)
	}
	slog.Info("browser: session launched", "elapsed_ms", time.Since(start).Milliseconds())

	m.mu.Lock()
	m.handle = h
	m.mu.Unlock()
	return h, nil
}

// discard drops h if it is still the current handle and closes it.
func (m *Manager) discard(h Handle) {
	m.mu.Lock()
	if m.handle == h {
		m.handle = nil
	}
	m.mu.Unlock()

	if err := h.Close(); err != nil {
		slog.Debug("browser: close of discarded session failed", "error", err)
	}
}

// WithPage opens a fresh page on the shared session, runs fn under the page
// timeout and always closes the page afterwards.
//
// A failure inside fn is reported as a scrape error and leaves the session
// running unless the session itself reports that it is disconnected.
func (m *Manager) WithPage(ctx context.Context, fn func(ctx context.Context, p Page) error) error {
	h, err := m.Acquire(ctx)
	if err != nil {
		return err
	}

	page, err := h.NewPage(ctx)
	if err != nil {
		if !h.Connected() {
			m.discard(h)
		}
		return models.NewError(models.ErrCodeScrape, "failed to open page", err)
	}

	m.activePages.Add(1)
	defer func() {
		m.activePages.Add(-1)
		if cerr := page.Close(); cerr != nil {
			slog.Debug("browser: page close failed", "error", cerr)
		}
	}()

	if herr := page.SetHeaders(m.userAgent, map[string]string{"Accept-Language": acceptLanguage}); herr != nil {
		slog.Warn("browser: failed to set page headers, proceeding", "error", herr)
	}

	pageCtx, cancel := context.WithTimeout(ctx, m.pageTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("page callback panicked: %v", r)
			}
		}()
		done <- fn(pageCtx, page)
	}()

	select {
	case err = <-done:
	case <-pageCtx.Done():
		err = pageCtx.Err()
	}
	if err == nil {
		return nil
	}

	if !h.Connected() {
		m.discard(h)
	}
	return categorizeError(err, "page scrape failed")
}

// FetchHTML navigates a fresh page to url and returns the rendered HTML.
func (m *Manager) FetchHTML(ctx context.Context, url string) (string, error) {
	var html string
	err := m.WithPage(ctx, func(ctx context.Context, p Page) error {
		if err := p.Navigate(ctx, url); err != nil {
			return err
		}
		var err error
		html, err = p.HTML(ctx)
		return err
	})
	return html, err
}

// Release closes the shared session. It is idempotent and safe to call when
// no session exists.
func (m *Manager) Release() error {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()

	if h == nil {
		return nil
	}
	slog.Info("browser: releasing session")
	return h.Close()
}

// Stats returns a snapshot of the session state.
func (m *Manager) Stats() models.BrowserStats {
	m.mu.Lock()
	h := m.handle
	m.mu.Unlock()

	return models.BrowserStats{
		Enabled:     true,
		Connected:   h != nil && h.Connected(),
		Launches:    m.launches.Load(),
		ActivePages: int(m.activePages.Load()),
	}
}

// categorizeError wraps raw errors into typed errors so callers can tell
// timeouts from other scrape failures.
func categorizeError(err error, msg string) *models.Error {
	var typed *models.Error
	if errors.As(err, &typed) {
		return typed
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewError(models.ErrCodeScrape, msg, err)
	}
}
