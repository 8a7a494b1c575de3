package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/farmdata/models"
)

type fakePage struct {
	closed    atomic.Bool
	userAgent string
	html      string
}

func (p *fakePage) SetHeaders(ua string, _ map[string]string) error {
	p.userAgent = ua
	return nil
}
func (p *fakePage) Navigate(ctx context.Context, _ string) error { return ctx.Err() }
func (p *fakePage) HTML(context.Context) (string, error)        { return p.html, nil }
func (p *fakePage) Close() error {
	p.closed.Store(true)
	return nil
}

type fakeHandle struct {
	mu        sync.Mutex
	connected bool
	closed    int
	pages     []*fakePage
}

func newFakeHandle() *fakeHandle { return &fakeHandle{connected: true} }

func (h *fakeHandle) NewPage(context.Context) (Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := &fakePage{html: "<html><body>ok</body></html>"}
	h.pages = append(h.pages, p)
	return p, nil
}

func (h *fakeHandle) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	h.connected = false
	return nil
}

func (h *fakeHandle) disconnect() {
	h.mu.Lock()
	h.connected = false
	h.mu.Unlock()
}

func (h *fakeHandle) lastPage() *fakePage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pages[len(h.pages)-1]
}

// countingLauncher blocks every launch until release is closed.
type countingLauncher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	handles []*fakeHandle
	mu      sync.Mutex
	err     error
}

func newCountingLauncher() *countingLauncher {
	return &countingLauncher{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (l *countingLauncher) Launch(context.Context) (Handle, error) {
	l.calls.Add(1)
	l.started <- struct{}{}
	<-l.release
	if l.err != nil {
		return nil, l.err
	}
	h := newFakeHandle()
	l.mu.Lock()
	l.handles = append(l.handles, h)
	l.mu.Unlock()
	return h, nil
}

func TestAcquire_ConcurrentCallersLaunchOnce(t *testing.T) {
	l := newCountingLauncher()
	m := NewManager(l)

	const callers = 5
	var wg sync.WaitGroup
	handles := make([]Handle, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = m.Acquire(context.Background())
		}(i)
	}

	<-l.started
	time.Sleep(50 * time.Millisecond) // let the other callers join the in-flight launch
	close(l.release)
	wg.Wait()

	if got := l.calls.Load(); got != 1 {
		t.Fatalf("launcher called %d times, want 1", got)
	}
	for i := range handles {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Errorf("caller %d observed a different handle", i)
		}
	}
}

func TestAcquire_ReusesAndRelaunchesAfterDisconnect(t *testing.T) {
	l := newCountingLauncher()
	close(l.release)
	m := NewManager(l)

	h1, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h2, _ := m.Acquire(context.Background())
	if h1 != h2 {
		t.Fatal("connected handle should be reused")
	}

	h1.(*fakeHandle).disconnect()
	h3, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after disconnect: %v", err)
	}
	if h3 == h1 {
		t.Error("disconnected handle should be replaced")
	}
	if got := l.calls.Load(); got != 2 {
		t.Errorf("launcher called %d times, want 2", got)
	}
	if m.Stats().Launches != 2 {
		t.Errorf("Stats().Launches = %d, want 2", m.Stats().Launches)
	}
}

func TestAcquire_LaunchFailureIsBrowserUnavailable(t *testing.T) {
	l := newCountingLauncher()
	l.err = errors.New("chromium not found")
	close(l.release)
	m := NewManager(l)

	_, err := m.Acquire(context.Background())
	if !models.IsCode(err, models.ErrCodeBrowserUnavailable) {
		t.Fatalf("error = %v, want %s", err, models.ErrCodeBrowserUnavailable)
	}
}

func TestWithPage_AlwaysClosesPage(t *testing.T) {
	h := newFakeHandle()
	m := NewManager(LauncherFunc(func(context.Context) (Handle, error) { return h, nil }),
		WithUserAgent("test-agent"),
		WithPageTimeout(50*time.Millisecond),
	)

	tests := []struct {
		name     string
		fn       func(ctx context.Context, p Page) error
		wantCode string
	}{
		{"success", func(context.Context, Page) error { return nil }, ""},
		{"failure", func(context.Context, Page) error { return errors.New("selector missing") }, models.ErrCodeScrape},
		{"timeout", func(ctx context.Context, _ Page) error {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return nil
		}, models.ErrCodeTimeout},
		{"hang", func(context.Context, Page) error {
			time.Sleep(time.Second)
			return nil
		}, models.ErrCodeTimeout},
		{"panic", func(context.Context, Page) error { panic("boom") }, models.ErrCodeScrape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.WithPage(context.Background(), tt.fn)
			if tt.wantCode == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantCode != "" && !models.IsCode(err, tt.wantCode) {
				t.Fatalf("error = %v, want code %s", err, tt.wantCode)
			}
			p := h.lastPage()
			if !p.closed.Load() {
				t.Error("page was not closed")
			}
			if p.userAgent != "test-agent" {
				t.Errorf("user agent = %q, want test-agent", p.userAgent)
			}
		})
	}

	if h.closed != 0 {
		t.Errorf("shared handle closed %d times after page failures, want 0", h.closed)
	}
	if m.Stats().ActivePages != 0 {
		t.Errorf("ActivePages = %d, want 0", m.Stats().ActivePages)
	}
}

func TestWithPage_DropsDisconnectedHandle(t *testing.T) {
	var launches atomic.Int32
	var first *fakeHandle
	m := NewManager(LauncherFunc(func(context.Context) (Handle, error) {
		launches.Add(1)
		h := newFakeHandle()
		if first == nil {
			first = h
		}
		return h, nil
	}))

	err := m.WithPage(context.Background(), func(context.Context, Page) error {
		first.disconnect()
		return errors.New("target closed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if first.closed != 1 {
		t.Errorf("disconnected handle closed %d times, want 1", first.closed)
	}

	html, err := m.FetchHTML(context.Background(), "https://example.org")
	if err != nil {
		t.Fatalf("FetchHTML: %v", err)
	}
	if html == "" {
		t.Error("FetchHTML returned empty html")
	}
	if launches.Load() != 2 {
		t.Errorf("launches = %d, want 2", launches.Load())
	}
}

func TestRelease_Idempotent(t *testing.T) {
	h := newFakeHandle()
	m := NewManager(LauncherFunc(func(context.Context) (Handle, error) { return h, nil }))

	if err := m.Release(); err != nil {
		t.Fatalf("Release with no session: %v", err)
	}
	if _, err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := m.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := m.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if h.closed != 1 {
		t.Errorf("handle closed %d times, want 1", h.closed)
	}
	if m.Stats().Connected {
		t.Error("Stats().Connected should be false after Release")
	}
}

func TestIsTrackerDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"www.google-analytics.com", true},
		{"googletagmanager.com", true},
		{"agmarknet.gov.in", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isTrackerDomain(tt.host); got != tt.want {
			t.Errorf("isTrackerDomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
