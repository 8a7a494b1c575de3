package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/farmdata/config"
	"github.com/ysmood/gson"
)

// RodLauncher starts a local Chromium through go-rod's launcher.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher creates a launcher for the given browser configuration.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts Chromium with automation fingerprints removed and connects to it.
func (r *RodLauncher) Launch(ctx context.Context) (Handle, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.cfg.Proxy != "" {
		l = l.Proxy(r.cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	// The browser outlives the launch context, so it is not bound to ctx.
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, err
	}
	slog.Debug("browser: connected", "controlURL", controlURL)

	return &rodHandle{
		browser:      b,
		launcher:     l,
		blockedTypes: r.cfg.BlockedResourceTypes,
	}, nil
}

type rodHandle struct {
	browser      *rod.Browser
	launcher     *launcher.Launcher
	blockedTypes []string
}

func (h *rodHandle) NewPage(ctx context.Context) (Page, error) {
	page, err := h.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	// Stealth and resource blocking must be installed before navigation.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("browser: stealth injection failed, proceeding without stealth", "error", err)
	}
	router := setupHijack(page, h.blockedTypes)

	return &rodPage{page: page, router: router}, nil
}

func (h *rodHandle) Connected() bool {
	_, err := proto.BrowserGetVersion{}.Call(h.browser)
	return err == nil
}

func (h *rodHandle) Close() error {
	err := h.browser.Close()
	h.launcher.Kill()
	h.launcher.Cleanup()
	return err
}

type rodPage struct {
	page   *rod.Page
	router *rod.HijackRouter
}

func (p *rodPage) SetHeaders(userAgent string, headers map[string]string) error {
	if err := p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      userAgent,
		AcceptLanguage: headers["Accept-Language"],
	}); err != nil {
		return err
	}
	if len(headers) == 0 {
		return nil
	}
	return proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(p.page)
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	if err := pg.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("browser: WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	return p.page.Close()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
