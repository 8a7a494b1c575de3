package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/farmdata/api"
	"github.com/use-agent/farmdata/api/handler"
	"github.com/use-agent/farmdata/browser"
	"github.com/use-agent/farmdata/catalog"
	"github.com/use-agent/farmdata/config"
	"github.com/use-agent/farmdata/source"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "farmdata: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("farmdata starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
	)

	// ── 3. Shared browser session (only when a source renders pages) ─
	var (
		bm    *browser.Manager
		pages source.PageFetcher
		stats handler.BrowserStats
	)
	if cfg.NeedsBrowser() {
		bm = browser.NewManager(browser.NewRodLauncher(cfg.Browser),
			browser.WithUserAgent(cfg.Browser.UserAgent),
			browser.WithPageTimeout(cfg.Browser.PageTimeout),
			browser.WithLaunchTimeout(cfg.Browser.LaunchTimeout),
		)
		pages, stats = bm, bm
		slog.Info("browser session enabled, launching on first use")
	}

	// ── 4. Sources and catalog ──────────────────────────────────────
	reg, err := source.Build(cfg.Sources, source.Deps{
		HTTP:  source.NewHTTPClient(cfg.Browser.UserAgent),
		Pages: pages,
	})
	if err != nil {
		slog.Error("invalid source table", "error", err)
		os.Exit(1)
	}

	deps := catalog.Deps{
		Schemes: source.NewChain(reg.Schemes...),
		Prices:  source.NewChain(reg.Prices...),
	}
	if reg.Detail != nil {
		deps.Detail = reg.Detail
	}
	cat := catalog.New(cfg.Catalog, deps)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	refresher := catalog.NewRefresher(cat, cfg.Catalog.RefreshInterval, cfg.Catalog.RefreshMaxBackoff)
	refresher.Start(ctx)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(cfg, cat, refresher, stats, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	stop()
	refresher.Stop()
	if bm != nil {
		if err := bm.Release(); err != nil {
			slog.Warn("browser release failed", "error", err)
		}
	}
	slog.Info("farmdata stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
