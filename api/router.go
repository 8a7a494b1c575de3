package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farmdata/api/handler"
	"github.com/use-agent/farmdata/api/middleware"
	"github.com/use-agent/farmdata/catalog"
	"github.com/use-agent/farmdata/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
// br may be nil when page-based sources are disabled.
func NewRouter(cfg *config.Config, cat *catalog.Catalog, ref *catalog.Refresher, br handler.BrowserStats, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	v1 := r.Group("/api/v1")

	// Health, no auth required.
	v1.GET("/health", handler.Health(cat, br, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Schemes
	protected.GET("/schemes", handler.SearchSchemes(cat))
	protected.GET("/schemes/:id", handler.GetScheme(cat))
	protected.POST("/schemes/:id/eligibility", handler.CheckEligibility(cat))

	// Prices
	protected.GET("/prices", handler.GetPrices(cat))
	protected.GET("/prices/prediction", handler.PredictPrices(cat))

	// Admin
	protected.POST("/catalog/refresh", handler.Refresh(ref))

	return r
}
