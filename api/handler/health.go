package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farmdata/catalog"
	"github.com/use-agent/farmdata/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// BrowserStats is implemented by the shared browser session. A nil value
// means page-based sources are disabled.
type BrowserStats interface {
	Stats() models.BrowserStats
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when any catalog is serving synthetic data or when the
// browser session has launched before but is no longer connected.
func Health(cat *catalog.Catalog, br BrowserStats, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.BrowserStats
		if br != nil {
			stats = br.Stats()
		}
		catalogs := cat.Status()

		status := "healthy"
		if stats.Enabled && stats.Launches > 0 && !stats.Connected {
			status = "degraded"
		}
		for _, cs := range catalogs {
			if cs.State == string(catalog.StateFallback) {
				status = "degraded"
				break
			}
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Browser:  stats,
			Catalogs: catalogs,
			Version:  Version,
		})
	}
}
