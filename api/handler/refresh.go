package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farmdata/catalog"
)

// RefreshResponse is the response for POST /api/v1/catalog/refresh.
type RefreshResponse struct {
	Success  bool   `json:"success"`
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// Refresh returns a handler for POST /api/v1/catalog/refresh.
//
// The refresh runs in the background. If one is already running the request
// is acknowledged without starting another.
func Refresh(r *catalog.Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Trigger() {
			c.JSON(http.StatusAccepted, RefreshResponse{
				Success: true,
				Message: "refresh already in progress",
			})
			return
		}
		c.JSON(http.StatusAccepted, RefreshResponse{
			Success:  true,
			Accepted: true,
			Message:  "refresh scheduled",
		})
	}
}
