package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farmdata/catalog"
	"github.com/use-agent/farmdata/models"
	"github.com/use-agent/farmdata/search"
)

// SearchSchemes returns a handler for GET /api/v1/schemes.
//
// The listing never fails: when every source is down the curated fallback
// set is paged instead.
func SearchSchemes(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SchemeSearchRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			invalidInput(c, err)
			return
		}
		req.Defaults()

		res := cat.SearchSchemes(c.Request.Context(), search.Query{
			Text:     req.Query,
			Filters:  req.Filters(),
			Page:     req.Page,
			PageSize: req.PageSize,
		})
		c.JSON(http.StatusOK, res)
	}
}

// GetScheme returns a handler for GET /api/v1/schemes/:id.
func GetScheme(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		s, err := cat.GetSchemeDetails(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SchemeResponse{Success: true, Scheme: &s})
	}
}

// CheckEligibility returns a handler for POST /api/v1/schemes/:id/eligibility.
// The body is a FarmerProfile; an empty body checks an empty profile.
func CheckEligibility(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var profile models.FarmerProfile
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&profile); err != nil {
				invalidInput(c, err)
				return
			}
		}

		id := strings.TrimSpace(c.Param("id"))
		res, err := cat.CheckEligibility(c.Request.Context(), id, profile)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.EligibilityResponse{Success: true, Result: &res})
	}
}
