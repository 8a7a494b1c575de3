package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farmdata/catalog"
	"github.com/use-agent/farmdata/models"
)

// GetPrices returns a handler for GET /api/v1/prices.
//
// Responds with the most recent records, newest first. Synthetic records
// carry the "synthetic" source tag.
func GetPrices(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PriceRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			invalidInput(c, err)
			return
		}

		prices := cat.GetMarketPrices(c.Request.Context(), req.Commodity, req.State, req.Market)
		c.JSON(http.StatusOK, models.PricesResponse{
			Success:   true,
			Commodity: req.Commodity,
			State:     req.State,
			Market:    req.Market,
			Prices:    prices,
		})
	}
}

// PredictPrices returns a handler for GET /api/v1/prices/prediction.
func PredictPrices(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PriceRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			invalidInput(c, err)
			return
		}
		req.Defaults()

		preds := cat.GeneratePricePrediction(c.Request.Context(), req.Commodity, req.State, req.Market, req.Days)
		c.JSON(http.StatusOK, models.PredictionResponse{
			Success:     true,
			Commodity:   req.Commodity,
			Days:        len(preds),
			Predictions: preds,
		})
	}
}
