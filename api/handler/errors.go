package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farmdata/models"
)

// respondError maps an error to the correct HTTP status code and writes a
// structured JSON error response.
func respondError(c *gin.Context, err error) {
	var typed *models.Error
	if !errors.As(err, &typed) {
		typed = models.NewError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(typed), models.ErrorResponse{
		Success: false,
		Error:   typed.ToDetail(),
	})
}

// invalidInput writes a 400 for a request that failed binding.
func invalidInput(c *gin.Context, err error) {
	respondError(c, models.NewError(models.ErrCodeInvalidInput, err.Error(), err))
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.Error) int {
	switch e.Code {
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBrowserUnavailable:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
