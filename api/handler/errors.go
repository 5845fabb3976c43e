package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placerank/models"
)

// errorBody is the failure payload shared by all endpoints.
type errorBody struct {
	Success bool                `json:"success"`
	Error   *models.ErrorDetail `json:"error"`
	Timing  models.TimingInfo   `json:"timing"`
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr := models.AsScrapeError(err)
	c.JSON(mapErrorToStatus(scrapeErr), errorBody{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// respondInvalid writes a 400 for a request that failed binding.
func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: err.Error(),
		},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation,
		models.ErrCodeExtractFailure,
		models.ErrCodeExtractAuthFailure,
		models.ErrCodeExtractRateLimited:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
