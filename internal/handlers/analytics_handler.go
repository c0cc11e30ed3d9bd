package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sales-service/internal/models"
	"sales-service/internal/services"
)

// AnalyticsService computes the customer analytics payload
type AnalyticsService interface {
	GetCustomerAnalytics(ctx context.Context, rng models.AnalyticsRange) (*models.CustomerAnalytics, error)
}

// AnalyticsHandler serves the analytics endpoints
type AnalyticsHandler struct {
	service AnalyticsService
	logger  *logrus.Entry
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsService, logger *logrus.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalyticsHandler{
		service: service,
		logger:  logger.WithField("component", "analytics-handler"),
	}
}

// GetCustomerAnalytics returns order totals for a sale-date range
// @Summary Customer analytics
// @Description Distinct customers, distinct orders and average order value for orders sold between from and to, inclusive.
// @Tags Analytics
// @Produce json
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} models.CustomerAnalytics
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /customer/analytics [get]
func (h *AnalyticsHandler) GetCustomerAnalytics(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		field := "from"
		if from != "" {
			field = "to"
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "MISSING_PARAMETER",
				Message: "'from' and 'to' query params are required!",
				Field:   field,
			},
		})
		return
	}

	rng, err := services.ParseRange(from, to)
	if err != nil {
		apiErr := models.Error{Code: "INVALID_PARAMETER", Message: err.Error()}
		var inputErr *models.InputError
		if errors.As(err, &inputErr) {
			apiErr.Field = inputErr.Field
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: apiErr})
		return
	}

	analytics, err := h.service.GetCustomerAnalytics(c.Request.Context(), rng)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute customer analytics")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to compute analytics",
			},
		})
		return
	}

	c.JSON(http.StatusOK, analytics)
}
