package handlers

import (
	"net/http"

	"billease/internal/analytics"
	"billease/internal/common"

	"github.com/labstack/echo/v4"
)

// DashboardHandlers serves the aggregated dashboard statistics
type DashboardHandlers struct {
	analyticsSvc *analytics.AnalyticsService
}

// NewDashboardHandlers creates a new dashboard handlers instance
func NewDashboardHandlers(analyticsSvc *analytics.AnalyticsService) *DashboardHandlers {
	return &DashboardHandlers{analyticsSvc: analyticsSvc}
}

// GetDashboardStats handles GET /dashboard/stats
func (h *DashboardHandlers) GetDashboardStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.analyticsSvc.DashboardStats(ctx)
	if err != nil {
		return common.SendServerError(c, "Failed to compute dashboard stats: "+err.Error())
	}

	return c.JSON(http.StatusOK, stats)
}

// RefreshDashboardStats handles POST /dashboard/stats/refresh, bypassing the
// cache and recomputing from the store.
func (h *DashboardHandlers) RefreshDashboardStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.analyticsSvc.RefreshDashboardStats(ctx)
	if err != nil {
		return common.SendServerError(c, "Failed to refresh dashboard stats: "+err.Error())
	}

	return c.JSON(http.StatusOK, stats)
}
