package handlers

import (
	"net/http"

	"billease/internal/common"
	"billease/internal/services"

	"github.com/labstack/echo/v4"
)

// InsightsHandlers serves AI-generated business recommendations
type InsightsHandlers struct {
	insightsSvc services.InsightsService
}

// NewInsightsHandlers creates a new insights handlers instance
func NewInsightsHandlers(insightsSvc services.InsightsService) *InsightsHandlers {
	return &InsightsHandlers{insightsSvc: insightsSvc}
}

// GenerateInsights handles POST /insights. Model failures surface as errors
// rather than canned advice.
func (h *InsightsHandlers) GenerateInsights(c echo.Context) error {
	ctx := c.Request().Context()

	var req services.InsightsInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	insights, err := h.insightsSvc.GenerateInsights(ctx, &req)
	if err != nil {
		return common.SendServerError(c, "Failed to generate insights: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"insights": insights,
	})
}
