// handlers_analytics.go - Usage analytics handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/swiftconvert/backend/internal/models"
)

// AnalyticsHandlerImpl implements the AnalyticsHandler interface
type AnalyticsHandlerImpl struct {
	source InsightsSource
}

// NewAnalyticsHandler creates a new analytics handler instance
func NewAnalyticsHandler(source InsightsSource) AnalyticsHandler {
	return &AnalyticsHandlerImpl{source: source}
}

// HandleAnalytics returns the aggregated usage summary
func (h *AnalyticsHandlerImpl) HandleAnalytics(c echo.Context) error {
	insights, err := h.source.Insights(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to aggregate analytics", err)
	}
	return c.JSON(http.StatusOK, insights)
}

// HandleAnalyticsExport streams every raw record as a MessagePack sequence
func (h *AnalyticsHandlerImpl) HandleAnalyticsExport(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/x-msgpack")
	c.Response().WriteHeader(http.StatusOK)

	enc := msgpack.NewEncoder(c.Response())
	err := h.source.Export(c.Request().Context(), func(rec models.AnalyticsRecord) error {
		return enc.Encode(&rec)
	})
	if err != nil {
		// Headers are already out; the truncated stream is the signal.
		c.Logger().Errorf("analytics export aborted: %v", err)
	}
	return nil
}
