// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/analytics"
	"github.com/swiftconvert/backend/internal/models"
	"github.com/swiftconvert/backend/internal/ocr"
)

// ConvertHandler handles plain file conversion
type ConvertHandler interface {
	HandleConvert(c echo.Context) error
}

// OcrHandler handles OCR extraction and the full OCR-and-convert pipeline
type OcrHandler interface {
	HandleOcrAndConvert(c echo.Context) error
	HandleOcr(c echo.Context) error
}

// InsightHandler handles document analysis features
type InsightHandler interface {
	HandleClassifyDocument(c echo.Context) error
	HandleRecommendFormat(c echo.Context) error
	HandleQualityScore(c echo.Context) error
	HandleDetectLanguage(c echo.Context) error
	HandleTranslate(c echo.Context) error
}

// DownloadHandler streams converted artifacts
type DownloadHandler interface {
	HandleDownload(c echo.Context) error
}

// AnalyticsHandler serves usage insights
type AnalyticsHandler interface {
	HandleAnalytics(c echo.Context) error
	HandleAnalyticsExport(c echo.Context) error
}

// MetaHandler serves capability and public configuration endpoints
type MetaHandler interface {
	HandleFormats(c echo.Context) error
	HandleConfig(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// Converter runs a conversion request. Implemented by dispatch.Dispatcher;
// defined here so tests can fake it.
type Converter interface {
	Dispatch(ctx context.Context, req *models.ConversionRequest) *models.ConversionResult
}

// PipelineRunner runs the OCR pipeline. Implemented by ocr.Pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, req *models.ConversionRequest) *ocr.Result
}

// InsightsSource aggregates and exports analytics records. Implemented by
// analytics.Recorder.
type InsightsSource interface {
	Insights(ctx context.Context) (*analytics.Insights, error)
	Export(ctx context.Context, visit func(models.AnalyticsRecord) error) error
}
