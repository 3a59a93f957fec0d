// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/insight"
	"github.com/swiftconvert/backend/internal/registry"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Converter     Converter
	Pipeline      PipelineRunner
	Store         *filestore.Store
	Registry      *registry.Registry
	Analytics     InsightsSource
	Classifier    *insight.Classifier
	Translator    insight.Translator
	RateLimiter   *RateLimiter
	MaxUploadSize string
	Version       string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Convert   ConvertHandler
	Ocr       OcrHandler
	Insight   InsightHandler
	Download  DownloadHandler
	Analytics AnalyticsHandler
	Meta      MetaHandler

	rateLimiter *RateLimiter
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(deps.Version),
		Convert:     NewConvertHandler(deps.Converter, deps.Store, deps.Registry),
		Ocr:         NewOcrHandler(deps.Pipeline, deps.Store),
		Insight:     NewInsightHandler(deps.Classifier, deps.Translator, deps.Store),
		Download:    NewDownloadHandler(deps.Store),
		Analytics:   NewAnalyticsHandler(deps.Analytics),
		Meta:        NewMetaHandler(deps.Registry, deps.MaxUploadSize),
		rateLimiter: deps.RateLimiter,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")

	// Expensive conversion routes sit behind the per-IP rate limiter.
	convertGroup := api.Group("")
	if handlers.rateLimiter != nil {
		convertGroup.Use(handlers.rateLimiter.Middleware)
	}
	convertGroup.POST("/convert", handlers.Convert.HandleConvert)
	convertGroup.POST("/ocr-and-convert", handlers.Ocr.HandleOcrAndConvert)
	convertGroup.POST("/ocr", handlers.Ocr.HandleOcr)

	// Analysis routes
	api.POST("/classify-document", handlers.Insight.HandleClassifyDocument)
	api.POST("/recommend-format", handlers.Insight.HandleRecommendFormat)
	api.POST("/quality-score", handlers.Insight.HandleQualityScore)
	api.POST("/detect-language", handlers.Insight.HandleDetectLanguage)
	api.POST("/translate", handlers.Insight.HandleTranslate)

	// Artifact download
	api.GET("/download/:filename", handlers.Download.HandleDownload)

	// Analytics
	api.GET("/analytics", handlers.Analytics.HandleAnalytics)
	api.GET("/analytics/export", handlers.Analytics.HandleAnalyticsExport)

	// Capability and configuration
	api.GET("/formats", handlers.Meta.HandleFormats)
	api.GET("/config", handlers.Meta.HandleConfig)
	api.GET("/health", handlers.Health.HandleHealth)

	// Bare health endpoint for load balancers
	e.GET("/health", handlers.Health.HandleHealth)
}
