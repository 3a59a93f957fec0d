// handlers_meta.go - Capability and public configuration handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/models"
	"github.com/swiftconvert/backend/internal/registry"
)

// MetaHandlerImpl implements the MetaHandler interface
type MetaHandlerImpl struct {
	registry      *registry.Registry
	maxUploadSize string
}

// NewMetaHandler creates a new meta handler instance
func NewMetaHandler(reg *registry.Registry, maxUploadSize string) MetaHandler {
	return &MetaHandlerImpl{
		registry:      reg,
		maxUploadSize: maxUploadSize,
	}
}

// HandleFormats advertises known formats and the supported conversion pairs
func (h *MetaHandlerImpl) HandleFormats(c echo.Context) error {
	conversions := make(map[string][]string)
	for _, f := range models.KnownFormats {
		targets := h.registry.Targets(f)
		if len(targets) == 0 {
			continue
		}
		outs := make([]string, len(targets))
		for i, t := range targets {
			outs[i] = string(t)
		}
		conversions[string(f)] = outs
	}

	formats := make([]string, 0, len(models.KnownFormats))
	for _, f := range models.KnownFormats {
		formats = append(formats, string(f))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"formats":     formats,
		"conversions": conversions,
	})
}

// HandleConfig exposes the public client-facing configuration
func (h *MetaHandlerImpl) HandleConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"max_upload_size": h.maxUploadSize,
		"retention_hours": 24,
		"features": map[string]bool{
			"ocr":            true,
			"translation":    true,
			"classification": true,
		},
	})
}
