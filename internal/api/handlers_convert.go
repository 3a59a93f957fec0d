// handlers_convert.go - File conversion handlers
package api

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/models"
	"github.com/swiftconvert/backend/internal/registry"
)

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	converter Converter
	store     *filestore.Store
	registry  *registry.Registry
}

// NewConvertHandler creates a new conversion handler instance
func NewConvertHandler(converter Converter, store *filestore.Store, reg *registry.Registry) ConvertHandler {
	return &ConvertHandlerImpl{
		converter: converter,
		store:     store,
		registry:  reg,
	}
}

type convertResponse struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
	EngineUsed  string `json:"engineUsed"`
	DurationMs  int64  `json:"durationMs"`
}

// HandleConvert accepts a multipart upload and converts it to the requested
// format. The uploaded file is validated before any engine is invoked.
func (h *ConvertHandlerImpl) HandleConvert(c echo.Context) error {
	req, apiErr := saveIncoming(c, h.store, h.registry)
	if apiErr != nil {
		return apiErr
	}

	result := h.converter.Dispatch(c.Request().Context(), req)
	if !result.Success {
		return FromDomainError(result.Err)
	}

	filename := filepath.Base(result.OutputPath)
	return c.JSON(http.StatusOK, convertResponse{
		Success:     true,
		Filename:    filename,
		DownloadURL: "/api/download/" + filename,
		EngineUsed:  string(result.EngineUsed),
		DurationMs:  result.TimingMs,
	})
}

// saveIncoming validates the multipart request and stages the upload.
func saveIncoming(c echo.Context, store *filestore.Store, reg *registry.Registry) (*models.ConversionRequest, *APIError) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, NewBadRequestError("no file provided", err)
	}

	inputFormat, err := models.FormatFromFilename(file.Filename)
	if err != nil {
		return nil, NewBadRequestError("unsupported input file type", err)
	}

	outputFormat, err := models.ParseFormat(c.FormValue("toFormat"))
	if err != nil {
		return nil, NewValidationError("toFormat")
	}

	if reg != nil && !reg.Supports(inputFormat, outputFormat) {
		return nil, &APIError{
			Status:  http.StatusBadRequest,
			Code:    "UNSUPPORTED_CONVERSION",
			Message: "this conversion is not supported",
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, NewInternalError("failed to read upload", err)
	}
	defer src.Close()

	path, err := store.SaveUpload(file.Filename, src)
	if err != nil {
		return nil, NewInternalError("failed to save upload", err)
	}

	return &models.ConversionRequest{
		InputPath:    path,
		InputFormat:  inputFormat,
		OutputFormat: outputFormat,
		Options:      parseOptions(c),
	}, nil
}

func parseOptions(c echo.Context) models.ConversionOptions {
	opts := models.ConversionOptions{
		OCR:         c.FormValue("ocr") == "true",
		HighQuality: c.FormValue("highQuality") == "true",
		Translate:   c.FormValue("translate") == "true",
		TargetLang:  firstFormValue(c, "targetLang", "targetLanguage"),
	}
	if dpi, err := strconv.Atoi(c.FormValue("dpi")); err == nil && dpi > 0 {
		opts.DPI = dpi
	}
	return opts
}

// firstFormValue returns the first non-empty value among the named form
// fields. Used where a field has a legacy alias.
func firstFormValue(c echo.Context, names ...string) string {
	for _, name := range names {
		if v := c.FormValue(name); v != "" {
			return v
		}
	}
	return ""
}
