// handlers_insight.go - Document analysis handlers
package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/insight"
	"github.com/swiftconvert/backend/internal/models"
)

// InsightHandlerImpl implements the InsightHandler interface
type InsightHandlerImpl struct {
	classifier *insight.Classifier
	translator insight.Translator
	store      *filestore.Store
}

// NewInsightHandler creates a new insight handler instance. translator may
// be nil when no translation endpoint is configured.
func NewInsightHandler(classifier *insight.Classifier, translator insight.Translator, store *filestore.Store) InsightHandler {
	return &InsightHandlerImpl{
		classifier: classifier,
		translator: translator,
		store:      store,
	}
}

type textRequest struct {
	Text string `json:"text"`
}

// HandleClassifyDocument scores text against the document category set
func (h *InsightHandlerImpl) HandleClassifyDocument(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return NewValidationError("text")
	}
	return c.JSON(http.StatusOK, h.classifier.Classify(req.Text))
}

// HandleDetectLanguage identifies the language of submitted text
func (h *InsightHandlerImpl) HandleDetectLanguage(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return NewValidationError("text")
	}
	return c.JSON(http.StatusOK, insight.DetectLanguage(req.Text))
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	SourceLanguage string `json:"source_language"`
}

type translateResponse struct {
	Translated string `json:"translated"`
	Original   string `json:"original"`
	Success    bool   `json:"success"`
}

// HandleTranslate translates text via the configured translation service
func (h *InsightHandlerImpl) HandleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return NewValidationError("text")
	}
	if req.TargetLanguage == "" {
		return NewValidationError("target_language")
	}
	if h.translator == nil {
		return NewServiceUnavailableError("translation service not configured")
	}

	translated, err := h.translator.Translate(c.Request().Context(), req.Text, req.TargetLanguage)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, translateResponse{
		Translated: translated,
		Original:   req.Text,
		Success:    true,
	})
}

// HandleRecommendFormat suggests output formats for an uploaded file
func (h *InsightHandlerImpl) HandleRecommendFormat(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}
	format, err := models.FormatFromFilename(file.Filename)
	if err != nil {
		return NewBadRequestError("unsupported input file type", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to read upload", err)
	}
	defer src.Close()

	// Staged only so the size-based heuristics can stat it.
	path, err := h.store.SaveUpload(file.Filename, src)
	if err != nil {
		return NewInternalError("failed to save upload", err)
	}
	defer h.store.DeleteNow(path)

	recs := insight.RecommendFormat(path, format, nil)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"current_format":  format,
		"recommendations": recs,
	})
}

type qualityRequest struct {
	InputFile      string `json:"input_file"`
	OutputFile     string `json:"output_file"`
	ConversionType string `json:"conversion_type"`
}

// HandleQualityScore grades a finished conversion. input_file names a staged
// upload, output_file a converted artifact.
func (h *InsightHandlerImpl) HandleQualityScore(c echo.Context) error {
	var req qualityRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.InputFile == "" {
		return NewValidationError("input_file")
	}
	if req.OutputFile == "" {
		return NewValidationError("output_file")
	}

	in, out, apiErr := parseConversionType(req.ConversionType)
	if apiErr != nil {
		return apiErr
	}

	outputPath, err := h.store.OutputPath(req.OutputFile)
	if err != nil {
		return NewBadRequestError("invalid output_file", err)
	}
	inputPath := filepath.Join(h.store.UploadDir(), filestore.SanitizeFilename(req.InputFile))

	report, err := insight.QualityScore(inputPath, outputPath, in, out)
	if err != nil {
		return NewNotFoundError("file", req.InputFile)
	}
	return c.JSON(http.StatusOK, report)
}

// parseConversionType splits "pdf_to_docx" style pair names.
func parseConversionType(s string) (models.Format, models.Format, *APIError) {
	parts := strings.Split(s, "_to_")
	if len(parts) != 2 {
		return "", "", NewValidationError("conversion_type")
	}
	in, err := models.ParseFormat(parts[0])
	if err != nil {
		return "", "", NewValidationError("conversion_type")
	}
	out, err := models.ParseFormat(parts[1])
	if err != nil {
		return "", "", NewValidationError("conversion_type")
	}
	return in, out, nil
}
