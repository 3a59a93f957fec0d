// handlers_ocr.go - OCR extraction and OCR-and-convert handlers
package api

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/insight"
	"github.com/swiftconvert/backend/internal/models"
	"github.com/swiftconvert/backend/internal/ocr"
)

// OcrHandlerImpl implements the OcrHandler interface
type OcrHandlerImpl struct {
	pipeline PipelineRunner
	store    *filestore.Store
}

// NewOcrHandler creates a new OCR handler instance
func NewOcrHandler(pipeline PipelineRunner, store *filestore.Store) OcrHandler {
	return &OcrHandlerImpl{
		pipeline: pipeline,
		store:    store,
	}
}

type ocrConvertResponse struct {
	Success        bool                   `json:"success"`
	Filename       string                 `json:"filename"`
	DownloadURL    string                 `json:"downloadUrl"`
	OCR            *ocr.Result            `json:"ocr"`
	Classification insight.Classification `json:"classification"`
	Translation    *translationStatus     `json:"translation,omitempty"`
}

type translationStatus struct {
	Success    bool   `json:"success"`
	TargetLang string `json:"target_language,omitempty"`
	Note       string `json:"note,omitempty"`
}

// HandleOcrAndConvert runs the full pipeline: render, extract, optionally
// translate, classify, and convert to the requested output format.
func (h *OcrHandlerImpl) HandleOcrAndConvert(c echo.Context) error {
	req, apiErr := h.stageUpload(c, true)
	if apiErr != nil {
		return apiErr
	}

	result := h.pipeline.Run(c.Request().Context(), req)
	if result.Err != nil {
		return FromDomainError(result.Err)
	}

	resp := ocrConvertResponse{
		Success:        true,
		Filename:       result.OutputFilename,
		DownloadURL:    "/api/download/" + result.OutputFilename,
		OCR:            result,
		Classification: result.Classification,
	}
	if req.Options.Translate {
		resp.Translation = &translationStatus{
			Success:    result.Translated,
			TargetLang: req.Options.TargetLang,
			Note:       result.TranslationNote,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type ocrResponse struct {
	Text       string                 `json:"text"`
	Confidence float64                `json:"confidence"`
	WordCount  int                    `json:"word_count"`
	Language   string                 `json:"language"`
	Pages      []models.OcrPageResult `json:"per_page"`
	Category   string                 `json:"category"`
}

// HandleOcr extracts text without producing a converted artifact. The
// intermediate text file is removed before responding.
func (h *OcrHandlerImpl) HandleOcr(c echo.Context) error {
	// tesseract is the only extraction engine; an explicit request for
	// anything else is a client error, not a silent substitution.
	if eng := c.FormValue("engine"); eng != "" && eng != "tesseract" {
		return NewValidationError("engine")
	}

	req, apiErr := h.stageUpload(c, false)
	if apiErr != nil {
		return apiErr
	}
	req.OutputFormat = models.FormatTXT

	result := h.pipeline.Run(c.Request().Context(), req)
	if result.Err != nil {
		return FromDomainError(result.Err)
	}
	if result.OutputPath != "" {
		h.store.DeleteNow(result.OutputPath)
	}

	return c.JSON(http.StatusOK, ocrResponse{
		Text:       result.Text,
		Confidence: result.Confidence,
		WordCount:  result.WordCount,
		Language:   result.Language.PrimaryLanguage,
		Pages:      result.Pages,
		Category:   result.Classification.Category,
	})
}

func (h *OcrHandlerImpl) stageUpload(c echo.Context, needTarget bool) (*models.ConversionRequest, *APIError) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, NewBadRequestError("no file provided", err)
	}

	inputFormat, err := models.FormatFromFilename(file.Filename)
	if err != nil {
		return nil, NewBadRequestError("unsupported input file type", err)
	}

	var outputFormat models.Format
	if needTarget {
		outputFormat, err = models.ParseFormat(c.FormValue("toFormat"))
		if err != nil {
			return nil, NewValidationError("toFormat")
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, NewInternalError("failed to read upload", err)
	}
	defer src.Close()

	path, err := h.store.SaveUpload(filepath.Base(file.Filename), src)
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
