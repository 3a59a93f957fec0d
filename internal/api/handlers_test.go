package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/insight"
	"github.com/swiftconvert/backend/internal/models"
	"github.com/swiftconvert/backend/internal/ocr"
	"github.com/swiftconvert/backend/internal/registry"
)

type fakeConverter struct {
	fail     bool
	lastReq  *models.ConversionRequest
	outputIn string
}

func (f *fakeConverter) Dispatch(ctx context.Context, req *models.ConversionRequest) *models.ConversionResult {
	f.lastReq = req
	os.Remove(req.InputPath)
	if f.fail {
		err := &models.AllEnginesFailedError{Attempted: []models.EngineID{models.EnginePandoc}}
		return &models.ConversionResult{Success: false, Err: err, ErrorKind: models.ErrKindAllEnginesFailed}
	}
	out := filepath.Join(f.outputIn, "result"+req.OutputFormat.Ext())
	os.WriteFile(out, []byte("artifact"), 0o644)
	return &models.ConversionResult{Success: true, OutputPath: out, EngineUsed: models.EnginePandoc, TimingMs: 12}
}

type fakePipeline struct {
	result  *ocr.Result
	lastReq *models.ConversionRequest
}

func (f *fakePipeline) Run(ctx context.Context, req *models.ConversionRequest) *ocr.Result {
	f.lastReq = req
	os.Remove(req.InputPath)
	return f.result
}

func newTestEnv(t *testing.T) (*echo.Echo, *filestore.Store, *fakeConverter) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler

	store, err := filestore.New(filepath.Join(t.TempDir(), "up"), filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	return e, store, &fakeConverter{outputIn: store.OutputDir()}
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func testRegistry() *registry.Registry {
	return registry.New(map[registry.Pair][]models.EngineID{
		{In: models.FormatTXT, Out: models.FormatPDF}: {models.EnginePandoc},
		{In: models.FormatMD, Out: models.FormatHTML}: {models.EnginePandoc},
	})
}

func TestHandleConvert(t *testing.T) {
	e, store, conv := newTestEnv(t)
	h := NewConvertHandler(conv, store, testRegistry())

	body, contentType := multipartUpload(t, "notes.txt", "hello world", map[string]string{"toFormat": "pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleConvert(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)
		assert.Contains(t, rec.Body.String(), `"downloadUrl":"/api/download/result.pdf"`)
		assert.Contains(t, rec.Body.String(), `"engineUsed":"pandoc"`)
	}
	assert.Equal(t, models.FormatTXT, conv.lastReq.InputFormat)
	assert.Equal(t, models.FormatPDF, conv.lastReq.OutputFormat)
}

func TestHandleConvertUnsupportedPair(t *testing.T) {
	e, store, conv := newTestEnv(t)
	h := NewConvertHandler(conv, store, testRegistry())

	body, contentType := multipartUpload(t, "notes.txt", "hello", map[string]string{"toFormat": "xlsx"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleConvert(c)
	if assert.Error(t, err) {
		apiErr, ok := err.(*APIError)
		if assert.True(t, ok) {
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, "UNSUPPORTED_CONVERSION", apiErr.Code)
		}
	}
	// no engine ran, nothing was staged
	assert.Nil(t, conv.lastReq)
	entries, _ := os.ReadDir(store.UploadDir())
	assert.Empty(t, entries)
}

func TestHandleConvertRejectsUnknownExtension(t *testing.T) {
	e, store, conv := newTestEnv(t)
	h := NewConvertHandler(conv, store, testRegistry())

	body, contentType := multipartUpload(t, "malware.exe", "MZ", map[string]string{"toFormat": "pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleConvert(c)
	if assert.Error(t, err) {
		apiErr := err.(*APIError)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	}
	assert.Nil(t, conv.lastReq)
}

func TestHandleConvertEngineFailure(t *testing.T) {
	e, store, conv := newTestEnv(t)
	conv.fail = true
	h := NewConvertHandler(conv, store, testRegistry())

	body, contentType := multipartUpload(t, "notes.txt", "hello", map[string]string{"toFormat": "pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleConvert(c)
	if assert.Error(t, err) {
		apiErr := err.(*APIError)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, "CONVERSION_FAILED", apiErr.Code)
		// engine stderr must not leak
		assert.NotContains(t, apiErr.Message, "stderr")
		assert.Empty(t, apiErr.Details)
	}
}

func TestHandleOcrAndConvert(t *testing.T) {
	e, store, _ := newTestEnv(t)
	pipe := &fakePipeline{result: &ocr.Result{
		Stage:          models.StageDone,
		OutputFilename: "scan.pdf",
		Text:           "recognized",
		Confidence:     0.93,
		WordCount:      1,
		Classification: insight.Classification{Category: "general"},
	}}
	h := NewOcrHandler(pipe, store)

	body, contentType := multipartUpload(t, "scan.png", "fakepng", map[string]string{"toFormat": "pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr-and-convert", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleOcrAndConvert(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"confidence":0.93`)
		assert.Contains(t, rec.Body.String(), `"downloadUrl":"/api/download/scan.pdf"`)
		assert.Contains(t, rec.Body.String(), `"classification":{"category":"general"`)
	}
}

func TestHandleOcrAndConvertFormOptions(t *testing.T) {
	e, store, _ := newTestEnv(t)

	tests := []struct {
		name   string
		fields map[string]string
		want   models.ConversionOptions
	}{
		{"targetLang", map[string]string{
			"toFormat": "pdf", "translate": "true", "targetLang": "de", "highQuality": "true", "dpi": "300",
		}, models.ConversionOptions{Translate: true, TargetLang: "de", HighQuality: true, DPI: 300}},
		{"targetLanguage alias", map[string]string{
			"toFormat": "pdf", "translate": "true", "targetLanguage": "ja",
		}, models.ConversionOptions{Translate: true, TargetLang: "ja"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipe := &fakePipeline{result: &ocr.Result{Stage: models.StageDone, OutputFilename: "scan.pdf"}}
			h := NewOcrHandler(pipe, store)

			body, contentType := multipartUpload(t, "scan.png", "fakepng", tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/ocr-and-convert", body)
			req.Header.Set(echo.HeaderContentType, contentType)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if assert.NoError(t, h.HandleOcrAndConvert(c)) {
				assert.Equal(t, tt.want, pipe.lastReq.Options)
			}
		})
	}
}

func TestHandleOcrAndConvertTranslationFailure(t *testing.T) {
	e, store, _ := newTestEnv(t)
	pipe := &fakePipeline{result: &ocr.Result{
		Stage:           models.StageDone,
		OutputFilename:  "scan.pdf",
		Translated:      false,
		TranslationNote: "translation failed, original text kept",
	}}
	h := NewOcrHandler(pipe, store)

	body, contentType := multipartUpload(t, "scan.png", "fakepng", map[string]string{
		"toFormat": "pdf", "translate": "true", "targetLang": "fr",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr-and-convert", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleOcrAndConvert(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)
		assert.Contains(t, rec.Body.String(), `"translation":{"success":false`)
	}
}

func TestHandleOcrRejectsUnknownEngine(t *testing.T) {
	e, store, _ := newTestEnv(t)
	pipe := &fakePipeline{result: &ocr.Result{Stage: models.StageDone}}
	h := NewOcrHandler(pipe, store)

	body, contentType := multipartUpload(t, "scan.png", "fakepng", map[string]string{"engine": "cuneiform"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleOcr(c)
	if assert.Error(t, err) {
		apiErr := err.(*APIError)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	}
	assert.Nil(t, pipe.lastReq)
}

func TestHandleClassifyDocument(t *testing.T) {
	e, store, _ := newTestEnv(t)
	h := NewInsightHandler(insight.NewClassifier(), nil, store)

	body := bytes.NewBufferString(`{"text":"Invoice with amount due, payment, receipt, total and tax lines."}`)
	req := httptest.NewRequest(http.MethodPost, "/api/classify-document", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleClassifyDocument(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"category":"invoice"`)
	}
}

func TestHandleTranslateUnconfigured(t *testing.T) {
	e, store, _ := newTestEnv(t)
	h := NewInsightHandler(insight.NewClassifier(), nil, store)

	body := bytes.NewBufferString(`{"text":"hello","target_language":"fr"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/translate", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleTranslate(c)
	if assert.Error(t, err) {
		apiErr := err.(*APIError)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	}
}

func TestHandleFormats(t *testing.T) {
	e, _, _ := newTestEnv(t)
	h := NewMetaHandler(testRegistry(), "50M")

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleFormats(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"txt":["pdf"]`)
	}
}

func TestHandleHealth(t *testing.T) {
	e, _, _ := newTestEnv(t)
	h := NewHealthHandler("1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
	}
}
