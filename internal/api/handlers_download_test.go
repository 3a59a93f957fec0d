package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/swiftconvert/backend/internal/analytics"
	"github.com/swiftconvert/backend/internal/models"
)

func TestHandleDownload(t *testing.T) {
	e, store, _ := newTestEnv(t)
	h := NewDownloadHandler(store)

	path := filepath.Join(store.OutputDir(), "result.pdf")
	if err := os.WriteFile(path, []byte("%PDF-artifact"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/download/result.pdf", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("filename")
	c.SetParamValues("result.pdf")

	if err := h.HandleDownload(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "%PDF-artifact" {
		t.Fatalf("body = %q", body)
	}
}

func TestHandleDownloadTraversal(t *testing.T) {
	e, store, _ := newTestEnv(t)
	h := NewDownloadHandler(store)

	for _, name := range []string{"../secret", "..%2Fsecret", "a/../../b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/download/x", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("filename")
		c.SetParamValues(name)

		err := h.HandleDownload(c)
		if err == nil {
			t.Fatalf("expected error for %q", name)
		}
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status == http.StatusOK {
			t.Fatalf("unexpected error for %q: %v", name, err)
		}
	}
}

func TestHandleDownloadMissing(t *testing.T) {
	e, store, _ := newTestEnv(t)
	h := NewDownloadHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/download/ghost.pdf", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("filename")
	c.SetParamValues("ghost.pdf")

	err := h.HandleDownload(c)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandleAnalyticsExportMsgpack(t *testing.T) {
	e, _, _ := newTestEnv(t)

	rec, err := analytics.NewRecorder(filepath.Join(t.TempDir(), "a.duckdb"))
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()
	rec.Record(models.AnalyticsRecord{
		Timestamp: time.Now(), InputFormat: "txt", OutputFormat: "pdf", Success: true, DurationMs: 42,
	})
	rec.Flush()

	h := NewAnalyticsHandler(rec)
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/export", nil)
	w := httptest.NewRecorder()
	c := e.NewContext(req, w)

	if err := h.HandleAnalyticsExport(c); err != nil {
		t.Fatal(err)
	}
	if ct := w.Header().Get(echo.HeaderContentType); ct != "application/x-msgpack" {
		t.Fatalf("content type = %q", ct)
	}

	dec := msgpack.NewDecoder(w.Body)
	var got models.AnalyticsRecord
	if err := dec.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.InputFormat != "txt" || got.DurationMs != 42 {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(1, 2)
	handler := rl.Middleware(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	allowed := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err == nil {
			allowed++
		} else if apiErr, ok := err.(*APIError); !ok || apiErr.Status != http.StatusTooManyRequests {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed = %d, want burst of 2", allowed)
	}

	// a different IP has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := handler(c); err != nil {
		t.Fatalf("fresh IP should be allowed: %v", err)
	}
}

// keep the fakes honest
var _ Converter = (*fakeConverter)(nil)
var _ PipelineRunner = (*fakePipeline)(nil)
var _ InsightsSource = (*analytics.Recorder)(nil)
