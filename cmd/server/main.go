package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/swiftconvert/backend/internal/analytics"
	"github.com/swiftconvert/backend/internal/api"
	"github.com/swiftconvert/backend/internal/config"
	"github.com/swiftconvert/backend/internal/dispatch"
	"github.com/swiftconvert/backend/internal/engine"
	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/insight"
	"github.com/swiftconvert/backend/internal/ocr"
	"github.com/swiftconvert/backend/internal/registry"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Optional .env for local development; ignore if absent
	_ = godotenv.Load()

	configPath := "swiftconvert.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	store, err := filestore.New(cfg.Storage.UploadDirectory, cfg.Storage.OutputDirectory)
	if err != nil {
		fmt.Printf("Failed to initialize file store: %v\n", err)
		os.Exit(1)
	}

	// Background retention sweep
	go func() {
		interval := time.Duration(cfg.Storage.SweepMinutes) * time.Minute
		if interval <= 0 {
			interval = 30 * time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if n := store.Sweep(filestore.RetentionHorizon); n > 0 {
				fmt.Printf("Retention sweep removed %d expired files\n", n)
			}
		}
	}()

	recorder, err := analytics.NewRecorder(cfg.Analytics.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to initialize analytics: %v\n", err)
		os.Exit(1)
	}
	defer recorder.Close()

	pandoc := &engine.Pandoc{Binary: cfg.Engines.PandocBinary, PDFEngine: cfg.Engines.PandocPDF}
	soffice := &engine.Soffice{Binary: cfg.Engines.SofficeBinary}
	if !soffice.Available() {
		fmt.Println("Warning: soffice not found on PATH; LibreOffice fallback disabled")
	}
	engines := []engine.Engine{&engine.Native{}, pandoc, soffice}

	reg := registry.Default()
	dispatcher := dispatch.New(reg, engines, store, recorder, dispatch.Config{
		MaxConcurrent: cfg.Processing.MaxConcurrentConversions,
		EngineTimeout: time.Duration(cfg.Engines.TimeoutSeconds) * time.Second,
	})

	tesseract := &ocr.Tesseract{Binary: cfg.OCR.TesseractBinary, Lang: cfg.OCR.Language}
	if !tesseract.Available() {
		fmt.Println("Warning: tesseract not found on PATH; OCR routes will fail")
	}

	translator := insight.NewHTTPTranslator()
	if translator == nil {
		fmt.Println("Translation endpoint not configured; /api/translate disabled")
	}
	classifier := insight.NewClassifier()

	pipeline := &ocr.Pipeline{
		Extractor:     tesseract,
		Translator:    translatorOrNil(translator),
		Classifier:    classifier,
		Converter:     dispatcher,
		Store:         store,
		TextEngine:    pandoc,
		MaxConcurrent: cfg.OCR.MaxConcurrent,
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Converter:     dispatcher,
		Pipeline:      pipeline,
		Store:         store,
		Registry:      reg,
		Analytics:     recorder,
		Classifier:    classifier,
		Translator:    translatorOrNil(translator),
		RateLimiter:   api.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		MaxUploadSize: cfg.Storage.MaxUploadSize,
		Version:       Version,
	})

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health" || c.Request().URL.Path == "/api/health"
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))
	e.Use(middleware.BodyLimit(cfg.Storage.MaxUploadSize))
	e.Use(middleware.Gzip())

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.RegisterRoutes(e, handlers)

	addr := cfg.GetServerAddr()
	fmt.Printf("SwiftConvert backend %s (built %s) listening on %s\n", Version, BuildTime, addr)
	if err := e.Start(addr); err != nil {
		fmt.Printf("Server stopped: %v\n", err)
		os.Exit(1)
	}
}

// translatorOrNil keeps the nil check in one place: a typed nil pointer must
// not leak into the insight.Translator interface.
func translatorOrNil(t *insight.HTTPTranslator) insight.Translator {
	if t == nil {
		return nil
	}
	return t
}
