package ocr

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swiftconvert/backend/internal/engine"
	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/insight"
	"github.com/swiftconvert/backend/internal/models"
)

// converter is satisfied by dispatch.Dispatcher.
type converter interface {
	Dispatch(ctx context.Context, req *models.ConversionRequest) *models.ConversionResult
}

// Result is the outcome of one pipeline run. Stage is StageDone on success,
// otherwise the stage that failed.
type Result struct {
	Stage           models.PipelineStage     `json:"stage"`
	OutputPath      string                   `json:"-"`
	OutputFilename  string                   `json:"output_filename,omitempty"`
	EngineUsed      models.EngineID          `json:"engine_used,omitempty"`
	Text            string                   `json:"-"`
	Confidence      float64                  `json:"confidence"`
	WordCount       int                      `json:"word_count"`
	Pages           []models.OcrPageResult   `json:"per_page"`
	Classification  insight.Classification   `json:"-"`
	Language        insight.LanguageDetection `json:"language"`
	Translated      bool                     `json:"-"`
	TranslationNote string                   `json:"-"`
	TimingMs        int64                    `json:"duration_ms"`
	Err             error                    `json:"-"`
}

// Pipeline runs OCR jobs: render, extract, optionally translate, classify,
// then hand the recognized text to the dispatcher for final conversion.
type Pipeline struct {
	Extractor     Extractor
	Translator    insight.Translator
	Classifier    *insight.Classifier
	Converter     converter
	Store         *filestore.Store
	TextEngine    engine.Engine // used directly for docx text extraction
	MaxConcurrent int
}

const defaultPageConcurrency = 4

// Run drives the pipeline for one request. The input file is deleted when
// Run returns, success or not.
func (p *Pipeline) Run(ctx context.Context, req *models.ConversionRequest) *Result {
	start := time.Now()
	res := p.run(ctx, req)
	res.TimingMs = time.Since(start).Milliseconds()
	p.Store.DeleteNow(req.InputPath)
	return res
}

func (p *Pipeline) run(ctx context.Context, req *models.ConversionRequest) *Result {
	res := &Result{Stage: models.StageReceived}
	if _, err := os.Stat(req.InputPath); err != nil {
		res.Err = &models.PipelineError{Stage: models.StageReceived, Cause: err}
		return res
	}

	pages, err := p.extract(ctx, req, res)
	if err != nil {
		res.Err = err
		return res
	}
	res.Stage = models.StageExtracted
	res.Pages = pages
	res.Text = joinPages(pages)
	res.Confidence = WeightedConfidence(pages)
	for _, pg := range pages {
		res.WordCount += pg.WordCount
	}

	text := res.Text
	if req.Options.Translate {
		text = p.translate(ctx, text, req.Options.TargetLang, res)
	}

	res.Stage = models.StageClassified
	res.Classification = p.Classifier.Classify(text)
	res.Language = insight.DetectLanguage(res.Text)

	if err := p.convert(ctx, req, text, res); err != nil {
		res.Stage = models.StageConverted
		res.Err = err
		return res
	}

	res.Stage = models.StageDone
	return res
}

// extract produces per-page OCR results in page order. Textual inputs skip
// rendering and read the text layer directly with full confidence.
func (p *Pipeline) extract(ctx context.Context, req *models.ConversionRequest, res *Result) ([]models.OcrPageResult, error) {
	switch {
	case req.InputFormat.IsTextual():
		text, err := readTextual(req.InputPath, req.InputFormat)
		if err != nil {
			return nil, &models.PipelineError{Stage: models.StageExtracted, Cause: err}
		}
		return textualPage(text), nil
	case req.InputFormat == models.FormatDOCX:
		text, err := p.extractDocx(ctx, req.InputPath)
		if err != nil {
			return nil, err
		}
		return textualPage(text), nil
	}

	dir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return nil, &models.PipelineError{Stage: models.StageRendered, Cause: err}
	}
	defer os.RemoveAll(dir)

	imgs, err := RenderPages(ctx, req.InputPath, req.InputFormat, dir, pickDPI(req.Options))
	if err != nil {
		return nil, err
	}
	res.Stage = models.StageRendered

	pages := make([]models.OcrPageResult, len(imgs))
	g, gctx := errgroup.WithContext(ctx)
	limit := p.MaxConcurrent
	if limit <= 0 {
		limit = defaultPageConcurrency
	}
	g.SetLimit(limit)
	for i, img := range imgs {
		i, img := i, img
		g.Go(func() error {
			ex, err := p.Extractor.Extract(gctx, img)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			pages[i] = models.OcrPageResult{
				PageIndex:  i,
				Confidence: ex.Confidence,
				WordCount:  ex.WordCount,
				Text:       ex.Text,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var pipeErr *models.PipelineError
		if !errors.As(err, &pipeErr) {
			err = &models.PipelineError{Stage: models.StageExtracted, Cause: err}
		}
		return nil, err
	}
	return pages, nil
}

// extractDocx recovers the text layer by converting to plain text in a temp
// directory. The converted artifact never enters the output store.
func (p *Pipeline) extractDocx(ctx context.Context, inputPath string) (string, error) {
	dir, err := os.MkdirTemp("", "ocr-docx-*")
	if err != nil {
		return "", &models.PipelineError{Stage: models.StageExtracted, Cause: err}
	}
	defer os.RemoveAll(dir)

	txtPath, err := p.TextEngine.Convert(ctx, inputPath, dir, models.FormatDOCX, models.FormatTXT)
	if err != nil {
		return "", &models.PipelineError{Stage: models.StageExtracted, Cause: err}
	}
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", &models.PipelineError{Stage: models.StageExtracted, Cause: err}
	}
	return string(data), nil
}

func (p *Pipeline) translate(ctx context.Context, text, targetLang string, res *Result) string {
	if targetLang == "" {
		targetLang = "en"
	}
	if p.Translator == nil {
		res.TranslationNote = "translation not configured"
		return text
	}
	res.Stage = models.StageTranslated
	translated, err := p.Translator.Translate(ctx, text, targetLang)
	if err != nil {
		res.TranslationNote = fmt.Sprintf("translation failed, original text kept: %v", err)
		return text
	}
	res.Translated = true
	return translated
}

// convert writes the final artifact. Plain text output is written directly;
// any other target goes through the dispatcher from an intermediate text
// file, which the dispatcher deletes on completion.
func (p *Pipeline) convert(ctx context.Context, req *models.ConversionRequest, text string, res *Result) error {
	stem := strings.TrimSuffix(filepath.Base(req.InputPath), filepath.Ext(req.InputPath))

	if req.OutputFormat == models.FormatTXT {
		out := filepath.Join(p.Store.OutputDir(), stem+".txt")
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return &models.PipelineError{Stage: models.StageConverted, Cause: err}
		}
		res.OutputPath = out
		res.OutputFilename = filepath.Base(out)
		res.EngineUsed = models.EngineOCRPipeline
		return nil
	}

	tmp := filepath.Join(p.Store.UploadDir(), stem+".txt")
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return &models.PipelineError{Stage: models.StageConverted, Cause: err}
	}
	conv := p.Converter.Dispatch(ctx, &models.ConversionRequest{
		InputPath:    tmp,
		InputFormat:  models.FormatTXT,
		OutputFormat: req.OutputFormat,
	})
	if !conv.Success {
		return &models.PipelineError{Stage: models.StageConverted, Cause: conv.Err}
	}
	res.OutputPath = conv.OutputPath
	res.OutputFilename = filepath.Base(conv.OutputPath)
	res.EngineUsed = conv.EngineUsed
	return nil
}

// WeightedConfidence aggregates page confidences weighted by word count, so
// empty pages do not drag the job score down.
func WeightedConfidence(pages []models.OcrPageResult) float64 {
	var sum, words float64
	for _, pg := range pages {
		sum += pg.Confidence * float64(pg.WordCount)
		words += float64(pg.WordCount)
	}
	if words == 0 {
		return 0
	}
	return sum / words
}

func pickDPI(opts models.ConversionOptions) int {
	switch {
	case opts.DPI > 0:
		return opts.DPI
	case opts.HighQuality:
		return HighQualityDPI
	default:
		return DefaultDPI
	}
}

func textualPage(text string) []models.OcrPageResult {
	return []models.OcrPageResult{{
		PageIndex:  0,
		Confidence: 1.0,
		WordCount:  len(strings.Fields(text)),
		Text:       text,
	}}
}

func joinPages(pages []models.OcrPageResult) string {
	parts := make([]string, 0, len(pages))
	for _, pg := range pages {
		if pg.Text != "" {
			parts = append(parts, pg.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
)

// readTextual loads a text-layer input. HTML is reduced to visible text.
func readTextual(path string, format models.Format) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if format == models.FormatHTML {
		text = scriptRe.ReplaceAllString(text, " ")
		text = tagRe.ReplaceAllString(text, " ")
		text = html.UnescapeString(text)
		text = strings.Join(strings.Fields(text), " ")
	}
	return text, nil
}
