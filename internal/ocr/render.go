// Package ocr implements the OCR-and-convert pipeline: render pages, extract
// text, optionally translate, classify, and convert to the requested output.
package ocr

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/swiftconvert/backend/internal/models"
)

const (
	// DefaultDPI balances recognition accuracy against render time.
	DefaultDPI = 150
	// HighQualityDPI is used when the request asks for high quality.
	HighQualityDPI = 300
)

// RenderPages rasterizes the input into one PNG per page inside dir.
// Images pass through as a single "page" without re-encoding. Paths are
// returned in page order.
func RenderPages(ctx context.Context, inputPath string, format models.Format, dir string, dpi int) ([]string, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if format.IsImage() {
		return []string{inputPath}, nil
	}
	if format != models.FormatPDF {
		return nil, &models.PipelineError{
			Stage: models.StageRendered,
			Cause: fmt.Errorf("cannot rasterize %s input", format),
		}
	}
	return renderPDF(ctx, inputPath, dir, dpi)
}

func renderPDF(ctx context.Context, pdfPath, dir string, dpi int) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, &models.PipelineError{Stage: models.StageRendered, Cause: err}
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, &models.PipelineError{
			Stage: models.StageRendered,
			Cause: fmt.Errorf("document has no pages"),
		}
	}

	paths := make([]string, 0, n)
	for page := 0; page < n; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(page, float64(dpi))
		if err != nil {
			return nil, &models.PipelineError{
				Stage: models.StageRendered,
				Cause: fmt.Errorf("page %d: %w", page, err),
			}
		}
		path := filepath.Join(dir, fmt.Sprintf("page_%03d.png", page))
		f, err := os.Create(path)
		if err != nil {
			return nil, &models.PipelineError{Stage: models.StageRendered, Cause: err}
		}
		err = png.Encode(f, img)
		f.Close()
		if err != nil {
			return nil, &models.PipelineError{
				Stage: models.StageRendered,
				Cause: fmt.Errorf("page %d: %w", page, err),
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}
