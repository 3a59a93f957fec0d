package engine

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/swiftconvert/backend/internal/models"
)

// Native runs conversions in-process: plain text and markdown to PDF via
// gofpdf, image embedding into PDF, and raster image re-encoding. It is the
// cheapest engine and is ordered first wherever it applies, and it also
// backs the OCR pipeline's direct text-to-document step.
type Native struct{}

func (n *Native) ID() models.EngineID { return models.EngineNative }

func (n *Native) Convert(ctx context.Context, inputPath, outputDir string, in, out models.Format) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &models.EngineExecutionError{Engine: models.EngineNative, Cause: err}
	}

	outPath := filepath.Join(outputDir, outputName(inputPath, out))

	var err error
	switch {
	case (in == models.FormatTXT || in == models.FormatMD) && out == models.FormatPDF:
		err = textFileToPDF(inputPath, outPath)
	case in.IsImage() && out == models.FormatPDF:
		err = imageToPDF(inputPath, outPath, in)
	case in.IsImage() && out.IsImage():
		err = reencodeImage(inputPath, outPath, out)
	default:
		return "", &models.EngineExecutionError{
			Engine: models.EngineNative,
			Cause:  fmt.Errorf("no native writer for %s -> %s", in, out),
		}
	}

	if err != nil {
		cleanupPartial(outPath)
		return "", &models.EngineExecutionError{Engine: models.EngineNative, Cause: err}
	}
	if verr := verifyArtifact(models.EngineNative, outPath); verr != nil {
		return "", verr
	}
	return outPath, nil
}

// WriteTextPDF renders plain text into a simple paginated PDF. Exposed so
// the OCR pipeline can produce PDF output without a round-trip through a
// temp text file.
func WriteTextPDF(text, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 11)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, lineHeight := pdf.GetFontSize()
	lineHeight *= 1.5

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			pdf.Ln(lineHeight)
			continue
		}
		pdf.MultiCell(usable, lineHeight, tr(line), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning text: %w", err)
	}
	return pdf.OutputFileAndClose(outPath)
}

func textFileToPDF(inputPath, outPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading text input: %w", err)
	}
	return WriteTextPDF(string(data), outPath)
}

func imageToPDF(inputPath, outPath string, in models.Format) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding image header: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	imgType := "PNG"
	if in == models.FormatJPG || in == models.FormatJPEG {
		imgType = "JPG"
	}
	opts := gofpdf.ImageOptions{ImageType: imgType}

	// Scale to fit the page while preserving aspect ratio.
	pageW, pageH := pdf.GetPageSize()
	margin := 10.0
	maxW, maxH := pageW-2*margin, pageH-2*margin
	w, h := maxW, maxW*float64(cfg.Height)/float64(cfg.Width)
	if h > maxH {
		h = maxH
		w = maxH * float64(cfg.Width) / float64(cfg.Height)
	}

	pdf.ImageOptions(inputPath, margin, margin, w, h, false, opts, 0, "")
	return pdf.OutputFileAndClose(outPath)
}

func reencodeImage(inputPath, outPath string, out models.Format) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	o, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output image: %w", err)
	}
	defer o.Close()

	switch out {
	case models.FormatPNG:
		return png.Encode(o, img)
	case models.FormatJPG, models.FormatJPEG:
		// JPEG has no alpha channel; composite onto white first.
		return jpeg.Encode(o, flattenOnWhite(img), &jpeg.Options{Quality: 95})
	}
	return fmt.Errorf("unsupported image target: %s", out)
}

func flattenOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}
