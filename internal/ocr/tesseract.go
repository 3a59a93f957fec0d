package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/swiftconvert/backend/internal/models"
)

// Extracted is the text recognized from a single page image.
type Extracted struct {
	Text       string
	Confidence float64
	WordCount  int
}

// Extractor recognizes text in a page image. Implementations must be safe
// for concurrent use; the pipeline fans pages out across goroutines.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (Extracted, error)
}

// Tesseract shells out to the tesseract binary and parses its TSV output.
type Tesseract struct {
	Binary string
	Lang   string
}

func NewTesseract() *Tesseract {
	return &Tesseract{Binary: "tesseract", Lang: "eng"}
}

// Available reports whether the binary is on PATH.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.binary())
	return err == nil
}

func (t *Tesseract) binary() string {
	if t.Binary != "" {
		return t.Binary
	}
	return "tesseract"
}

func (t *Tesseract) Extract(ctx context.Context, imagePath string) (Extracted, error) {
	args := []string{imagePath, "stdout", "tsv"}
	if t.Lang != "" {
		args = append(args, "-l", t.Lang)
	}

	cmd := exec.CommandContext(ctx, t.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Extracted{}, &models.PipelineError{
			Stage: models.StageExtracted,
			Cause: &models.EngineExecutionError{
				Engine:   "tesseract",
				ExitCode: exitCode(err),
				Stderr:   firstLine(stderr.String()),
				Cause:    err,
			},
		}
	}
	return parseTSV(stdout.String()), nil
}

func exitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// parseTSV reads tesseract's TSV rows. Word rows are level 5; rows with a
// negative conf are layout markers and carry no text.
func parseTSV(tsv string) Extracted {
	var (
		words   []string
		confSum float64
		count   int
		curLine string
		lines   []string
	)
	flushLine := func() {
		if len(words) > 0 {
			lines = append(lines, strings.Join(words, " "))
			words = words[:0]
		}
	}

	for i, row := range strings.Split(tsv, "\n") {
		if i == 0 {
			continue // header
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 12 {
			continue
		}
		level, err := strconv.Atoi(cols[0])
		if err != nil || level != 5 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		lineKey := cols[1] + ":" + cols[2] + ":" + cols[3] + ":" + cols[4]
		if lineKey != curLine {
			flushLine()
			curLine = lineKey
		}
		words = append(words, word)
		confSum += conf
		count++
	}
	flushLine()

	if count == 0 {
		return Extracted{}
	}
	return Extracted{
		Text:       strings.Join(lines, "\n"),
		Confidence: confSum / float64(count) / 100,
		WordCount:  count,
	}
}
