package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/swiftconvert/backend/internal/models"
)

// Pandoc is the primary document engine. It is fast but covers only the
// document formats it has readers and writers for; spreadsheet and image
// work falls through to other engines.
type Pandoc struct {
	// Binary is the pandoc executable, default "pandoc".
	Binary string
	// PDFEngine is passed as --pdf-engine for pdf output (e.g. "weasyprint"
	// or "tectonic"). Empty uses pandoc's default.
	PDFEngine string
}

// pandoc format names differ from file extensions for a few formats.
var pandocFormats = map[models.Format]string{
	models.FormatTXT:  "plain",
	models.FormatMD:   "markdown",
	models.FormatHTML: "html",
	models.FormatDOCX: "docx",
	models.FormatPDF:  "pdf",
}

// pandoc cannot read its "plain" writer format back; plain text inputs are
// parsed as markdown, which is a superset for simple prose.
var pandocReaders = map[models.Format]string{
	models.FormatTXT:  "markdown",
	models.FormatMD:   "markdown",
	models.FormatHTML: "html",
	models.FormatDOCX: "docx",
	models.FormatPDF:  "pdf",
}

func (p *Pandoc) ID() models.EngineID { return models.EnginePandoc }

func (p *Pandoc) Convert(ctx context.Context, inputPath, outputDir string, in, out models.Format) (string, error) {
	reader, ok := pandocReaders[in]
	if !ok {
		return "", &models.EngineExecutionError{
			Engine: models.EnginePandoc,
			Cause:  fmt.Errorf("pandoc has no reader for %s", in),
		}
	}
	writer, ok := pandocFormats[out]
	if !ok {
		return "", &models.EngineExecutionError{
			Engine: models.EnginePandoc,
			Cause:  fmt.Errorf("pandoc has no writer for %s", out),
		}
	}

	outPath := filepath.Join(outputDir, outputName(inputPath, out))

	args := []string{
		"-f", reader,
		"-t", writer,
		"--standalone",
		"-o", outPath,
	}
	if out == models.FormatPDF {
		// The -t flag is invalid for pdf; pandoc infers it from the output
		// extension and delegates rendering to the pdf engine.
		args = []string{"-f", reader, "--standalone", "-o", outPath}
		if p.PDFEngine != "" {
			args = append(args, "--pdf-engine", p.PDFEngine)
		}
	}
	args = append(args, inputPath)

	binary := p.Binary
	if binary == "" {
		binary = "pandoc"
	}

	if err := runCommand(ctx, models.EnginePandoc, binary, args...); err != nil {
		cleanupPartial(outPath)
		return "", err
	}
	if err := verifyArtifact(models.EnginePandoc, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}
