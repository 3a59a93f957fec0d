package engine

import (
	"context"
	"os/exec"
	"path/filepath"

	"github.com/swiftconvert/backend/internal/models"
)

// Soffice is the fallback engine: LibreOffice in headless mode. It reads and
// writes nearly everything but a cold start costs seconds, so the registry
// orders it after the cheaper engines.
type Soffice struct {
	// Binary is the soffice executable, default "soffice".
	Binary string
}

// sofficeFilters maps target formats to --convert-to arguments. Several
// formats need a named export filter appended after the extension.
var sofficeFilters = map[models.Format]string{
	models.FormatPDF:  "pdf",
	models.FormatDOCX: "docx:MS Word 2007 XML",
	models.FormatTXT:  "txt:Text",
	models.FormatCSV:  "csv:Text - txt - csv (StarCalc)",
	models.FormatXLSX: "xlsx:Calc MS Excel 2007 XML",
	models.FormatHTML: "html",
}

func (s *Soffice) ID() models.EngineID { return models.EngineSoffice }

func (s *Soffice) Convert(ctx context.Context, inputPath, outputDir string, in, out models.Format) (string, error) {
	filter, ok := sofficeFilters[out]
	if !ok {
		return "", &models.EngineExecutionError{
			Engine: models.EngineSoffice,
			Cause:  errNoFilter(out),
		}
	}

	binary := s.Binary
	if binary == "" {
		binary = "soffice"
	}

	err := runCommand(ctx, models.EngineSoffice, binary,
		"--headless",
		"--norestore",
		"--convert-to", filter,
		"--outdir", outputDir,
		inputPath,
	)

	// soffice names the artifact after the input basename, which here is
	// already the name the dispatcher expects.
	produced := filepath.Join(outputDir, outputName(inputPath, out))

	if err != nil {
		cleanupPartial(produced)
		return "", err
	}
	if verr := verifyArtifact(models.EngineSoffice, produced); verr != nil {
		return "", verr
	}
	return produced, nil
}

type noFilterError struct{ f models.Format }

func (e noFilterError) Error() string {
	return "no LibreOffice export filter for " + string(e.f)
}

func errNoFilter(f models.Format) error { return noFilterError{f: f} }

// Available reports whether the soffice binary can be found. Used at
// startup to surface degraded conversion capability.
func (s *Soffice) Available() bool {
	binary := s.Binary
	if binary == "" {
		binary = "soffice"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}
