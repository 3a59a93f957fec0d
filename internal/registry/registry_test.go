package registry

import (
	"testing"

	"github.com/swiftconvert/backend/internal/models"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	t.Run("every advertised pair has a non-empty chain", func(t *testing.T) {
		for _, p := range r.Pairs() {
			chain := r.Chain(p.In, p.Out)
			if len(chain) == 0 {
				t.Errorf("pair %s->%s has empty chain", p.In, p.Out)
			}
		}
	})

	t.Run("unsupported pair returns nil", func(t *testing.T) {
		if chain := r.Chain(models.FormatPDF, models.FormatXLSX); chain != nil {
			t.Errorf("expected nil chain, got %v", chain)
		}
		if r.Supports(models.FormatXLSX, models.FormatDOCX) {
			t.Error("xlsx->docx should be unsupported")
		}
	})

	t.Run("cheap engine ordered before soffice", func(t *testing.T) {
		chain := r.Chain(models.FormatTXT, models.FormatPDF)
		if len(chain) < 2 {
			t.Fatalf("expected multi-engine chain, got %v", chain)
		}
		if chain[0] != models.EngineNative {
			t.Errorf("expected native first for txt->pdf, got %v", chain[0])
		}
		if chain[len(chain)-1] != models.EngineSoffice {
			t.Errorf("expected soffice last, got %v", chain[len(chain)-1])
		}
	})

	t.Run("image re-encode pairs registered", func(t *testing.T) {
		if !r.Supports(models.FormatPNG, models.FormatJPG) {
			t.Error("png->jpg should be supported")
		}
		// Same-format image normalization runs a real re-encode.
		if !r.Supports(models.FormatPNG, models.FormatPNG) {
			t.Error("png->png re-encode should be supported")
		}
	})

	t.Run("chain copies are independent", func(t *testing.T) {
		a := r.Chain(models.FormatTXT, models.FormatPDF)
		a[0] = models.EngineSoffice
		b := r.Chain(models.FormatTXT, models.FormatPDF)
		if b[0] == models.EngineSoffice {
			t.Error("mutating a returned chain leaked into the registry")
		}
	})

	t.Run("targets for csv", func(t *testing.T) {
		targets := r.Targets(models.FormatCSV)
		want := map[models.Format]bool{models.FormatXLSX: true, models.FormatPDF: true}
		if len(targets) != len(want) {
			t.Fatalf("targets = %v", targets)
		}
		for _, f := range targets {
			if !want[f] {
				t.Errorf("unexpected target %v", f)
			}
		}
	})
}
