// Package registry holds the static format capability map: which engines can
// read and write which formats, and in what priority order.
package registry

import (
	"github.com/swiftconvert/backend/internal/models"
)

// Pair is a directed (input, output) format pair.
type Pair struct {
	In  models.Format
	Out models.Format
}

// Registry is an immutable capability map built once at startup and injected
// into the Dispatcher. Chains are ordered cheapest engine first: the native
// in-process writers, then pandoc, then LibreOffice, which is materially
// slower and heavier than both.
type Registry struct {
	chains map[Pair][]models.EngineID
}

// Chain returns the priority-ordered engine chain for a conversion, or nil
// when no path exists.
func (r *Registry) Chain(in, out models.Format) []models.EngineID {
	chain, ok := r.chains[Pair{In: in, Out: out}]
	if !ok {
		return nil
	}
	// Copy so callers cannot mutate the registry.
	out2 := make([]models.EngineID, len(chain))
	copy(out2, chain)
	return out2
}

// Supports reports whether any engine path exists for the pair.
func (r *Registry) Supports(in, out models.Format) bool {
	return len(r.chains[Pair{In: in, Out: out}]) > 0
}

// Pairs enumerates every supported conversion pair. Order is unspecified.
func (r *Registry) Pairs() []Pair {
	pairs := make([]Pair, 0, len(r.chains))
	for p := range r.chains {
		pairs = append(pairs, p)
	}
	return pairs
}

// Targets returns the output formats reachable from a given input format.
func (r *Registry) Targets(in models.Format) []models.Format {
	var targets []models.Format
	for p := range r.chains {
		if p.In == in {
			targets = append(targets, p.Out)
		}
	}
	return targets
}

// New builds a registry from an explicit chain map. Used by tests to
// substitute fake capability tables.
func New(chains map[Pair][]models.EngineID) *Registry {
	copied := make(map[Pair][]models.EngineID, len(chains))
	for p, chain := range chains {
		c := make([]models.EngineID, len(chain))
		copy(c, chain)
		copied[p] = c
	}
	return &Registry{chains: copied}
}

// Default builds the production capability table.
//
// Identical input and output formats are registered only where a re-encode is
// meaningful (image normalization); such requests run a real conversion
// rather than copying the file through unchanged.
func Default() *Registry {
	const (
		native  = models.EngineNative
		pandoc  = models.EnginePandoc
		soffice = models.EngineSoffice
	)

	chains := map[Pair][]models.EngineID{
		// Document conversions. Pandoc first, LibreOffice as the broad fallback.
		{models.FormatPDF, models.FormatDOCX}: {soffice},
		{models.FormatPDF, models.FormatTXT}:  {pandoc, soffice},
		{models.FormatDOCX, models.FormatPDF}: {pandoc, soffice},
		{models.FormatDOCX, models.FormatTXT}: {pandoc, soffice},
		{models.FormatDOCX, models.FormatMD}:  {pandoc},
		{models.FormatTXT, models.FormatPDF}:  {native, pandoc, soffice},
		{models.FormatTXT, models.FormatDOCX}: {pandoc, soffice},
		{models.FormatMD, models.FormatPDF}:   {native, pandoc},
		{models.FormatMD, models.FormatDOCX}:  {pandoc},
		{models.FormatMD, models.FormatHTML}:  {pandoc},
		{models.FormatHTML, models.FormatPDF}: {pandoc, soffice},
		{models.FormatHTML, models.FormatDOCX}: {pandoc, soffice},
		{models.FormatHTML, models.FormatTXT}: {pandoc},

		// Spreadsheets. LibreOffice only; pandoc has no xlsx reader or writer.
		{models.FormatCSV, models.FormatXLSX}: {soffice},
		{models.FormatXLSX, models.FormatCSV}: {soffice},
		{models.FormatCSV, models.FormatPDF}:  {soffice},
		{models.FormatXLSX, models.FormatPDF}: {soffice},

		// Images.
		{models.FormatJPG, models.FormatPDF}:  {native},
		{models.FormatJPEG, models.FormatPDF}: {native},
		{models.FormatPNG, models.FormatPDF}:  {native},
		{models.FormatJPG, models.FormatPNG}:  {native},
		{models.FormatJPEG, models.FormatPNG}: {native},
		{models.FormatPNG, models.FormatJPG}:  {native},
		{models.FormatPNG, models.FormatJPEG}: {native},
		{models.FormatJPG, models.FormatJPEG}: {native},
		{models.FormatJPEG, models.FormatJPG}: {native},
		{models.FormatPNG, models.FormatPNG}:  {native},
	}

	return New(chains)
}
