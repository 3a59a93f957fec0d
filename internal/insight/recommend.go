package insight

import (
	"os"
	"sort"

	"github.com/swiftconvert/backend/internal/models"
)

// Recommendation suggests a target format for an uploaded file.
type Recommendation struct {
	Format     models.Format `json:"format"`
	Reason     string        `json:"reason"`
	Confidence float64       `json:"confidence"`
}

// ContentAnalysis carries optional signals for better recommendations.
type ContentAnalysis struct {
	HasText   bool
	Category  string
	PageCount int
}

const largeImageMB = 5
const longDocumentPages = 50

// RecommendFormat suggests output formats for a file, best first. A default
// PDF recommendation is returned when no heuristic fires.
func RecommendFormat(path string, format models.Format, analysis *ContentAnalysis) []Recommendation {
	if analysis == nil {
		analysis = &ContentAnalysis{}
	}

	var recs []Recommendation
	switch {
	case format.IsImage():
		recs = recommendForImage(path, analysis)
	case format == models.FormatPDF:
		recs = recommendForPDF(analysis)
	case format == models.FormatCSV || format == models.FormatXLSX:
		recs = []Recommendation{{
			Format:     models.FormatPDF,
			Reason:     "Spreadsheet - PDF for presentation",
			Confidence: 0.8,
		}}
	}

	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Format:     models.FormatPDF,
			Reason:     "PDF is universal and widely compatible",
			Confidence: 0.5,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Confidence > recs[j].Confidence })
	return recs
}

func recommendForImage(path string, analysis *ContentAnalysis) []Recommendation {
	var recs []Recommendation
	if info, err := os.Stat(path); err == nil {
		if float64(info.Size())/(1<<20) > largeImageMB {
			recs = append(recs, Recommendation{
				Format:     models.FormatPDF,
				Reason:     "Large image - PDF provides better compression",
				Confidence: 0.9,
			})
		}
	}
	if analysis.HasText {
		recs = append(recs, Recommendation{
			Format:     models.FormatDOCX,
			Reason:     "Image contains text - DOCX preserves editability",
			Confidence: 0.7,
		})
	}
	return recs
}

func recommendForPDF(analysis *ContentAnalysis) []Recommendation {
	var recs []Recommendation
	switch {
	case analysis.Category == "resume":
		recs = append(recs, Recommendation{
			Format:     models.FormatDOCX,
			Reason:     "Resume detected - DOCX allows easy editing",
			Confidence: 0.85,
		})
	case analysis.PageCount > longDocumentPages:
		recs = append(recs, Recommendation{
			Format:     models.FormatTXT,
			Reason:     "Large document - TXT for quick access",
			Confidence: 0.6,
		})
	}
	return recs
}
