package insight

import (
	"os"

	"github.com/swiftconvert/backend/internal/models"
)

// QualityReport grades a finished conversion from coarse file metrics.
type QualityReport struct {
	Score          int                `json:"score"`
	Metrics        map[string]float64 `json:"metrics"`
	Recommendation string             `json:"recommendation"`
}

const (
	qualityBase        = 70
	minPlausibleOutput = 1000
)

// QualityScore estimates conversion quality on a 0-100 scale. The baseline
// reflects that most conversions succeed; size-ratio anomalies and known
// easy or lossy pairs adjust it.
func QualityScore(inputPath, outputPath string, in, out models.Format) (*QualityReport, error) {
	inInfo, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}

	inSize := float64(inInfo.Size())
	outSize := float64(outInfo.Size())
	ratio := 0.0
	if inSize > 0 {
		ratio = outSize / inSize
	}

	score := qualityBase
	switch {
	case ratio > 0.8 && ratio < 1.5:
		score += 15
	case ratio > 3:
		score -= 20
	}

	if in == models.FormatPDF && out == models.FormatDOCX {
		score += 10
	}
	if in.IsImage() && out == models.FormatPDF {
		score += 5
	}
	if outInfo.Size() < minPlausibleOutput {
		score -= 30
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return &QualityReport{
		Score: score,
		Metrics: map[string]float64{
			"input_size":  inSize,
			"output_size": outSize,
			"size_ratio":  ratio,
		},
		Recommendation: qualityVerdict(score),
	}, nil
}

func qualityVerdict(score int) string {
	switch {
	case score >= 80:
		return "Excellent conversion quality"
	case score >= 60:
		return "Good conversion quality"
	default:
		return "Conversion completed with potential quality issues"
	}
}
