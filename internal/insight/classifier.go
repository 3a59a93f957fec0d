// Package insight holds the document analysis features layered on top of
// conversion: classification, language detection, format recommendation,
// quality scoring, and the translation client.
package insight

import (
	"math"
	"sort"
	"strings"
)

// Classification is the result of scoring a document against the category set.
type Classification struct {
	Category   string             `json:"category"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
	Method     string             `json:"method"`
}

// minClassifiableLen is the minimum text length worth scoring; anything
// shorter classifies as unknown.
const minClassifiableLen = 20

// lowConfidenceFloor: a best score below this falls back to "general".
const lowConfidenceFloor = 0.2

// Classifier scores text against a fixed set of document categories using
// keyword features. Scores are normalized to a probability simplex: they
// always sum to 1.0 when any keyword matched.
type Classifier struct {
	categories map[string][]string
}

// NewClassifier builds the default keyword classifier.
func NewClassifier() *Classifier {
	return &Classifier{
		categories: map[string][]string{
			"invoice":  {"invoice", "bill", "receipt", "payment", "total", "tax", "gst", "amount due"},
			"resume":   {"experience", "education", "skills", "objective", "projects", "certification"},
			"research": {"abstract", "introduction", "methodology", "results", "conclusion", "references"},
			"legal":    {"agreement", "contract", "whereas", "party", "terms", "conditions", "clause"},
			"report":   {"executive summary", "analysis", "findings", "recommendations", "appendix"},
			"letter":   {"dear", "sincerely", "regards", "yours truly", "subject", "date"},
		},
	}
}

// Categories returns the category labels in sorted order.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.categories))
	for k := range c.categories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Classify scores the text. Empty or near-empty text yields the unknown
// category with zero confidence and no scores.
func (c *Classifier) Classify(text string) Classification {
	if len(strings.TrimSpace(text)) < minClassifiableLen {
		return Classification{Category: "unknown", Confidence: 0, Scores: map[string]float64{}, Method: "keyword-based"}
	}

	lower := strings.ToLower(text)
	raw := make(map[string]int, len(c.categories))
	total := 0
	for category, keywords := range c.categories {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		raw[category] = hits
		total += hits
	}

	scores := make(map[string]float64, len(raw))
	best := ""
	bestScore := -1.0
	for category, hits := range raw {
		s := 0.0
		if total > 0 {
			s = round3(float64(hits) / float64(total))
		}
		scores[category] = s
		if s > bestScore || (s == bestScore && category < best) {
			best, bestScore = category, s
		}
	}

	if total > 0 {
		normalizeSimplex(scores, best)
	}

	confidence := scores[best]
	if confidence < lowConfidenceFloor {
		best = "general"
	}

	return Classification{
		Category:   best,
		Confidence: confidence,
		Scores:     scores,
		Method:     "keyword-based",
	}
}

// normalizeSimplex nudges the top score so rounded values still sum to
// exactly 1.0.
func normalizeSimplex(scores map[string]float64, top string) {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if diff := 1.0 - sum; math.Abs(diff) > 1e-9 {
		scores[top] = round3(scores[top] + diff)
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
