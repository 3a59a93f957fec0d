package insight

import (
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// LanguageGuess is one candidate language with its confidence.
type LanguageGuess struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// LanguageDetection is the full detection payload.
type LanguageDetection struct {
	PrimaryLanguage string          `json:"primary_language"`
	Confidence      float64         `json:"confidence"`
	AllLanguages    []LanguageGuess `json:"all_languages"`
}

// minDetectableLen mirrors the classifier floor: very short strings are not
// worth a guess.
const minDetectableLen = 10

// DetectLanguage identifies the text's language with confidence scores,
// ordered most likely first.
func DetectLanguage(text string) LanguageDetection {
	if len(strings.TrimSpace(text)) < minDetectableLen {
		return LanguageDetection{PrimaryLanguage: "unknown", Confidence: 0, AllLanguages: []LanguageGuess{}}
	}

	options := whatlanggo.Options{}
	info := whatlanggo.DetectWithOptions(text, options)
	primary := info.Lang.Iso6391()
	if primary == "" {
		primary = "unknown"
	}

	guesses := []LanguageGuess{{
		Language:   primary,
		Confidence: round3(info.Confidence),
	}}

	// Offer secondary candidates by re-detecting against the language
	// whitelist minus the winner; cheap and good enough for ranking.
	if primary != "unknown" {
		blacklist := whatlanggo.Options{Blacklist: map[whatlanggo.Lang]bool{info.Lang: true}}
		second := whatlanggo.DetectWithOptions(text, blacklist)
		if code := second.Lang.Iso6391(); code != "" && second.Confidence > 0 {
			guesses = append(guesses, LanguageGuess{
				Language:   code,
				Confidence: round3(second.Confidence),
			})
		}
	}

	sort.Slice(guesses, func(i, j int) bool { return guesses[i].Confidence > guesses[j].Confidence })

	return LanguageDetection{
		PrimaryLanguage: guesses[0].Language,
		Confidence:      guesses[0].Confidence,
		AllLanguages:    guesses,
	}
}
