package warehouse

import (
	"strings"
	"sync"
	"unicode"

	"github.com/RadhiFadlillah/whatlanggo"
	"github.com/jonreiter/govader"
)

// DefaultLanguage is recorded when detection fails or is not confident.
const DefaultLanguage = "en"

// Annotation holds derived comment attributes. A nil Sentiment means detection failed.
type Annotation struct {
	Language  string
	Sentiment *float64
}

// Annotator derives language and sentiment from comment text.
type Annotator interface {
	Annotate(text string) Annotation
}

// vader loads the sentiment lexicon once per process.
var vader = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// TextAnnotator detects language with whatlanggo and scores polarity with the
// VADER compound score, which lies in [-1, 1] and is 0 for neutral text.
type TextAnnotator struct {
	// MinConfidence below which detection counts as failed.
	MinConfidence float64
}

// NewTextAnnotator returns an annotator with the default confidence threshold.
func NewTextAnnotator() *TextAnnotator {
	return &TextAnnotator{MinConfidence: 0.3}
}

// Annotate scores every confidently detected text. Blank, letter-free or
// unconfident text gets DefaultLanguage and no sentiment.
func (a *TextAnnotator) Annotate(text string) Annotation {
	text = strings.TrimSpace(text)
	if text == "" || !hasLetter(text) {
		return Annotation{Language: DefaultLanguage}
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if info.Confidence < a.MinConfidence || code == "" {
		return Annotation{Language: DefaultLanguage}
	}

	score := polarity(text)
	return Annotation{Language: code, Sentiment: &score}
}

// polarity returns the compound score clamped to [-1, 1].
func polarity(text string) float64 {
	c := vader().PolarityScores(text).Compound
	return max(-1, min(1, c))
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
