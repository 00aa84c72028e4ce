package warehouse

import "testing"

func TestPolarity(t *testing.T) {
	tests := []struct {
		text string
		sign int // 1 positive, -1 negative, 0 neutral
	}{
		{"I love this, great video!", 1},
		{"Terrible. Worst tutorial ever", -1},
		{"not good at all", -1},
		{"the cat sat on the mat", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			score := polarity(tt.text)
			if score < -1 || score > 1 {
				t.Fatalf("polarity(%q) = %v, out of range", tt.text, score)
			}
			switch {
			case tt.sign > 0 && score <= 0, tt.sign < 0 && score >= 0, tt.sign == 0 && score != 0:
				t.Errorf("polarity(%q) = %v, want sign %d", tt.text, score, tt.sign)
			}
		})
	}
}

func TestTextAnnotatorFallback(t *testing.T) {
	a := NewTextAnnotator()
	for _, text := range []string{"", "   ", "12345 !!!", "👍👍"} {
		got := a.Annotate(text)
		if got.Language != DefaultLanguage {
			t.Errorf("Annotate(%q).Language = %q, want %q", text, got.Language, DefaultLanguage)
		}
		if got.Sentiment != nil {
			t.Errorf("Annotate(%q).Sentiment = %v, want nil", text, *got.Sentiment)
		}
	}
}

func TestTextAnnotatorUnconfident(t *testing.T) {
	a := &TextAnnotator{MinConfidence: 1.01}
	got := a.Annotate("This is a really great tutorial, thank you so much for explaining everything")
	if got.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", got.Language, DefaultLanguage)
	}
	if got.Sentiment != nil {
		t.Errorf("Sentiment = %v, want nil", *got.Sentiment)
	}
}

func TestTextAnnotatorEnglish(t *testing.T) {
	a := NewTextAnnotator()
	got := a.Annotate("This is a really great tutorial, thank you so much for explaining everything so clearly and patiently")
	if got.Language != "en" {
		t.Fatalf("Language = %q, want en", got.Language)
	}
	if got.Sentiment == nil || *got.Sentiment <= 0 {
		t.Errorf("Sentiment = %v, want positive", got.Sentiment)
	}
}

func TestTextAnnotatorNeutralScoresZero(t *testing.T) {
	a := NewTextAnnotator()
	got := a.Annotate("This video explains the topic step by step and then shows the commands for the next part of the course")
	if got.Language != "en" {
		t.Fatalf("Language = %q, want en", got.Language)
	}
	if got.Sentiment == nil {
		t.Fatal("Sentiment = nil, want 0")
	}
	if *got.Sentiment != 0 {
		t.Errorf("Sentiment = %v, want 0", *got.Sentiment)
	}
}

func TestTextAnnotatorOtherLanguageScored(t *testing.T) {
	a := NewTextAnnotator()
	got := a.Annotate("Este video explica muy bien el tema y los ejemplos que usa son fáciles de seguir para todos")
	if got.Language == DefaultLanguage {
		t.Fatalf("Language = %q, want a non-English code", got.Language)
	}
	if got.Sentiment == nil {
		t.Error("Sentiment = nil, want a score for detected text")
	}
}
