package ats

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
)

func TestNormalizeSuggestionsTruncatesToThree(t *testing.T) {
	raw := make([]reasoner.Suggestion, 5)
	for i := range raw {
		raw[i] = reasoner.Suggestion{Title: "t", Body: "b", Color: "#000000", Icon: "x"}
	}
	got := normalizeSuggestions(raw)
	if len(got) != maxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", maxSuggestions, len(got))
	}
}

func TestNormalizeSuggestionsDefaultsPalette(t *testing.T) {
	got := normalizeSuggestions([]reasoner.Suggestion{
		{Title: "a", Body: "b"},
		{Title: "c", Body: "d"},
		{Title: "e", Body: "f"},
	})
	for i, suggestion := range got {
		if suggestion.Color != suggestionPalette[i] {
			t.Fatalf("suggestion %d color = %q, want %q", i, suggestion.Color, suggestionPalette[i])
		}
		if suggestion.Icon != suggestionIcons[i] {
			t.Fatalf("suggestion %d icon = %q, want %q", i, suggestion.Icon, suggestionIcons[i])
		}
	}
}

func TestNormalizeSuggestionsKeepsProvidedStyling(t *testing.T) {
	got := normalizeSuggestions([]reasoner.Suggestion{
		{Title: "a", Body: "b", Color: "#123456", Icon: "🎯"},
	})
	if got[0].Color != "#123456" || got[0].Icon != "🎯" {
		t.Fatalf("styling overwritten: %+v", got[0])
	}
}

func TestNormalizeSuggestionsTruncatesBody(t *testing.T) {
	long := strings.Repeat("add more detail ", 20)
	got := normalizeSuggestions([]reasoner.Suggestion{{Title: "a", Body: long}})
	if n := utf8.RuneCountInString(got[0].Body); n > maxSuggestionBody {
		t.Fatalf("body too long: %d runes", n)
	}
	if !strings.HasSuffix(got[0].Body, "…") {
		t.Fatalf("truncated body should end with ellipsis: %q", got[0].Body)
	}
}

func TestNormalizeSuggestionsEmptyInput(t *testing.T) {
	got := normalizeSuggestions(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}
