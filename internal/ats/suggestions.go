package ats

import (
	"context"
	"strings"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
	"github.com/Moniqchege/resume-builder/internal/shared/telemetry"
)

const (
	maxSuggestions      = 3
	maxSuggestionBody   = 120
	defaultSuggestTitle = "Improve your resume"
)

var (
	suggestionPalette = []string{"#7B2FFF", "#00D4FF", "#FF4D6D"}
	suggestionIcons   = []string{"📌", "⚙️", "📊"}
)

// generateSuggestions is fully fail-soft: any reasoner problem yields an
// empty list and the pipeline persists without suggestions.
func (s *Service) generateSuggestions(ctx context.Context, input reasoner.SuggestInput) []reasoner.Suggestion {
	raw, err := s.Reasoner.SuggestImprovements(ctx, input)
	if err != nil {
		telemetry.Warn("suggestions.degraded", map[string]any{"reason": err.Error()})
		return []reasoner.Suggestion{}
	}
	return normalizeSuggestions(raw)
}

func normalizeSuggestions(raw []reasoner.Suggestion) []reasoner.Suggestion {
	out := make([]reasoner.Suggestion, 0, maxSuggestions)
	for _, suggestion := range raw {
		if len(out) == maxSuggestions {
			break
		}
		idx := len(out)
		if strings.TrimSpace(suggestion.Title) == "" {
			suggestion.Title = defaultSuggestTitle
		}
		if strings.TrimSpace(suggestion.Color) == "" {
			suggestion.Color = suggestionPalette[idx%len(suggestionPalette)]
		}
		if strings.TrimSpace(suggestion.Icon) == "" {
			suggestion.Icon = suggestionIcons[idx%len(suggestionIcons)]
		}
		suggestion.Body = truncateBody(suggestion.Body, maxSuggestionBody)
		out = append(out, suggestion)
	}
	return out
}

func truncateBody(body string, limit int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
