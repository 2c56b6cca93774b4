package ats

import (
	"context"
	"errors"
	"fmt"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
	"github.com/Moniqchege/resume-builder/internal/shared/telemetry"
)

// extractKeywords asks the reasoner for categorized keywords. Malformed
// output degrades to an empty set; the pipeline then falls back to the
// baseline keyword score. Hard failures abort the stage.
func (s *Service) extractKeywords(ctx context.Context, jobDescription string) (reasoner.KeywordSet, error) {
	set, err := s.Reasoner.ExtractKeywords(ctx, jobDescription)
	if err != nil {
		if errors.Is(err, reasoner.ErrMalformed) {
			telemetry.Warn("keywords.degraded", map[string]any{"reason": err.Error()})
			return reasoner.KeywordSet{}, nil
		}
		return reasoner.KeywordSet{}, fmt.Errorf("extract keywords: %w", err)
	}
	return set, nil
}
