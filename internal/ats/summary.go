package ats

import (
	"context"
	"errors"

	"github.com/Moniqchege/resume-builder/internal/resumes"
)

// SummarySource adapts the analysis repo to the read-side interface the
// resumes package consumes.
type SummarySource struct {
	Repo Repo
}

func (s SummarySource) LatestByResume(ctx context.Context, userID, resumeID string) (resumes.AnalysisSummary, bool, error) {
	analysis, err := s.Repo.LatestByResume(ctx, userID, resumeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return resumes.AnalysisSummary{}, false, nil
		}
		return resumes.AnalysisSummary{}, false, err
	}
	return toSummary(analysis), true, nil
}

func (s SummarySource) RecentByResume(ctx context.Context, userID, resumeID string, limit int) ([]resumes.AnalysisSummary, error) {
	recent, err := s.Repo.RecentByResume(ctx, userID, resumeID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]resumes.AnalysisSummary, 0, len(recent))
	for _, analysis := range recent {
		out = append(out, toSummary(analysis))
	}
	return out, nil
}

func toSummary(a Analysis) resumes.AnalysisSummary {
	return resumes.AnalysisSummary{
		ID:            a.ID,
		JobTitle:      a.JobTitle,
		CompanyName:   a.CompanyName,
		OverallScore:  a.OverallScore,
		PreviousScore: a.PreviousScore,
		Delta:         a.OverallScore - a.PreviousScore,
		CreatedAt:     a.CreatedAt,
	}
}

var _ resumes.AnalysisSource = SummarySource{}
