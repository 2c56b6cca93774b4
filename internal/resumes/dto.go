package resumes

import (
	"context"
	"time"
)

// AnalysisSummary is the slice of an analysis that resume reads surface.
// Delta is derived on read and never persisted.
type AnalysisSummary struct {
	ID            string    `json:"id"`
	JobTitle      string    `json:"jobTitle,omitempty"`
	CompanyName   string    `json:"companyName,omitempty"`
	OverallScore  int       `json:"overallScore"`
	PreviousScore int       `json:"previousScore"`
	Delta         int       `json:"delta"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AnalysisSource exposes the analysis history resume reads need without
// pulling the analysis pipeline into this package.
type AnalysisSource interface {
	LatestByResume(ctx context.Context, userID, resumeID string) (AnalysisSummary, bool, error)
	RecentByResume(ctx context.Context, userID, resumeID string, limit int) ([]AnalysisSummary, error)
}

// ListItem is one entry of the resume list view.
type ListItem struct {
	Resume
	LatestAnalysis *AnalysisSummary `json:"latestAnalysis,omitempty"`
}

// Detail is the single-resume view with recent history.
type Detail struct {
	Resume
	RecentAnalyses []AnalysisSummary `json:"recentAnalyses"`
}
