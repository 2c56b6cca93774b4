package ats

import "context"

// Repo stores analysis records. Analyses are write-once; there is no
// update or delete (removal happens via the resume cascade).
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, userID, analysisID string) (Analysis, error)

	// LatestByResume returns the newest analysis for the resume,
	// ordering by created_at with ID as the tiebreak. ErrNotFound when
	// the resume has no analyses yet.
	LatestByResume(ctx context.Context, userID, resumeID string) (Analysis, error)

	// RecentByResume returns up to limit analyses, newest first.
	RecentByResume(ctx context.Context, userID, resumeID string, limit int) ([]Analysis, error)
}
