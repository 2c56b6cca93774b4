package resumes

import (
	"context"
	"time"
)

// Repo is the resume record store. Every method is scoped by user ID.
type Repo interface {
	Create(ctx context.Context, resume Resume) error
	GetByID(ctx context.Context, userID, resumeID string) (Resume, error)
	ListByUser(ctx context.Context, userID string) ([]Resume, error)

	// UpdateContent patches title and/or original text. Nil fields are
	// left untouched.
	UpdateContent(ctx context.Context, userID, resumeID string, title, rawText *string) (Resume, error)

	// TransitionStatus moves the resume to the given status only if its
	// version still equals expectVersion, bumping the version. A stale
	// version returns ErrConflict.
	TransitionStatus(ctx context.Context, userID, resumeID string, expectVersion int64, to Status) (Resume, error)

	// ApplyOptimization stores the rewrite outcome in one step: optimized
	// text, rendered file key, new score, status OPTIMIZED. It is the only
	// write that touches the current score.
	ApplyOptimization(ctx context.Context, userID, resumeID, optimizedText, fileKey string, score int) (Resume, error)

	Delete(ctx context.Context, userID, resumeID string) error
	Stats(ctx context.Context, userID string, now time.Time) (Stats, error)
}
