package resumes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo implements Repo in memory for tests and DB-less dev runs.
type MemoryRepo struct {
	mu      sync.RWMutex
	resumes map[string]Resume
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{resumes: make(map[string]Resume)}
}

func (r *MemoryRepo) Create(ctx context.Context, resume Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if resume.CreatedAt.IsZero() {
		resume.CreatedAt = now
	}
	resume.UpdatedAt = now
	if resume.Version == 0 {
		resume.Version = 1
	}
	r.resumes[resume.ID] = resume
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, resumeID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(userID, resumeID)
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Resume
	for _, resume := range r.resumes {
		if resume.UserID == userID {
			out = append(out, resume)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) UpdateContent(ctx context.Context, userID, resumeID string, title, rawText *string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, err := r.lookup(userID, resumeID)
	if err != nil {
		return Resume{}, err
	}
	if title != nil {
		resume.Title = *title
	}
	if rawText != nil {
		resume.OriginalText = *rawText
	}
	resume.Version++
	resume.UpdatedAt = time.Now().UTC()
	r.resumes[resumeID] = resume
	return resume, nil
}

func (r *MemoryRepo) TransitionStatus(ctx context.Context, userID, resumeID string, expectVersion int64, to Status) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, err := r.lookup(userID, resumeID)
	if err != nil {
		return Resume{}, err
	}
	if resume.Version != expectVersion {
		return Resume{}, ErrConflict
	}
	resume.Status = to
	resume.Version++
	resume.UpdatedAt = time.Now().UTC()
	r.resumes[resumeID] = resume
	return resume, nil
}

func (r *MemoryRepo) ApplyOptimization(ctx context.Context, userID, resumeID, optimizedText, fileKey string, score int) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, err := r.lookup(userID, resumeID)
	if err != nil {
		return Resume{}, err
	}
	resume.OptimizedText = &optimizedText
	if fileKey != "" {
		resume.OptimizedFileKey = &fileKey
	}
	resume.CurrentScore = score
	resume.Status = StatusOptimized
	resume.Version++
	resume.UpdatedAt = time.Now().UTC()
	r.resumes[resumeID] = resume
	return resume, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.lookup(userID, resumeID); err != nil {
		return err
	}
	delete(r.resumes, resumeID)
	return nil
}

func (r *MemoryRepo) Stats(ctx context.Context, userID string, now time.Time) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var stats Stats
	var scoreSum, scored int
	for _, resume := range r.resumes {
		if resume.UserID != userID {
			continue
		}
		stats.TotalResumes++
		if resume.CurrentScore > 0 {
			scoreSum += resume.CurrentScore
			scored++
		}
		if resume.Status == StatusOptimized && !resume.UpdatedAt.Before(dayStart) {
			stats.OptimizedToday++
		}
	}
	if scored > 0 {
		stats.AverageScore = (scoreSum + scored/2) / scored
	}
	return stats, nil
}

func (r *MemoryRepo) lookup(userID, resumeID string) (Resume, error) {
	resume, ok := r.resumes[resumeID]
	if !ok || resume.UserID != userID {
		return Resume{}, ErrNotFound
	}
	return resume, nil
}

var _ Repo = (*MemoryRepo)(nil)
