package ats

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo implements Repo in memory for tests and DB-less dev runs.
type MemoryRepo struct {
	mu       sync.RWMutex
	analyses map[string]Analysis
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{analyses: make(map[string]Analysis)}
}

func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}
	r.analyses[analysis.ID] = analysis
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.analyses[analysisID]
	if !ok || analysis.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

func (r *MemoryRepo) LatestByResume(ctx context.Context, userID, resumeID string) (Analysis, error) {
	recent, err := r.RecentByResume(ctx, userID, resumeID, 1)
	if err != nil {
		return Analysis{}, err
	}
	if len(recent) == 0 {
		return Analysis{}, ErrNotFound
	}
	return recent[0], nil
}

func (r *MemoryRepo) RecentByResume(ctx context.Context, userID, resumeID string, limit int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 3
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Analysis
	for _, analysis := range r.analyses {
		if analysis.UserID == userID && analysis.ResumeID == resumeID {
			out = append(out, analysis)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
