package resumes

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeAnalysisSource struct {
	latest map[string]AnalysisSummary
	recent map[string][]AnalysisSummary
}

func (f *fakeAnalysisSource) LatestByResume(ctx context.Context, userID, resumeID string) (AnalysisSummary, bool, error) {
	summary, ok := f.latest[resumeID]
	return summary, ok, nil
}

func (f *fakeAnalysisSource) RecentByResume(ctx context.Context, userID, resumeID string, limit int) ([]AnalysisSummary, error) {
	out := f.recent[resumeID]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

const validText = "Experienced backend engineer with Go, Postgres, and distributed systems background."

func TestCreateRejectsShortText(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)

	short := strings.Repeat("x", MinResumeTextChars-1)
	_, err := svc.Create(context.Background(), "user-1", "t", short)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for %d chars, got %v", MinResumeTextChars-1, err)
	}

	exact := strings.Repeat("x", MinResumeTextChars)
	resume, err := svc.Create(context.Background(), "user-1", "t", exact)
	if err != nil {
		t.Fatalf("expected %d chars to pass, got %v", MinResumeTextChars, err)
	}
	if resume.Status != StatusDraft {
		t.Fatalf("new resume must be DRAFT, got %s", resume.Status)
	}
	if resume.Version != 1 {
		t.Fatalf("new resume must start at version 1, got %d", resume.Version)
	}
}

func TestCreateDefaultsTitle(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)

	resume, err := svc.Create(context.Background(), "user-1", "  ", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resume.Title != "Untitled Resume" {
		t.Fatalf("unexpected default title: %q", resume.Title)
	}
}

func TestUploadPlainText(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)

	resume, err := svc.Upload(context.Background(), "user-1", "cv-final.txt", "text/plain", []byte(validText))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resume.Title != "cv-final" {
		t.Fatalf("title should come from the file name, got %q", resume.Title)
	}
	if resume.OriginalText != validText {
		t.Fatalf("unexpected text: %q", resume.OriginalText)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)

	_, err := svc.Upload(context.Background(), "user-1", "cv.png", "image/png", []byte{0x89, 0x50})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListAttachesLatestAnalysis(t *testing.T) {
	repo := NewMemoryRepo()
	source := &fakeAnalysisSource{latest: map[string]AnalysisSummary{}, recent: map[string][]AnalysisSummary{}}
	svc := NewService(repo, source, nil)
	ctx := context.Background()

	resume, err := svc.Create(ctx, "user-1", "t", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	source.latest[resume.ID] = AnalysisSummary{ID: "a-1", OverallScore: 75, PreviousScore: 60, Delta: 15}

	items, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 resume, got %d", len(items))
	}
	if items[0].LatestAnalysis == nil || items[0].LatestAnalysis.Delta != 15 {
		t.Fatalf("latest analysis not attached: %+v", items[0].LatestAnalysis)
	}
}

func TestGetLimitsRecentAnalyses(t *testing.T) {
	repo := NewMemoryRepo()
	source := &fakeAnalysisSource{latest: map[string]AnalysisSummary{}, recent: map[string][]AnalysisSummary{}}
	svc := NewService(repo, source, nil)
	ctx := context.Background()

	resume, err := svc.Create(ctx, "user-1", "t", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 5; i++ {
		source.recent[resume.ID] = append(source.recent[resume.ID], AnalysisSummary{ID: string(rune('a' + i))})
	}

	detail, err := svc.Get(ctx, "user-1", resume.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(detail.RecentAnalyses) != recentAnalysesLimit {
		t.Fatalf("expected %d recent analyses, got %d", recentAnalysesLimit, len(detail.RecentAnalyses))
	}
}

func TestGetForeignResumeNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)
	ctx := context.Background()

	resume, err := svc.Create(ctx, "owner", "t", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Get(ctx, "intruder", resume.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign resume must read as not found, got %v", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)
	ctx := context.Background()

	resume, err := svc.Create(ctx, "user-1", "t", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, "user-1", resume.ID, nil, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty patch must fail, got %v", err)
	}
	empty := " "
	if _, err := svc.Update(ctx, "user-1", resume.ID, &empty, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank title must fail, got %v", err)
	}

	title := "Updated Title"
	updated, err := svc.Update(ctx, "user-1", resume.ID, &title, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Updated Title" || updated.OriginalText != validText {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestExportTXTPrefersOptimizedText(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	resume, err := svc.Create(ctx, "user-1", "My CV", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ApplyOptimization(ctx, "user-1", resume.ID, "optimized version of the resume", "", 80); err != nil {
		t.Fatalf("ApplyOptimization: %v", err)
	}

	result, err := svc.Export(ctx, "user-1", resume.ID, "txt")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	defer result.Reader.Close()
	data, err := io.ReadAll(result.Reader)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "optimized version of the resume" {
		t.Fatalf("export must prefer optimized text, got %q", data)
	}
	if result.FileName != "My CV.txt" {
		t.Fatalf("unexpected file name: %q", result.FileName)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)
	ctx := context.Background()

	resume, err := svc.Create(ctx, "user-1", "t", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Export(ctx, "user-1", resume.ID, "pdf"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestStatsCountsOptimizedToday(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-1", "a", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "user-1", "b", validText); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ApplyOptimization(ctx, "user-1", first.ID, "optimized", "", 90); err != nil {
		t.Fatalf("ApplyOptimization: %v", err)
	}

	stats, err := svc.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalResumes != 2 {
		t.Fatalf("expected 2 resumes, got %d", stats.TotalResumes)
	}
	if stats.OptimizedToday != 1 {
		t.Fatalf("expected 1 optimized today, got %d", stats.OptimizedToday)
	}
	if stats.AverageScore != 90 {
		t.Fatalf("average should skip unscored resumes, got %d", stats.AverageScore)
	}
}

func TestDeleteRemovesResume(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)
	ctx := context.Background()

	resume, err := svc.Create(ctx, "user-1", "t", validText)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, "user-1", resume.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", resume.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, "user-1", resume.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete must be ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoTransitionConflict(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	resume := Resume{ID: "r1", UserID: "u1", Title: "t", OriginalText: validText, Status: StatusDraft, Version: 1, CreatedAt: time.Now()}
	if err := repo.Create(ctx, resume); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.TransitionStatus(ctx, "u1", "r1", 1, StatusAnalyzing); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if _, err := repo.TransitionStatus(ctx, "u1", "r1", 1, StatusAnalyzing); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale version must conflict, got %v", err)
	}
}
