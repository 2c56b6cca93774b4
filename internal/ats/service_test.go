package ats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
	"github.com/Moniqchege/resume-builder/internal/resumes"
)

// fakeReasoner is a deterministic reasoner double. scoreQueue lets a test
// script different scores across successive calls.
type fakeReasoner struct {
	mu sync.Mutex

	keywords    reasoner.KeywordSet
	keywordsErr error

	scores     reasoner.SubScores
	scoreQueue []reasoner.SubScores
	scoresErr  error

	suggestions []reasoner.Suggestion
	suggestErr  error

	rewrite    string
	rewriteErr error

	scoreCalls int
	block      chan struct{}
}

func (f *fakeReasoner) ExtractKeywords(ctx context.Context, jd string) (reasoner.KeywordSet, error) {
	if f.keywordsErr != nil {
		return reasoner.KeywordSet{}, f.keywordsErr
	}
	return f.keywords, nil
}

func (f *fakeReasoner) ScoreResume(ctx context.Context, input reasoner.ScoreInput) (reasoner.SubScores, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoreCalls++
	if f.scoresErr != nil {
		return reasoner.SubScores{}, f.scoresErr
	}
	if len(f.scoreQueue) > 0 {
		next := f.scoreQueue[0]
		f.scoreQueue = f.scoreQueue[1:]
		return next, nil
	}
	return f.scores, nil
}

func (f *fakeReasoner) SuggestImprovements(ctx context.Context, input reasoner.SuggestInput) ([]reasoner.Suggestion, error) {
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.suggestions, nil
}

func (f *fakeReasoner) RewriteResume(ctx context.Context, input reasoner.RewriteInput) (string, error) {
	if f.rewriteErr != nil {
		return "", f.rewriteErr
	}
	return f.rewrite, nil
}

func flatScores(v int) reasoner.SubScores {
	return reasoner.SubScores{Keyword: v, Format: v, Experience: v, Skills: v, ActionWord: v}
}

const testResumeText = "Senior engineer. Built Go services on Postgres, led reacting to production incidents for five years."

var testJD = strings.Repeat("We need an engineer who ships reliable backend systems. ", 4)

func newTestService(t *testing.T, fake *fakeReasoner) (*Service, *resumes.MemoryRepo) {
	t.Helper()
	resumeRepo := resumes.NewMemoryRepo()
	svc := NewService(NewMemoryRepo(), resumeRepo, fake, nil, 0)
	return svc, resumeRepo
}

func seedResume(t *testing.T, repo *resumes.MemoryRepo, userID string) resumes.Resume {
	t.Helper()
	resume := resumes.Resume{
		ID: "resume-1", UserID: userID, Title: "CV",
		OriginalText: testResumeText,
		Status:       resumes.StatusDraft, Version: 1,
	}
	if err := repo.Create(context.Background(), resume); err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return resume
}

func TestAnalyzeJobDescriptionBoundary(t *testing.T) {
	fake := &fakeReasoner{scores: flatScores(70)}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	short := strings.Repeat("j", MinJobDescriptionChars-1)
	_, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: short})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("99-char JD must be rejected, got %v", err)
	}
	// No side effects on rejection.
	resume, _ := repo.GetByID(ctx, "user-1", "resume-1")
	if resume.Status != resumes.StatusDraft || resume.Version != 1 {
		t.Fatalf("rejected request mutated resume: %+v", resume)
	}

	exact := strings.Repeat("j", MinJobDescriptionChars)
	if _, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: exact}); err != nil {
		t.Fatalf("100-char JD must pass, got %v", err)
	}
}

func TestAnalyzeRequiresExactlyOneSource(t *testing.T) {
	fake := &fakeReasoner{scores: flatScores(70)}
	svc, _ := newTestService(t, fake)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "user-1", AnalyzeInput{JobDescription: testJD})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("neither source must be rejected, got %v", err)
	}
	_, err = svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "x", ResumeText: testResumeText, JobDescription: testJD})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("both sources must be rejected, got %v", err)
	}
}

func TestAnalyzeResumeHappyPath(t *testing.T) {
	fake := &fakeReasoner{
		keywords: reasoner.KeywordSet{
			Required:  []string{"Go", "Postgres", "Kubernetes"},
			Preferred: []string{"Docker"},
		},
		scores: reasoner.SubScores{Keyword: 80, Format: 70, Experience: 60, Skills: 75, ActionWord: 90},
		suggestions: []reasoner.Suggestion{
			{Title: "Add Kubernetes", Body: "Mention container orchestration.", Color: "#7B2FFF", Icon: "📌"},
		},
	}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	view, err := svc.Analyze(ctx, "user-1", AnalyzeInput{
		ResumeID: "resume-1", JobDescription: testJD, JobTitle: "Backend Engineer", Company: "Acme",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// 80*.35 + 70*.20 + 60*.20 + 75*.15 + 90*.10 = 74.25 → 74
	if view.OverallScore != 74 {
		t.Fatalf("overall = %d, want 74", view.OverallScore)
	}
	if view.PreviousScore != 0 || view.Delta != 74 {
		t.Fatalf("first analysis previous/delta = %d/%d", view.PreviousScore, view.Delta)
	}
	wantMatched := []string{"Go", "Postgres"}
	if fmt.Sprint(view.MatchedKeywords) != fmt.Sprint(wantMatched) {
		t.Fatalf("matched = %v, want %v", view.MatchedKeywords, wantMatched)
	}
	wantMissing := []string{"Kubernetes", "Docker"}
	if fmt.Sprint(view.MissingKeywords) != fmt.Sprint(wantMissing) {
		t.Fatalf("missing = %v, want %v", view.MissingKeywords, wantMissing)
	}
	if len(view.Suggestions) != 1 {
		t.Fatalf("suggestions = %v", view.Suggestions)
	}

	resume, _ := repo.GetByID(ctx, "user-1", "resume-1")
	if resume.Status != resumes.StatusOptimized {
		t.Fatalf("resume status = %s, want OPTIMIZED", resume.Status)
	}
	// A plain analysis never touches the current score; only an applied
	// optimization does.
	if resume.CurrentScore != 0 {
		t.Fatalf("resume score = %d, want 0 after a plain analysis", resume.CurrentScore)
	}
}

func TestAnalyzePreviousScoreChaining(t *testing.T) {
	fake := &fakeReasoner{
		keywords:   reasoner.KeywordSet{Required: []string{"Go"}},
		scoreQueue: []reasoner.SubScores{flatScores(40), flatScores(60), flatScores(75)},
	}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	var views []View
	for i := 0; i < 3; i++ {
		view, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
		if err != nil {
			t.Fatalf("Analyze %d: %v", i, err)
		}
		views = append(views, view)
	}

	if views[0].PreviousScore != 0 {
		t.Fatalf("first previousScore = %d, want 0", views[0].PreviousScore)
	}
	if views[1].PreviousScore != 40 {
		t.Fatalf("second previousScore = %d, want 40", views[1].PreviousScore)
	}
	if views[2].PreviousScore != 60 {
		t.Fatalf("third previousScore = %d, want 60", views[2].PreviousScore)
	}
	if views[2].Delta != 15 {
		t.Fatalf("third delta = %d, want 15", views[2].Delta)
	}
}

func TestAnalyzeFreeTextCreatesOptimizedResume(t *testing.T) {
	fake := &fakeReasoner{
		keywords: reasoner.KeywordSet{Required: []string{"Go"}},
		scores:   flatScores(66),
	}
	svc, repo := newTestService(t, fake)
	ctx := context.Background()

	view, err := svc.Analyze(ctx, "user-1", AnalyzeInput{
		ResumeText: testResumeText, JobDescription: testJD, JobTitle: "SRE",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	resume, err := repo.GetByID(ctx, "user-1", view.ResumeID)
	if err != nil {
		t.Fatalf("ephemeral resume missing: %v", err)
	}
	if resume.Status != resumes.StatusOptimized {
		t.Fatalf("ephemeral resume status = %s, want OPTIMIZED", resume.Status)
	}
	if resume.Title != "SRE" {
		t.Fatalf("ephemeral resume title = %q", resume.Title)
	}
	if resume.CurrentScore != 0 {
		t.Fatalf("ephemeral resume score = %d, want 0 without an applied optimization", resume.CurrentScore)
	}
	if view.OverallScore != 66 {
		t.Fatalf("overall = %d, want 66", view.OverallScore)
	}
}

func TestAnalyzeFreeTextCleansUpOnHardFailure(t *testing.T) {
	fake := &fakeReasoner{
		keywords:  reasoner.KeywordSet{Required: []string{"Go"}},
		scoresErr: errors.New("provider unreachable"),
	}
	svc, repo := newTestService(t, fake)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "user-1", AnalyzeInput{
		ResumeText: testResumeText, JobDescription: testJD,
	})
	if err == nil {
		t.Fatal("expected hard failure to surface")
	}

	items, err := repo.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("failed free-text run left %d resume(s) behind", len(items))
	}
}

func TestAnalyzeFreeTextRejectsShortResume(t *testing.T) {
	fake := &fakeReasoner{scores: flatScores(50)}
	svc, _ := newTestService(t, fake)

	_, err := svc.Analyze(context.Background(), "user-1", AnalyzeInput{
		ResumeText: "too short", JobDescription: testJD,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAnalyzeRollsBackOnHardFailure(t *testing.T) {
	fake := &fakeReasoner{
		keywords:  reasoner.KeywordSet{Required: []string{"Go"}},
		scoresErr: fmt.Errorf("reasoner unavailable"),
	}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
	if err == nil {
		t.Fatal("expected error")
	}

	resume, _ := repo.GetByID(ctx, "user-1", "resume-1")
	if resume.Status != resumes.StatusDraft {
		t.Fatalf("status not rolled back: %s", resume.Status)
	}
	if recent, _ := svc.Repo.RecentByResume(ctx, "user-1", "resume-1", 10); len(recent) != 0 {
		t.Fatalf("failed run must not persist analyses, got %d", len(recent))
	}

	// A second failing run rolls back to the same status again.
	_, _ = svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
	resume, _ = repo.GetByID(ctx, "user-1", "resume-1")
	if resume.Status != resumes.StatusDraft {
		t.Fatalf("repeat rollback broke status: %s", resume.Status)
	}
}

func TestAnalyzeDegradesOnMalformedScores(t *testing.T) {
	fake := &fakeReasoner{
		keywords:  reasoner.KeywordSet{Required: []string{"Go"}},
		scoresErr: fmt.Errorf("bad payload: %w", reasoner.ErrMalformed),
	}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	view, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
	if err != nil {
		t.Fatalf("malformed scores must degrade, got %v", err)
	}
	if view.OverallScore != 0 {
		t.Fatalf("degraded overall = %d, want 0", view.OverallScore)
	}
	resume, _ := repo.GetByID(ctx, "user-1", "resume-1")
	if resume.Status != resumes.StatusOptimized {
		t.Fatalf("degraded run must still complete, status %s", resume.Status)
	}
}

func TestAnalyzeEmptyKeywordsBaseline(t *testing.T) {
	fake := &fakeReasoner{
		keywordsErr: fmt.Errorf("not json: %w", reasoner.ErrMalformed),
		scores:      reasoner.SubScores{Format: 100, Experience: 100, Skills: 100, ActionWord: 100},
	}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	view, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if view.Keyword != DefaultBaselineKeywordScore {
		t.Fatalf("keyword score = %d, want baseline %d", view.Keyword, DefaultBaselineKeywordScore)
	}
	if len(view.MatchedKeywords) != 0 || len(view.MissingKeywords) != 0 {
		t.Fatalf("matched/missing must be empty: %v / %v", view.MatchedKeywords, view.MissingKeywords)
	}
	// 50*.35 + 100*.65 = 82.5 → 83
	if view.OverallScore != 83 {
		t.Fatalf("overall = %d, want 83", view.OverallScore)
	}
}

func TestAnalyzeConcurrentConflict(t *testing.T) {
	fake := &fakeReasoner{
		keywords: reasoner.KeywordSet{Required: []string{"Go"}},
		scores:   flatScores(70),
		block:    make(chan struct{}),
	}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
		firstDone <- err
	}()

	// Wait for the first run to hold the in-flight slot.
	for !func() bool {
		svc.inflight.mu.Lock()
		defer svc.inflight.mu.Unlock()
		_, busy := svc.inflight.active["resume-1"]
		return busy
	}() {
		time.Sleep(time.Millisecond)
	}

	_, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
	if !errors.Is(err, resumes.ErrConflict) {
		t.Fatalf("second concurrent run must conflict, got %v", err)
	}

	close(fake.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestAnalyzeForeignResumeNotFound(t *testing.T) {
	fake := &fakeReasoner{scores: flatScores(70)}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "owner")

	_, err := svc.Analyze(context.Background(), "intruder", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
	if !errors.Is(err, resumes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAnalysisOwnershipEnforced(t *testing.T) {
	fake := &fakeReasoner{
		keywords: reasoner.KeywordSet{Required: []string{"Go"}},
		scores:   flatScores(70),
	}
	svc, repo := newTestService(t, fake)
	seedResume(t, repo, "user-1")
	ctx := context.Background()

	view, err := svc.Analyze(ctx, "user-1", AnalyzeInput{ResumeID: "resume-1", JobDescription: testJD})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if _, err := svc.GetAnalysis(ctx, "user-1", view.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetAnalysis(ctx, "intruder", view.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign read must be not found, got %v", err)
	}
}

func TestAnalysisIDsSortInCreationOrder(t *testing.T) {
	prev := newAnalysisID()
	for i := 0; i < 64; i++ {
		next := newAnalysisID()
		if next <= prev {
			t.Fatalf("id %q does not sort after %q", next, prev)
		}
		prev = next
	}
}
