package ats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
	"github.com/Moniqchege/resume-builder/internal/resumes"
	"github.com/Moniqchege/resume-builder/internal/shared/storage/object"
	"github.com/Moniqchege/resume-builder/internal/shared/telemetry"
)

// MinJobDescriptionChars is the shortest job description worth analyzing.
const MinJobDescriptionChars = 100

// Service is the analysis pipeline and resume lifecycle controller.
type Service struct {
	Repo     Repo
	Resumes  resumes.Repo
	Reasoner reasoner.Client
	Store    object.ObjectStore

	// BaselineKeywordScore substitutes the keyword sub-score when a job
	// description yields no keywords. Zero means the default.
	BaselineKeywordScore int

	inflight inflight
}

func NewService(repo Repo, resumeRepo resumes.Repo, client reasoner.Client, store object.ObjectStore, baseline int) *Service {
	if baseline <= 0 {
		baseline = DefaultBaselineKeywordScore
	}
	return &Service{
		Repo:                 repo,
		Resumes:              resumeRepo,
		Reasoner:             client,
		Store:                store,
		BaselineKeywordScore: baseline,
	}
}

// AnalyzeInput names either an existing resume or free text, never both.
type AnalyzeInput struct {
	ResumeID       string
	ResumeText     string
	JobDescription string
	JobTitle       string
	Company        string
}

// Analyze runs extract → score → suggest and persists the resulting
// analysis. Resume-backed runs move the resume through ANALYZING and back;
// any hard failure rolls the status back and surfaces a single error.
func (s *Service) Analyze(ctx context.Context, userID string, in AnalyzeInput) (View, error) {
	if err := validateJobDescription(in.JobDescription); err != nil {
		return View{}, err
	}
	hasResume := strings.TrimSpace(in.ResumeID) != ""
	hasText := strings.TrimSpace(in.ResumeText) != ""
	if hasResume == hasText {
		return View{}, fmt.Errorf("%w: provide exactly one of resumeId or resumeText", ErrValidation)
	}
	if hasText {
		return s.analyzeFreeText(ctx, userID, in)
	}
	return s.analyzeResume(ctx, userID, in)
}

func (s *Service) analyzeResume(ctx context.Context, userID string, in AnalyzeInput) (View, error) {
	if !s.inflight.acquire(in.ResumeID) {
		return View{}, fmt.Errorf("%w: analysis already in progress", resumes.ErrConflict)
	}
	defer s.inflight.release(in.ResumeID)

	resume, err := s.Resumes.GetByID(ctx, userID, in.ResumeID)
	if err != nil {
		return View{}, err
	}
	priorStatus := resume.Status

	working, err := s.Resumes.TransitionStatus(ctx, userID, resume.ID, resume.Version, resumes.StatusAnalyzing)
	if err != nil {
		return View{}, err
	}
	s.logTransition(userID, resume.ID, priorStatus, resumes.StatusAnalyzing)

	view, err := s.runPipeline(ctx, userID, working, in)
	if err != nil {
		s.rollbackStatus(ctx, userID, resume.ID, working.Version, priorStatus)
		return View{}, err
	}

	if _, err := s.Resumes.TransitionStatus(ctx, userID, resume.ID, working.Version, resumes.StatusOptimized); err != nil {
		s.rollbackStatus(ctx, userID, resume.ID, working.Version, priorStatus)
		return View{}, err
	}
	s.logTransition(userID, resume.ID, resumes.StatusAnalyzing, resumes.StatusOptimized)
	return view, nil
}

// analyzeFreeText creates an ephemeral resume so the analysis has a home,
// born directly in OPTIMIZED state.
func (s *Service) analyzeFreeText(ctx context.Context, userID string, in AnalyzeInput) (View, error) {
	text := strings.TrimSpace(in.ResumeText)
	if len(text) < resumes.MinResumeTextChars {
		return View{}, fmt.Errorf("%w: resume text must be at least %d characters", ErrValidation, resumes.MinResumeTextChars)
	}
	title := strings.TrimSpace(in.JobTitle)
	if title == "" {
		title = "Quick Analysis"
	}
	resume := resumes.Resume{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        title,
		OriginalText: text,
		Status:       resumes.StatusOptimized,
		Version:      1,
	}
	if err := s.Resumes.Create(ctx, resume); err != nil {
		return View{}, err
	}

	view, err := s.runPipeline(ctx, userID, resume, in)
	if err != nil {
		// Best-effort cleanup so the failed run leaves no orphan in the
		// user's resume list.
		if delErr := s.Resumes.Delete(ctx, userID, resume.ID); delErr != nil {
			telemetry.Error("analysis.ephemeral_cleanup_failed", map[string]any{
				"resume_id": resume.ID, "error": delErr.Error(),
			})
		}
		return View{}, err
	}
	return view, nil
}

// runPipeline executes extract → score → suggest against the resume's
// original text and persists the analysis.
func (s *Service) runPipeline(ctx context.Context, userID string, resume resumes.Resume, in AnalyzeInput) (View, error) {
	keywords, err := s.extractKeywords(ctx, in.JobDescription)
	if err != nil {
		return View{}, err
	}

	breakdown, err := s.scoreResume(ctx, resume.OriginalText, in.JobDescription, keywords)
	if err != nil {
		return View{}, err
	}

	suggestions := s.generateSuggestions(ctx, reasoner.SuggestInput{
		JobTitle:        in.JobTitle,
		Company:         in.Company,
		OverallScore:    breakdown.OverallScore,
		MissingKeywords: breakdown.MissingKeywords,
		SubScores:       breakdown.Scores,
	})

	previous, err := s.latestPreviousScore(ctx, userID, resume.ID)
	if err != nil {
		return View{}, err
	}
	analysis, err := s.persistAnalysis(ctx, userID, resume.ID, in, breakdown, suggestions, previous)
	if err != nil {
		return View{}, err
	}
	return NewView(analysis), nil
}

// scoreResume runs the scoring engine: local keyword matching plus
// reasoner category scores, aggregated with fixed weights.
func (s *Service) scoreResume(ctx context.Context, resumeText, jobDescription string, keywords reasoner.KeywordSet) (ScoreBreakdown, error) {
	target := TargetKeywords(keywords)
	matched, missing := MatchKeywords(resumeText, target)

	scores, err := s.Reasoner.ScoreResume(ctx, reasoner.ScoreInput{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		Keywords:       target,
	})
	if err != nil {
		if !errors.Is(err, reasoner.ErrMalformed) {
			return ScoreBreakdown{}, fmt.Errorf("score resume: %w", err)
		}
		// Degrade: missing category scores default to zero.
		telemetry.Warn("scoring.degraded", map[string]any{"reason": err.Error()})
		scores = reasoner.SubScores{}
	}

	if len(target) == 0 {
		scores.Keyword = s.BaselineKeywordScore
		matched, missing = []string{}, []string{}
	}
	scores = clampScores(scores)

	return ScoreBreakdown{
		Scores:          scores,
		OverallScore:    OverallScore(scores),
		MatchedKeywords: matched,
		MissingKeywords: missing,
	}, nil
}

// latestPreviousScore is the overall score of the newest prior analysis
// of the same resume, zero when there is none.
func (s *Service) latestPreviousScore(ctx context.Context, userID, resumeID string) (int, error) {
	prior, err := s.Repo.LatestByResume(ctx, userID, resumeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return prior.OverallScore, nil
}

func (s *Service) persistAnalysis(ctx context.Context, userID, resumeID string, in AnalyzeInput, breakdown ScoreBreakdown, suggestions []reasoner.Suggestion, previousScore int) (Analysis, error) {
	analysis := Analysis{
		ID:              newAnalysisID(),
		ResumeID:        resumeID,
		UserID:          userID,
		JobDescription:  in.JobDescription,
		JobTitle:        strings.TrimSpace(in.JobTitle),
		CompanyName:     strings.TrimSpace(in.Company),
		OverallScore:    breakdown.OverallScore,
		SubScores:       breakdown.Scores,
		PreviousScore:   previousScore,
		MatchedKeywords: breakdown.MatchedKeywords,
		MissingKeywords: breakdown.MissingKeywords,
		Suggestions:     suggestions,
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}
	return s.Repo.GetByID(ctx, userID, analysis.ID)
}

// newAnalysisID returns a time-ordered UUID so analyses created in the
// same timestamp tick still sort in creation order.
func newAnalysisID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// GetAnalysis returns one analysis with its derived delta.
func (s *Service) GetAnalysis(ctx context.Context, userID, analysisID string) (View, error) {
	analysis, err := s.Repo.GetByID(ctx, userID, analysisID)
	if err != nil {
		return View{}, err
	}
	return NewView(analysis), nil
}

// rollbackStatus is best-effort: a failed rollback is logged and the
// original pipeline error still surfaces.
func (s *Service) rollbackStatus(ctx context.Context, userID, resumeID string, version int64, to resumes.Status) {
	if _, err := s.Resumes.TransitionStatus(ctx, userID, resumeID, version, to); err != nil {
		telemetry.Error("analysis.rollback_failed", map[string]any{
			"resume_id": resumeID,
			"status":    string(to),
			"error":     err.Error(),
		})
		return
	}
	s.logTransition(userID, resumeID, resumes.StatusAnalyzing, to)
}

func (s *Service) logTransition(userID, resumeID string, from, to resumes.Status) {
	telemetry.Info("analysis.status", map[string]any{
		"user_id":   userID,
		"resume_id": resumeID,
		"from":      string(from),
		"to":        string(to),
	})
}

func validateJobDescription(jd string) error {
	if len(strings.TrimSpace(jd)) < MinJobDescriptionChars {
		return fmt.Errorf("%w: job description must be at least %d characters", ErrValidation, MinJobDescriptionChars)
	}
	return nil
}

// inflight is a per-resume single-flight guard: the second concurrent
// caller gets a conflict instead of waiting.
type inflight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		f.active = make(map[string]struct{})
	}
	if _, busy := f.active[key]; busy {
		return false
	}
	f.active[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	delete(f.active, key)
	f.mu.Unlock()
}
