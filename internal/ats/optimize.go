package ats

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
	"github.com/Moniqchege/resume-builder/internal/render"
	"github.com/Moniqchege/resume-builder/internal/resumes"
	"github.com/Moniqchege/resume-builder/internal/shared/telemetry"
	"github.com/Moniqchege/resume-builder/internal/shared/util"
)

// OptimizeStart is the diagnostic first pass of the two-phase rewrite:
// it reports the required keywords the resume does not mention so the
// user can confirm which ones they genuinely have. Nothing is mutated.
func (s *Service) OptimizeStart(ctx context.Context, userID, resumeID, jobDescription string) ([]string, error) {
	if err := validateJobDescription(jobDescription); err != nil {
		return nil, err
	}
	resume, err := s.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	keywords, err := s.extractKeywords(ctx, jobDescription)
	if err != nil {
		return nil, err
	}
	return skillGap(resume.OriginalText, keywords.Required), nil
}

// ConfirmInput is the second pass of the two-phase rewrite.
type ConfirmInput struct {
	JobDescription  string
	ConfirmedSkills []string
	JobTitle        string
	Company         string
}

// OptimizeConfirm rewrites the resume constrained to the confirmed
// skills, validates the rewrite against the no-fabrication rule, and on
// success persists a new analysis and the optimized resume state. On any
// failure the resume is left as it was.
func (s *Service) OptimizeConfirm(ctx context.Context, userID, resumeID string, in ConfirmInput) (View, resumes.Resume, error) {
	if err := validateJobDescription(in.JobDescription); err != nil {
		return View{}, resumes.Resume{}, err
	}
	confirmed := cleanSkills(in.ConfirmedSkills)

	if !s.inflight.acquire(resumeID) {
		return View{}, resumes.Resume{}, fmt.Errorf("%w: optimization already in progress", resumes.ErrConflict)
	}
	defer s.inflight.release(resumeID)

	resume, err := s.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		return View{}, resumes.Resume{}, err
	}
	priorStatus := resume.Status

	working, err := s.Resumes.TransitionStatus(ctx, userID, resumeID, resume.Version, resumes.StatusAnalyzing)
	if err != nil {
		return View{}, resumes.Resume{}, err
	}
	s.logTransition(userID, resumeID, priorStatus, resumes.StatusAnalyzing)

	view, updated, err := s.confirmPipeline(ctx, userID, working, in, confirmed)
	if err != nil {
		s.rollbackStatus(ctx, userID, resumeID, working.Version, priorStatus)
		return View{}, resumes.Resume{}, err
	}
	s.logTransition(userID, resumeID, resumes.StatusAnalyzing, resumes.StatusOptimized)
	return view, updated, nil
}

func (s *Service) confirmPipeline(ctx context.Context, userID string, resume resumes.Resume, in ConfirmInput, confirmed []string) (View, resumes.Resume, error) {
	keywords, err := s.extractKeywords(ctx, in.JobDescription)
	if err != nil {
		return View{}, resumes.Resume{}, err
	}

	gap := skillGap(resume.OriginalText, keywords.Required)
	if err := validateConfirmedSubset(confirmed, gap); err != nil {
		return View{}, resumes.Resume{}, err
	}

	rewritten, err := s.Reasoner.RewriteResume(ctx, reasoner.RewriteInput{
		ResumeText:      resume.OriginalText,
		JobDescription:  in.JobDescription,
		ConfirmedSkills: confirmed,
	})
	if err != nil {
		return View{}, resumes.Resume{}, fmt.Errorf("rewrite resume: %w", err)
	}

	if err := checkFabrication(resume.OriginalText, rewritten, confirmed, keywords); err != nil {
		return View{}, resumes.Resume{}, err
	}

	breakdown, err := s.scoreResume(ctx, rewritten, in.JobDescription, keywords)
	if err != nil {
		return View{}, resumes.Resume{}, err
	}
	suggestions := s.generateSuggestions(ctx, reasoner.SuggestInput{
		JobTitle:        in.JobTitle,
		Company:         in.Company,
		OverallScore:    breakdown.OverallScore,
		MissingKeywords: breakdown.MissingKeywords,
		SubScores:       breakdown.Scores,
	})

	fileKey := s.storeRenderedResume(ctx, userID, resume, rewritten)

	// An applied optimization chains from the score it replaces, not
	// from whatever diagnostic analysis happened to run last.
	analysis, err := s.persistAnalysis(ctx, userID, resume.ID, AnalyzeInput{
		JobDescription: in.JobDescription,
		JobTitle:       in.JobTitle,
		Company:        in.Company,
	}, breakdown, suggestions, resume.CurrentScore)
	if err != nil {
		return View{}, resumes.Resume{}, err
	}

	updated, err := s.Resumes.ApplyOptimization(ctx, userID, resume.ID, rewritten, fileKey, breakdown.OverallScore)
	if err != nil {
		return View{}, resumes.Resume{}, err
	}
	return NewView(analysis), updated, nil
}

// storeRenderedResume renders the optimized text as DOCX and keeps it in
// the object store. Rendering is best-effort: the optimized text itself
// is the source of truth and exports can re-render on demand.
func (s *Service) storeRenderedResume(ctx context.Context, userID string, resume resumes.Resume, text string) string {
	if s.Store == nil {
		return ""
	}
	result, err := render.Render(render.FormatDOCX, resume.Title, text)
	if err != nil {
		telemetry.Warn("optimize.render_failed", map[string]any{
			"resume_id": resume.ID, "error": err.Error(),
		})
		return ""
	}
	key := fmt.Sprintf("users/%s/optimized/%s.docx", util.HashUserKey(userID), resume.ID)
	if _, err := s.Store.SaveWithKey(ctx, key, result.ContentType, bytes.NewReader(result.Data)); err != nil {
		telemetry.Warn("optimize.store_failed", map[string]any{
			"resume_id": resume.ID, "error": err.Error(),
		})
		return ""
	}
	return key
}

// skillGap returns required keywords that do not literally appear in the
// resume text.
func skillGap(resumeText string, required []string) []string {
	_, missing := MatchKeywords(resumeText, required)
	return missing
}

func validateConfirmedSubset(confirmed, gap []string) error {
	allowed := make(map[string]struct{}, len(gap))
	for _, skill := range gap {
		allowed[strings.ToLower(skill)] = struct{}{}
	}
	for _, skill := range confirmed {
		if _, ok := allowed[strings.ToLower(skill)]; !ok {
			return fmt.Errorf("%w: skill %q is not in the unconfirmed gap", ErrValidation, skill)
		}
	}
	return nil
}

// checkFabrication rejects rewrites that introduce target keywords the
// original text never contained and the user never confirmed. The
// reasoner's constraints are not trusted; the diff is checked locally.
func checkFabrication(original, rewritten string, confirmed []string, keywords reasoner.KeywordSet) error {
	confirmedSet := make(map[string]struct{}, len(confirmed))
	for _, skill := range confirmed {
		confirmedSet[strings.ToLower(skill)] = struct{}{}
	}
	originalLower := strings.ToLower(original)
	rewrittenLower := strings.ToLower(rewritten)

	for _, keyword := range TargetKeywords(keywords) {
		lower := strings.ToLower(keyword)
		if !strings.Contains(rewrittenLower, lower) {
			continue
		}
		if strings.Contains(originalLower, lower) {
			continue
		}
		if _, ok := confirmedSet[lower]; ok {
			continue
		}
		return fmt.Errorf("%w: %q", ErrFabrication, keyword)
	}
	return nil
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		trimmed := strings.TrimSpace(skill)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
