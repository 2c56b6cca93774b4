package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Moniqchege/resume-builder/internal/extract"
	"github.com/Moniqchege/resume-builder/internal/render"
	"github.com/Moniqchege/resume-builder/internal/shared/storage/object"
)

// MinResumeTextChars is the minimum accepted resume text length.
const MinResumeTextChars = 50

const recentAnalysesLimit = 3

// Service implements resume CRUD, uploads, stats and exports.
type Service struct {
	Repo     Repo
	Analyses AnalysisSource
	Store    object.ObjectStore
}

func NewService(repo Repo, analyses AnalysisSource, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Analyses: analyses, Store: store}
}

// Create stores a new draft resume from raw text.
func (s *Service) Create(ctx context.Context, userID, title, rawText string) (Resume, error) {
	text := strings.TrimSpace(rawText)
	if len(text) < MinResumeTextChars {
		return Resume{}, fmt.Errorf("%w: resume text must be at least %d characters", ErrValidation, MinResumeTextChars)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Resume"
	}
	resume := Resume{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        title,
		OriginalText: text,
		Status:       StatusDraft,
		Version:      1,
	}
	if err := s.Repo.Create(ctx, resume); err != nil {
		return Resume{}, err
	}
	return s.Repo.GetByID(ctx, userID, resume.ID)
}

// Upload extracts text from an uploaded file and stores it as a draft
// resume. The original file is kept in the object store.
func (s *Service) Upload(ctx context.Context, userID, fileName, mimeType string, data []byte) (Resume, error) {
	if len(data) == 0 {
		return Resume{}, fmt.Errorf("%w: empty file", ErrValidation)
	}
	text, err := extract.FromBytes(ctx, data, mimeType, fileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return Resume{}, fmt.Errorf("%w: unsupported file type", ErrValidation)
		}
		return Resume{}, fmt.Errorf("extract upload: %w", err)
	}
	if s.Store != nil {
		if _, _, _, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data)); err != nil {
			return Resume{}, fmt.Errorf("store upload: %w", err)
		}
	}
	return s.Create(ctx, userID, titleFromFileName(fileName), text)
}

// List returns the user's resumes, newest first, with the latest
// analysis summary attached when one exists.
func (s *Service) List(ctx context.Context, userID string) ([]ListItem, error) {
	records, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ListItem, 0, len(records))
	for _, resume := range records {
		item := ListItem{Resume: resume}
		if s.Analyses != nil {
			summary, ok, err := s.Analyses.LatestByResume(ctx, userID, resume.ID)
			if err != nil {
				return nil, err
			}
			if ok {
				item.LatestAnalysis = &summary
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// Get returns a resume with its most recent analyses.
func (s *Service) Get(ctx context.Context, userID, resumeID string) (Detail, error) {
	resume, err := s.Repo.GetByID(ctx, userID, resumeID)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Resume: resume, RecentAnalyses: []AnalysisSummary{}}
	if s.Analyses != nil {
		recent, err := s.Analyses.RecentByResume(ctx, userID, resumeID, recentAnalysesLimit)
		if err != nil {
			return Detail{}, err
		}
		if recent != nil {
			detail.RecentAnalyses = recent
		}
	}
	return detail, nil
}

// Update patches title and/or raw text.
func (s *Service) Update(ctx context.Context, userID, resumeID string, title, rawText *string) (Resume, error) {
	if title == nil && rawText == nil {
		return Resume{}, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return Resume{}, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		title = &trimmed
	}
	if rawText != nil {
		trimmed := strings.TrimSpace(*rawText)
		if len(trimmed) < MinResumeTextChars {
			return Resume{}, fmt.Errorf("%w: resume text must be at least %d characters", ErrValidation, MinResumeTextChars)
		}
		rawText = &trimmed
	}
	return s.Repo.UpdateContent(ctx, userID, resumeID, title, rawText)
}

// Delete removes the resume; its analyses go with it.
func (s *Service) Delete(ctx context.Context, userID, resumeID string) error {
	return s.Repo.Delete(ctx, userID, resumeID)
}

// Stats aggregates the user's resumes.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.Repo.Stats(ctx, userID, time.Now().UTC())
}

// ExportResult is a downloadable rendering of a resume.
type ExportResult struct {
	Reader      io.ReadCloser
	ContentType string
	FileName    string
}

// Export renders the resume's best available text (optimized when present)
// in the requested format. A previously rendered DOCX is streamed straight
// from the object store instead of being rebuilt.
func (s *Service) Export(ctx context.Context, userID, resumeID, format string) (ExportResult, error) {
	resume, err := s.Repo.GetByID(ctx, userID, resumeID)
	if err != nil {
		return ExportResult{}, err
	}

	if format == render.FormatDOCX && resume.OptimizedFileKey != nil && s.Store != nil {
		rc, err := s.Store.Open(ctx, *resume.OptimizedFileKey)
		if err == nil {
			return ExportResult{
				Reader:      rc,
				ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				FileName:    resume.Title + ".docx",
			}, nil
		}
		// Stored copy unavailable; fall through and re-render.
	}

	text := resume.OriginalText
	if resume.OptimizedText != nil && strings.TrimSpace(*resume.OptimizedText) != "" {
		text = *resume.OptimizedText
	}
	result, err := render.Render(format, resume.Title, text)
	if err != nil {
		if errors.Is(err, render.ErrUnsupportedFormat) {
			return ExportResult{}, fmt.Errorf("%w: format must be txt or docx", ErrValidation)
		}
		return ExportResult{}, err
	}
	return ExportResult{
		Reader:      io.NopCloser(bytes.NewReader(result.Data)),
		ContentType: result.ContentType,
		FileName:    result.FileName,
	}, nil
}

func titleFromFileName(fileName string) string {
	base := strings.TrimSpace(fileName)
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		return "Uploaded Resume"
	}
	return base
}
