package ats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
)

// PGRepo implements Repo using Postgres. Keyword lists and suggestions
// are stored as JSONB so insertion order survives round trips.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `id, resume_id, user_id, job_description, job_title, company_name,
overall_score, keyword_score, format_score, experience_score, skills_score, action_word_score,
previous_score, matched_keywords, missing_keywords, suggestions, created_at`

func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	matched, err := marshalStrings(analysis.MatchedKeywords)
	if err != nil {
		return err
	}
	missing, err := marshalStrings(analysis.MissingKeywords)
	if err != nil {
		return err
	}
	suggestions := analysis.Suggestions
	if suggestions == nil {
		suggestions = []reasoner.Suggestion{}
	}
	suggestionsJSON, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}

	const query = `
INSERT INTO analyses (` + analysisColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())`
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.ResumeID,
		analysis.UserID,
		analysis.JobDescription,
		analysis.JobTitle,
		analysis.CompanyName,
		analysis.OverallScore,
		analysis.Keyword,
		analysis.Format,
		analysis.Experience,
		analysis.Skills,
		analysis.ActionWord,
		analysis.PreviousScore,
		matched,
		missing,
		suggestionsJSON,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, analysisID string) (Analysis, error) {
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, analysisID))
}

func (r *PGRepo) LatestByResume(ctx context.Context, userID, resumeID string) (Analysis, error) {
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND resume_id = $2
ORDER BY created_at DESC, id DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, resumeID))
}

func (r *PGRepo) RecentByResume(ctx context.Context, userID, resumeID string, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 3
	}
	const query = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id = $1 AND resume_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, resumeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis)
	}
	return out, rows.Err()
}

func (r *PGRepo) scanOne(row *sql.Row) (Analysis, error) {
	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return analysis, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var analysis Analysis
	var matched, missing, suggestions []byte
	err := row.Scan(
		&analysis.ID,
		&analysis.ResumeID,
		&analysis.UserID,
		&analysis.JobDescription,
		&analysis.JobTitle,
		&analysis.CompanyName,
		&analysis.OverallScore,
		&analysis.Keyword,
		&analysis.Format,
		&analysis.Experience,
		&analysis.Skills,
		&analysis.ActionWord,
		&analysis.PreviousScore,
		&matched,
		&missing,
		&suggestions,
		&analysis.CreatedAt,
	)
	if err != nil {
		return Analysis{}, err
	}
	if analysis.MatchedKeywords, err = unmarshalStrings(matched); err != nil {
		return Analysis{}, err
	}
	if analysis.MissingKeywords, err = unmarshalStrings(missing); err != nil {
		return Analysis{}, err
	}
	analysis.Suggestions = []reasoner.Suggestion{}
	if len(suggestions) > 0 {
		if err := json.Unmarshal(suggestions, &analysis.Suggestions); err != nil {
			return Analysis{}, fmt.Errorf("unmarshal suggestions: %w", err)
		}
	}
	return analysis, nil
}

func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	out, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}
	return out, nil
}

func unmarshalStrings(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal keywords: %w", err)
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
