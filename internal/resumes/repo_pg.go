package resumes

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `id, user_id, title, original_text, optimized_text, current_score, status, optimized_file_key, version, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, resume Resume) error {
	const query = `
INSERT INTO resumes (id, user_id, title, original_text, optimized_text, current_score, status, optimized_file_key, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		resume.ID,
		resume.UserID,
		resume.Title,
		resume.OriginalText,
		nullableString(resume.OptimizedText),
		resume.CurrentScore,
		string(resume.Status),
		nullableString(resume.OptimizedFileKey),
		resume.Version,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, resumeID string) (Resume, error) {
	const query = `
SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1 AND id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID, resumeID)
	resume, err := scanResume(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return resume, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Resume, error) {
	const query = `
SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1
ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateContent(ctx context.Context, userID, resumeID string, title, rawText *string) (Resume, error) {
	const query = `
UPDATE resumes
SET title = COALESCE($3, title),
    original_text = COALESCE($4, original_text),
    version = version + 1,
    updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING ` + resumeColumns
	row := r.DB.QueryRowContext(ctx, query, userID, resumeID, title, rawText)
	resume, err := scanResume(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return resume, nil
}

func (r *PGRepo) TransitionStatus(ctx context.Context, userID, resumeID string, expectVersion int64, to Status) (Resume, error) {
	const query = `
UPDATE resumes
SET status = $4, version = version + 1, updated_at = now()
WHERE user_id = $1 AND id = $2 AND version = $3
RETURNING ` + resumeColumns
	row := r.DB.QueryRowContext(ctx, query, userID, resumeID, expectVersion, string(to))
	resume, err := scanResume(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing resume from a stale version.
			if _, getErr := r.GetByID(ctx, userID, resumeID); getErr != nil {
				return Resume{}, getErr
			}
			return Resume{}, ErrConflict
		}
		return Resume{}, err
	}
	return resume, nil
}

func (r *PGRepo) ApplyOptimization(ctx context.Context, userID, resumeID, optimizedText, fileKey string, score int) (Resume, error) {
	const query = `
UPDATE resumes
SET optimized_text = $3,
    optimized_file_key = NULLIF($4, ''),
    current_score = $5,
    status = $6,
    version = version + 1,
    updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING ` + resumeColumns
	row := r.DB.QueryRowContext(ctx, query, userID, resumeID, optimizedText, fileKey, score, string(StatusOptimized))
	resume, err := scanResume(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return resume, nil
}

func (r *PGRepo) Delete(ctx context.Context, userID, resumeID string) error {
	// Analyses go with the resume via ON DELETE CASCADE.
	const query = `DELETE FROM resumes WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, resumeID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Stats(ctx context.Context, userID string, now time.Time) (Stats, error) {
	const query = `
SELECT
  COUNT(*),
  COALESCE(ROUND(AVG(current_score) FILTER (WHERE current_score > 0)), 0),
  COUNT(*) FILTER (WHERE status = $2 AND updated_at >= $3)
FROM resumes
WHERE user_id = $1`
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var stats Stats
	err := r.DB.QueryRowContext(ctx, query, userID, string(StatusOptimized), dayStart).Scan(
		&stats.TotalResumes,
		&stats.AverageScore,
		&stats.OptimizedToday,
	)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var resume Resume
	var optimizedText sql.NullString
	var fileKey sql.NullString
	var status string
	err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.Title,
		&resume.OriginalText,
		&optimizedText,
		&resume.CurrentScore,
		&status,
		&fileKey,
		&resume.Version,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	)
	if err != nil {
		return Resume{}, err
	}
	resume.Status = Status(status)
	if optimizedText.Valid {
		resume.OptimizedText = &optimizedText.String
	}
	if fileKey.Valid {
		resume.OptimizedFileKey = &fileKey.String
	}
	return resume, nil
}

func nullableString(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

var _ Repo = (*PGRepo)(nil)
