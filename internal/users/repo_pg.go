package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) UpsertByIdentity(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const query = `
INSERT INTO users (id, provider, subject, email, name, picture, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (provider, subject) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  picture = EXCLUDED.picture,
  updated_at = now()
RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		user.ID,
		user.Provider,
		user.Subject,
		user.Email,
		user.Name,
		user.Picture,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, provider, subject, email, name, picture, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	var user User
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Provider,
		&user.Subject,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = time.Now().UTC()
	}
	return user, nil
}
