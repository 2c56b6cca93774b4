package users

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the user identity from OAuth so resume ownership
// stays stable across logins.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(user.Provider) == "" || strings.TrimSpace(user.Subject) == "" {
		return User{}, errors.New("provider and subject are required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return User{}, errors.New("email is required")
	}
	return s.Repo.UpsertByIdentity(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}
