package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type Repo interface {
	// UpsertByIdentity inserts or refreshes the user keyed by
	// (provider, subject) and returns the stored row.
	UpsertByIdentity(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
}
