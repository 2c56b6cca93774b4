package resumes

import "errors"

var (
	// ErrNotFound covers both unknown IDs and resumes owned by someone
	// else, so existence never leaks across users.
	ErrNotFound = errors.New("resume not found")

	// ErrConflict means the resume changed underneath the caller,
	// usually because another optimization is in flight.
	ErrConflict = errors.New("resume is being processed")

	// ErrValidation marks bad caller input.
	ErrValidation = errors.New("validation failed")
)
