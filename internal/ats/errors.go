package ats

import "errors"

var (
	// ErrNotFound covers unknown analysis IDs and analyses owned by
	// another user.
	ErrNotFound = errors.New("analysis not found")

	// ErrValidation marks bad caller input.
	ErrValidation = errors.New("validation failed")

	// ErrFabrication means a rewrite tried to claim skills beyond the
	// original text plus the confirmed set.
	ErrFabrication = errors.New("rewrite added unconfirmed skills")
)
