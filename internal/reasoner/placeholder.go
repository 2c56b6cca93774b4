package reasoner

import (
	"context"
	"errors"
)

// ErrNotImplemented signals that no reasoner provider is configured.
var ErrNotImplemented = errors.New("reasoner provider not configured")

// PlaceholderClient is a stub implementation used when no provider is wired.
type PlaceholderClient struct{}

func (PlaceholderClient) ExtractKeywords(ctx context.Context, jobDescription string) (KeywordSet, error) {
	return KeywordSet{}, ErrNotImplemented
}

func (PlaceholderClient) ScoreResume(ctx context.Context, input ScoreInput) (SubScores, error) {
	return SubScores{}, ErrNotImplemented
}

func (PlaceholderClient) SuggestImprovements(ctx context.Context, input SuggestInput) ([]Suggestion, error) {
	return nil, ErrNotImplemented
}

func (PlaceholderClient) RewriteResume(ctx context.Context, input RewriteInput) (string, error) {
	return "", ErrNotImplemented
}

var _ Client = PlaceholderClient{}
