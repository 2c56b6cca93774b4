package reasoner

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Moniqchege/resume-builder/internal/shared/telemetry"
)

// BreakerClient wraps a Client with a circuit breaker so a misbehaving
// reasoner fails fast instead of stalling every pipeline request. Malformed
// output does not count as a failure: it is degraded downstream and says
// nothing about provider availability.
type BreakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps the given client with a circuit breaker.
func WithBreaker(inner Client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "reasoner",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMalformed)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("reasoner.breaker", map[string]any{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}
	return &BreakerClient{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerClient) ExtractKeywords(ctx context.Context, jobDescription string) (KeywordSet, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.inner.ExtractKeywords(ctx, jobDescription)
	})
	if err != nil {
		if set, ok := out.(KeywordSet); ok {
			return set, err
		}
		return KeywordSet{}, err
	}
	return out.(KeywordSet), nil
}

func (b *BreakerClient) ScoreResume(ctx context.Context, input ScoreInput) (SubScores, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.inner.ScoreResume(ctx, input)
	})
	if err != nil {
		if scores, ok := out.(SubScores); ok {
			return scores, err
		}
		return SubScores{}, err
	}
	return out.(SubScores), nil
}

func (b *BreakerClient) SuggestImprovements(ctx context.Context, input SuggestInput) ([]Suggestion, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.inner.SuggestImprovements(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	return out.([]Suggestion), nil
}

func (b *BreakerClient) RewriteResume(ctx context.Context, input RewriteInput) (string, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.inner.RewriteResume(ctx, input)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

var _ Client = (*BreakerClient)(nil)
