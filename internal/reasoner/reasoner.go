package reasoner

import (
	"context"
	"errors"
)

// KeywordSet categorizes terms extracted from a job description.
type KeywordSet struct {
	Required  []string `json:"required"`
	Preferred []string `json:"preferred"`
	Soft      []string `json:"soft"`
}

// SubScores holds the qualitative category scores, each in [0,100].
type SubScores struct {
	Keyword    int `json:"keywordScore"`
	Format     int `json:"formatScore"`
	Experience int `json:"experienceScore"`
	Skills     int `json:"skillsScore"`
	ActionWord int `json:"actionWordScore"`
}

// Suggestion is a single improvement action.
type Suggestion struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ScoreInput captures the inputs for qualitative resume scoring.
type ScoreInput struct {
	ResumeText     string
	JobDescription string
	Keywords       []string
}

// SuggestInput captures the inputs for suggestion generation.
type SuggestInput struct {
	JobTitle        string
	Company         string
	OverallScore    int
	MissingKeywords []string
	SubScores       SubScores
}

// RewriteInput captures the inputs for a constrained resume rewrite.
type RewriteInput struct {
	ResumeText      string
	JobDescription  string
	ConfirmedSkills []string
}

// ErrMalformed marks reasoner output that could not be parsed against the
// expected schema. Callers distinguish it from hard failures: malformed
// output degrades to documented defaults, everything else aborts the stage.
var ErrMalformed = errors.New("reasoner output malformed")

// Client abstracts the natural-language reasoning collaborator, one method
// per capability. Implementations must wrap schema mismatches in ErrMalformed.
type Client interface {
	ExtractKeywords(ctx context.Context, jobDescription string) (KeywordSet, error)
	ScoreResume(ctx context.Context, input ScoreInput) (SubScores, error)
	SuggestImprovements(ctx context.Context, input SuggestInput) ([]Suggestion, error)
	RewriteResume(ctx context.Context, input RewriteInput) (string, error)
}
