package ats

import (
	"time"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
)

// Analysis is an immutable record of one analysis run. PreviousScore is
// fixed at creation from the most recent prior analysis of the same
// resume; the delta is derived on read and never stored.
type Analysis struct {
	ID             string `json:"id"`
	ResumeID       string `json:"resumeId"`
	UserID         string `json:"-"`
	JobDescription string `json:"jobDescription"`
	JobTitle       string `json:"jobTitle,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`

	OverallScore       int `json:"overallScore"`
	reasoner.SubScores     // keywordScore, formatScore, experienceScore, skillsScore, actionWordScore
	PreviousScore      int `json:"previousScore"`

	MatchedKeywords []string              `json:"matchedKeywords"`
	MissingKeywords []string              `json:"missingKeywords"`
	Suggestions     []reasoner.Suggestion `json:"suggestions"`

	CreatedAt time.Time `json:"createdAt"`
}

// View is an Analysis plus its derived score delta.
type View struct {
	Analysis
	Delta int `json:"delta"`
}

// NewView computes the read-side delta.
func NewView(a Analysis) View {
	return View{Analysis: a, Delta: a.OverallScore - a.PreviousScore}
}

// ScoreBreakdown is the transient output of one scoring pass.
type ScoreBreakdown struct {
	Scores          reasoner.SubScores
	OverallScore    int
	MatchedKeywords []string
	MissingKeywords []string
}
