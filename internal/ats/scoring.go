package ats

import (
	"math"
	"strings"

	"github.com/Moniqchege/resume-builder/internal/reasoner"
)

// Overall score weights. These are policy constants: the reasoner supplies
// category scores, never the aggregation.
const (
	weightKeyword    = 0.35
	weightFormat     = 0.20
	weightExperience = 0.20
	weightSkills     = 0.15
	weightActionWord = 0.10
)

// DefaultBaselineKeywordScore is used when a job description yields no
// required or preferred keywords, so keyword matching is meaningless.
const DefaultBaselineKeywordScore = 50

// MatchKeywords splits keywords into those literally present in the
// resume text and those absent. Matching is case-insensitive substring
// containment, input order is preserved, duplicates are dropped.
func MatchKeywords(resumeText string, keywords []string) (matched, missing []string) {
	matched = []string{}
	missing = []string{}
	haystack := strings.ToLower(resumeText)
	seen := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		trimmed := strings.TrimSpace(keyword)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		if strings.Contains(haystack, lower) {
			matched = append(matched, trimmed)
		} else {
			missing = append(missing, trimmed)
		}
	}
	return matched, missing
}

// TargetKeywords builds the scoring target: required then preferred,
// order preserved, case-insensitive duplicates dropped.
func TargetKeywords(set reasoner.KeywordSet) []string {
	out := make([]string, 0, len(set.Required)+len(set.Preferred))
	seen := make(map[string]struct{})
	for _, group := range [][]string{set.Required, set.Preferred} {
		for _, keyword := range group {
			trimmed := strings.TrimSpace(keyword)
			if trimmed == "" {
				continue
			}
			lower := strings.ToLower(trimmed)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			out = append(out, trimmed)
		}
	}
	return out
}

// OverallScore aggregates sub-scores with the fixed weights.
func OverallScore(s reasoner.SubScores) int {
	weighted := float64(s.Keyword)*weightKeyword +
		float64(s.Format)*weightFormat +
		float64(s.Experience)*weightExperience +
		float64(s.Skills)*weightSkills +
		float64(s.ActionWord)*weightActionWord
	return int(math.Round(weighted))
}

func clampScores(s reasoner.SubScores) reasoner.SubScores {
	s.Keyword = clamp(s.Keyword)
	s.Format = clamp(s.Format)
	s.Experience = clamp(s.Experience)
	s.Skills = clamp(s.Skills)
	s.ActionWord = clamp(s.ActionWord)
	return s
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
