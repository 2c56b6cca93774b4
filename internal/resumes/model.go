package resumes

import "time"

// Status is the resume lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusAnalyzing Status = "ANALYZING"
	StatusOptimized Status = "OPTIMIZED"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusAnalyzing, StatusOptimized:
		return true
	}
	return false
}

// Resume is the stored resume record. Version guards status transitions:
// every mutation bumps it, and transitions name the version they observed.
type Resume struct {
	ID               string    `json:"id"`
	UserID           string    `json:"-"`
	Title            string    `json:"title"`
	OriginalText     string    `json:"originalText"`
	OptimizedText    *string   `json:"optimizedText,omitempty"`
	CurrentScore     int       `json:"currentScore"`
	Status           Status    `json:"status"`
	OptimizedFileKey *string   `json:"-"`
	Version          int64     `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Stats aggregates a user's resumes.
type Stats struct {
	TotalResumes   int `json:"totalResumes"`
	AverageScore   int `json:"averageScore"`
	OptimizedToday int `json:"optimizedToday"`
}
