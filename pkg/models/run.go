package models

import (
	"time"
)

// Search modes for category analysis.
const (
	ModeDocuments = "documents"
	ModeWeb       = "web"
	ModeHybrid    = "hybrid"
	ModePreset    = "preset"
)

// Search type labels recorded next to each answer.
const (
	SearchTypeDocuments = "Documents Only"
	SearchTypeWeb       = "Web Only"
	SearchTypeHybrid    = "Hybrid"
)

// AnalysisRun is one analysis of a company over a set of questions.
type AnalysisRun struct {
	ID         string           `json:"id"`
	Company    string           `json:"company"`
	Mode       string           `json:"mode"`
	DocIDs     []string         `json:"doc_ids"`
	Categories []CategoryResult `json:"categories"`
	Exports    []string         `json:"exports,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// CategoryResult groups the answers of one question category.
type CategoryResult struct {
	Category string           `json:"category"`
	Results  []QuestionResult `json:"results"`
}

// QuestionResult is one answered question.
type QuestionResult struct {
	Prompt     string `json:"prompt"`
	Response   string `json:"response"`
	SearchType string `json:"search_type"`
	WebDomain  string `json:"web_domain,omitempty"`
}

// QuestionCount totals the answers across categories.
func (r *AnalysisRun) QuestionCount() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Results)
	}
	return n
}

// SearchTypeLabel maps a mode to its display label; unknown modes are Hybrid.
func SearchTypeLabel(mode string) string {
	switch mode {
	case ModeDocuments:
		return SearchTypeDocuments
	case ModeWeb:
		return SearchTypeWeb
	default:
		return SearchTypeHybrid
	}
}
