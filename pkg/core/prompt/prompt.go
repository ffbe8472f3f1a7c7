// Package prompt provides the question catalog used for company analysis.
// Questions are grouped by category and loaded from YAML, HJSON/JSON or XLSX
// files at runtime, so the catalog can change without code changes.
package prompt

// CategoryAll selects every category in the catalog.
const CategoryAll = "ALL"

// CustomCategory groups user-supplied questions for export.
const CustomCategory = "Custom Questions"

// DefaultCategories is the category order shown to users. Catalog.Categories
// lists these before any other category.
var DefaultCategories = []string{
	"Company Overview",
	"Strengths (Internal Positive Factors)",
	"Weaknesses (Internal Negative Factors)",
	"Opportunities (External Positive Factors)",
	"Threats (External Negative Factors)",
	"Additional Questions",
}

// Question is one catalog prompt.
type Question struct {
	Category string `json:"category" yaml:"category"`
	Prompt   string `json:"prompt" yaml:"prompt"`
}

// CategoryQuestions is one category with its prompts in catalog order.
type CategoryQuestions struct {
	Category string   `json:"category"`
	Prompts  []string `json:"prompts"`
}

// AnalysisQuestion is a preset question with an optional web domain filter.
type AnalysisQuestion struct {
	Question  string `json:"question" yaml:"question"`
	WebDomain string `json:"web_domain,omitempty" yaml:"web_domain"`
}

// PresetQuestions drive the preset (non-category) company analysis.
var PresetQuestions = []AnalysisQuestion{
	{
		Question:  "What was the company's revenue and net income for the most recent fiscal year?",
		WebDomain: "bloomberg.com",
	},
	{
		Question:  "What are the company's main products or services and their market segments?",
		WebDomain: "reuters.com",
	},
	{
		Question: "What are the key risks and challenges mentioned in the company's annual report?",
	},
	{
		Question:  "Who are the company's main competitors and what is their market share?",
		WebDomain: "marketwatch.com",
	},
}
