package prompt

import (
	"sync"
)

// Catalog holds the loaded questions. It is safe for concurrent use; Replace
// swaps the whole set so readers never see a partial reload.
type Catalog struct {
	questions []Question
	presets   []AnalysisQuestion
	source    string
	mu        sync.RWMutex
}

// NewCatalog builds a catalog from questions and the built-in presets.
func NewCatalog(questions []Question) *Catalog {
	c := &Catalog{presets: PresetQuestions}
	c.Replace(questions, "")
	return c
}

// Replace swaps the question set. Blank prompts are dropped.
func (c *Catalog) Replace(questions []Question, source string) {
	kept := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.Category == "" || q.Prompt == "" {
			continue
		}
		kept = append(kept, q)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions = kept
	c.source = source
}

// Source is the file the current questions were loaded from, if any.
func (c *Catalog) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// Count returns the number of questions.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.questions)
}

// Presets returns the preset analysis questions.
func (c *Catalog) Presets() []AnalysisQuestion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]AnalysisQuestion(nil), c.presets...)
}

// Categories lists the catalog's categories. Those in DefaultCategories come
// first in that order, the rest follow in order of first appearance.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var found []string
	for _, q := range c.questions {
		if !seen[q.Category] {
			seen[q.Category] = true
			found = append(found, q.Category)
		}
	}

	out := make([]string, 0, len(found))
	known := make(map[string]bool, len(DefaultCategories))
	for _, cat := range DefaultCategories {
		known[cat] = true
		if seen[cat] {
			out = append(out, cat)
		}
	}
	for _, cat := range found {
		if !known[cat] {
			out = append(out, cat)
		}
	}
	return out
}

// Select groups the prompts of the requested categories, in catalog order.
// CategoryAll anywhere in categories selects everything. Unknown categories
// are ignored; the result is empty when nothing matches.
func (c *Catalog) Select(categories []string) []CategoryQuestions {
	all := false
	wanted := make(map[string]bool, len(categories))
	for _, cat := range categories {
		if cat == CategoryAll {
			all = true
		}
		wanted[cat] = true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	index := make(map[string]int)
	var out []CategoryQuestions
	for _, q := range c.questions {
		if !all && !wanted[q.Category] {
			continue
		}
		i, ok := index[q.Category]
		if !ok {
			i = len(out)
			index[q.Category] = i
			out = append(out, CategoryQuestions{Category: q.Category})
		}
		out[i].Prompts = append(out[i].Prompts, q.Prompt)
	}
	return out
}
