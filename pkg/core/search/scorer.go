// Package search finds candidate annual report PDFs on the web and ranks them.
package search

import (
	"net/url"
	"sort"
	"strings"

	"company_research/pkg/core/utils"
)

// CandidateLink is a scored search result. It only lives for one selection.
type CandidateLink struct {
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// Heuristic weights. Contributions are independent and additive.
const (
	scoreAnnual      = 2
	scoreDomainMatch = 3
	scoreYear        = 1
)

// ScoreLinks filters urls down to PDF links and scores each one against companyName.
// The result is ordered by score descending; equal scores keep their search order.
func ScoreLinks(urls []string, companyName string) []CandidateLink {
	normName := utils.NormalizeCompanyName(companyName)

	scored := make([]CandidateLink, 0, len(urls))
	for _, u := range urls {
		if !isPDF(u) {
			continue
		}
		scored = append(scored, CandidateLink{URL: u, Score: scoreLink(u, normName)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// ScoreAndSelect returns the best scoring PDF link, or false when no url is a PDF.
func ScoreAndSelect(urls []string, companyName string) (string, bool) {
	scored := ScoreLinks(urls, companyName)
	if len(scored) == 0 {
		return "", false
	}
	return scored[0].URL, true
}

func scoreLink(rawURL, normName string) int {
	lower := strings.ToLower(rawURL)
	score := 0

	if strings.Contains(lower, "annual") {
		score += scoreAnnual
	}

	// An empty name is a substring of everything, do not reward it
	if normName != "" && strings.Contains(utils.NormalizeCompanyName(hostOf(rawURL)), normName) {
		score += scoreDomainMatch
	}

	if strings.Contains(lower, "2024") || strings.Contains(lower, "fy2024") {
		score += scoreYear
	}

	return score
}

// isPDF reports whether the URL path ends in .pdf, ignoring case, query and fragment.
func isPDF(rawURL string) bool {
	if u, err := parseLoose(rawURL); err == nil && u.Path != "" {
		return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
	}
	return strings.HasSuffix(strings.ToLower(rawURL), ".pdf")
}

func hostOf(rawURL string) string {
	u, err := parseLoose(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// parseLoose parses scheme-less links ("acme.com/report.pdf") as if they were http URLs.
func parseLoose(rawURL string) (*url.URL, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + strings.TrimPrefix(rawURL, "//")
	}
	return url.Parse(rawURL)
}
