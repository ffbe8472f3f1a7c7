package search

import (
	"context"
	"fmt"
	"time"

	"company_research/pkg/core/logging"

	"go.uber.org/zap"
)

// WebSearcher returns result URLs for a free-text query, best first.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// AnnualReportFinder runs the annual-report query and picks the best PDF link.
type AnnualReportFinder struct {
	searcher   WebSearcher
	maxResults int
	logger     *zap.Logger
}

// NewAnnualReportFinder wires a searcher; maxResults <= 0 falls back to 20.
func NewAnnualReportFinder(searcher WebSearcher, maxResults int) *AnnualReportFinder {
	if maxResults <= 0 {
		maxResults = 20
	}
	return &AnnualReportFinder{
		searcher:   searcher,
		maxResults: maxResults,
		logger:     logging.New("search"),
	}
}

// AnnualReportQuery is the query sent to the web searcher for a company.
func AnnualReportQuery(companyName string) string {
	return fmt.Sprintf(`"%s" "annual report" filetype:pdf`, companyName)
}

// FindAnnualReportPDF searches the web and returns the selected PDF URL.
// Search failures and "no PDF" both come back as false.
func (f *AnnualReportFinder) FindAnnualReportPDF(ctx context.Context, companyName string) (string, bool) {
	query := AnnualReportQuery(companyName)
	start := time.Now()

	results, err := f.searcher.Search(ctx, query, f.maxResults)
	if err != nil {
		logging.Observe(f.logger, "web.search", start, err, zap.String("query", query))
		return "", false
	}

	best, ok := ScoreAndSelect(results, companyName)
	if !ok {
		logging.Observe(f.logger, "web.search", start,
			fmt.Errorf("no PDF among %d results: %w", len(results), logging.ErrEmpty),
			zap.String("query", query))
		return "", false
	}

	logging.Observe(f.logger, "web.search", start, nil,
		zap.String("query", query), zap.Int("results", len(results)), zap.String("selected", best))
	return best, true
}
