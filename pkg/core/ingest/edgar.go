// Package ingest provides SEC EDGAR lookups and document downloads for a company.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"company_research/pkg/core/config"
	"company_research/pkg/core/logging"

	"go.uber.org/zap"
)

// Form10K is the annual report form type, matched exactly.
const Form10K = "10-K"

var (
	// ErrCompanyNotFound means no entity title contains the company name.
	ErrCompanyNotFound = errors.New("company not found in SEC database")
	// ErrFormNotFound means the entity has no filing of the requested form.
	ErrFormNotFound = errors.New("filing form not found")
)

// HTTPStatusError is returned when an SEC endpoint answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("SEC returned status %d for %s", e.StatusCode, e.URL)
}

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// SECCompanyInfo represents the top-level company submission response.
type SECCompanyInfo struct {
	CIK     string     `json:"cik"`
	Name    string     `json:"name"`
	Tickers []string   `json:"tickers"`
	Filings SECFilings `json:"filings"`
}

// SECFilings contains recent and older filing lists.
type SECFilings struct {
	Recent SECRecentFilings `json:"recent"`
}

// SECRecentFilings holds arrays of filing attributes (parallel arrays).
type SECRecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000037996-24-000012"
	FilingDate      []string `json:"filingDate"`      // e.g., "2024-02-06"
	Form            []string `json:"form"`            // "10-K", "10-Q", "8-K"
	PrimaryDocument []string `json:"primaryDocument"` // filename
}

// tickerEntry is one value of company_tickers.json.
type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// CompanyFiling is the resolved location of a company's filing document.
type CompanyFiling struct {
	CIK             string `json:"cik"` // zero-padded to 10 digits
	FilingURL       string `json:"filing_url"`
	Title           string `json:"title,omitempty"`
	AccessionNumber string `json:"accession_number,omitempty"`
	FilingDate      string `json:"filing_date,omitempty"`
	PrimaryDocument string `json:"primary_document,omitempty"`
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// EDGARClient handles SEC EDGAR API requests.
type EDGARClient struct {
	httpClient *http.Client
	cfg        config.SECConfig
	logger     *zap.Logger
}

// NewEDGARClient creates a new SEC EDGAR API client.
func NewEDGARClient(cfg config.SECConfig) *EDGARClient {
	return &EDGARClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		logger:     logging.New("edgar"),
	}
}

// FindLatest10K resolves companyName to the document URL of its most recent 10-K.
// Every failure, transport or "not found", is logged and reported as false.
func (c *EDGARClient) FindLatest10K(ctx context.Context, companyName string) (*CompanyFiling, bool) {
	cik, title, err := c.ResolveCIK(ctx, companyName)
	if err != nil {
		c.logger.Info("10-K lookup stopped", zap.String("company", companyName), zap.String("step", "resolve_cik"), zap.Error(err))
		return nil, false
	}

	filing, err := c.LatestFiling(ctx, cik, Form10K)
	if err != nil {
		c.logger.Info("10-K lookup stopped", zap.String("company", companyName), zap.String("cik", cik), zap.String("step", "select_form"), zap.Error(err))
		return nil, false
	}

	filing.Title = title
	c.logger.Info("10-K located", zap.String("company", companyName), zap.String("cik", cik), zap.String("url", filing.FilingURL))
	return filing, true
}

// ResolveCIK matches companyName (case-insensitive substring) against entity titles of
// company_tickers.json and returns the first match's CIK, zero-padded, with its title.
// "First" follows the index's numeric keys, which is the order SEC publishes.
func (c *EDGARClient) ResolveCIK(ctx context.Context, companyName string) (string, string, error) {
	start := time.Now()
	body, err := c.fetch(ctx, c.cfg.TickersURL, "application/json")
	if err != nil {
		logging.Observe(c.logger, "sec.tickers", start, err)
		return "", "", err
	}

	var mapping map[string]tickerEntry
	if err := json.Unmarshal(body, &mapping); err != nil {
		err = fmt.Errorf("failed to parse ticker mapping: %w", err)
		logging.Observe(c.logger, "sec.tickers", start, err)
		return "", "", err
	}
	logging.Observe(c.logger, "sec.tickers", start, nil, zap.Int("entries", len(mapping)))

	needle := strings.ToLower(companyName)
	for _, entry := range orderedEntries(mapping) {
		if strings.Contains(strings.ToLower(entry.Title), needle) {
			return fmt.Sprintf("%010d", entry.CIK), entry.Title, nil
		}
	}

	return "", "", fmt.Errorf("%q: %w", companyName, ErrCompanyNotFound)
}

// orderedEntries returns the index values sorted by their numeric key ("0", "1", ...).
func orderedEntries(mapping map[string]tickerEntry) []tickerEntry {
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	entries := make([]tickerEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, mapping[k])
	}
	return entries
}

// FetchCompanyInfo retrieves company submission data from SEC EDGAR.
//
// CIK should be zero-padded to 10 digits (e.g., "0000037996" for Ford).
// If not padded, this function will pad it automatically.
func (c *EDGARClient) FetchCompanyInfo(ctx context.Context, cik string) (*SECCompanyInfo, error) {
	url := fmt.Sprintf("%s/CIK%s.json", strings.TrimRight(c.cfg.SubmissionsURL, "/"), padCIK(cik))

	start := time.Now()
	body, err := c.fetch(ctx, url, "application/json")
	if err != nil {
		logging.Observe(c.logger, "sec.submissions", start, err, zap.String("cik", cik))
		return nil, err
	}

	var info SECCompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		err = fmt.Errorf("failed to parse SEC response: %w", err)
		logging.Observe(c.logger, "sec.submissions", start, err, zap.String("cik", cik))
		return nil, err
	}

	logging.Observe(c.logger, "sec.submissions", start, nil, zap.String("cik", cik), zap.Int("recent", len(info.Filings.Recent.Form)))
	return &info, nil
}

// LatestFiling returns the first filing of exactly formType in the order SEC lists them.
func (c *EDGARClient) LatestFiling(ctx context.Context, cik string, formType string) (*CompanyFiling, error) {
	info, err := c.FetchCompanyInfo(ctx, cik)
	if err != nil {
		return nil, err
	}

	if !isReverseChronological(info.Filings.Recent.FilingDate) {
		// selection still takes the first match, the warning makes the assumption visible
		c.logger.Warn("recent filings are not newest-first, first match may not be the latest",
			zap.String("cik", cik))
	}

	return SelectFiling(info.Filings.Recent, padCIK(cik), formType, c.cfg.ArchiveBase)
}

// SelectFiling scans the parallel arrays and builds the archive URL of the first formType entry.
func SelectFiling(recent SECRecentFilings, cik string, formType string, archiveBase string) (*CompanyFiling, error) {
	for i, form := range recent.Form {
		if form != formType {
			continue
		}
		if i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			return nil, fmt.Errorf("filing index %d has no accession or document", i)
		}

		accession := recent.AccessionNumber[i]
		doc := recent.PrimaryDocument[i]
		filingURL, err := BuildDocumentURL(archiveBase, cik, accession, doc)
		if err != nil {
			return nil, err
		}

		filing := &CompanyFiling{
			CIK:             padCIK(cik),
			FilingURL:       filingURL,
			AccessionNumber: accession,
			PrimaryDocument: doc,
		}
		if i < len(recent.FilingDate) {
			filing.FilingDate = recent.FilingDate[i]
		}
		return filing, nil
	}

	return nil, fmt.Errorf("%s for CIK %s: %w", formType, cik, ErrFormNotFound)
}

// BuildDocumentURL composes {archiveBase}/{cik as integer}/{accession without hyphens}/{document}.
func BuildDocumentURL(archiveBase, cik, accession, primaryDocument string) (string, error) {
	cikNum, err := strconv.ParseInt(strings.TrimSpace(cik), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid CIK %q: %w", cik, err)
	}
	accessionNoDashes := strings.ReplaceAll(accession, "-", "")
	return fmt.Sprintf("%s/%d/%s/%s", strings.TrimRight(archiveBase, "/"), cikNum, accessionNoDashes, primaryDocument), nil
}

// FetchDocument downloads a filing document with the SEC identifying headers.
func (c *EDGARClient) FetchDocument(ctx context.Context, url string) (string, error) {
	start := time.Now()
	body, err := c.fetch(ctx, url, "text/html")
	logging.Observe(c.logger, "sec.document", start, err, zap.String("url", url))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *EDGARClient) fetch(ctx context.Context, url string, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// SEC requires User-Agent header
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SEC API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func padCIK(cik string) string {
	// Remove leading zeros first, then pad to 10 digits
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	return fmt.Sprintf("%010s", cik)
}

// isReverseChronological reports whether ISO dates never increase. Unparseable dates are ignored.
func isReverseChronological(dates []string) bool {
	var prev time.Time
	for _, d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		if !prev.IsZero() && t.After(prev) {
			return false
		}
		prev = t
	}
	return true
}
