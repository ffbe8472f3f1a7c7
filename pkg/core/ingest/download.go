package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"company_research/pkg/core/logging"
	"company_research/pkg/core/utils"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Report types used in downloaded file names.
const (
	ReportTypeAnnual = "Annual_Report"
	ReportType10K    = "10-K"
)

// ReportFileName is "{company}_{reportType}.pdf" with the company made file safe.
func ReportFileName(companyName, reportType string) string {
	return fmt.Sprintf("%s_%s.pdf", utils.FileSafeName(companyName), reportType)
}

// Downloader fetches web-hosted PDFs with browser-like headers and a fixed timeout.
type Downloader struct {
	client    *http.Client
	userAgent string
	dir       string
	validate  func(path string) (int, error)
	logger    *zap.Logger
}

// NewDownloader stores files in dir; timeout applies to the whole download.
func NewDownloader(dir, userAgent string, timeout time.Duration) *Downloader {
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		dir:       dir,
		validate:  CountPDFPages,
		logger:    logging.New("download"),
	}
}

// DownloadPDF streams url into {dir}/{company}_{reportType}.pdf and returns the path.
// A response that does not parse as a PDF is removed and reported as an error.
func (d *Downloader) DownloadPDF(ctx context.Context, url, companyName, reportType string) (string, error) {
	start := time.Now()
	path, pages, err := d.download(ctx, url, companyName, reportType)
	logging.Observe(d.logger, "web.download", start, err, zap.String("url", url), zap.Int("pages", pages))
	return path, err
}

func (d *Downloader) download(ctx context.Context, url, companyName, reportType string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("Referer", "https://www.google.com")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(d.dir, ReportFileName(companyName, reportType))

	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}

	pages := 0
	if d.validate != nil {
		pages, err = d.validate(path)
		if err != nil {
			os.Remove(path)
			return "", 0, fmt.Errorf("downloaded file is not a usable PDF: %w", err)
		}
	}

	return path, pages, nil
}

// CountPDFPages opens the file with ledongthuc/pdf and returns its page count.
func CountPDFPages(path string) (n int, err error) {
	defer func() {
		// the parser panics on some truncated xref tables
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n = r.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return n, nil
}
