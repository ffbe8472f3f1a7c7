package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"company_research/pkg/core/logging"

	"go.uber.org/zap"
)

// FilingLocator resolves a company to its latest 10-K and fetches documents from SEC.
type FilingLocator interface {
	FindLatest10K(ctx context.Context, companyName string) (*CompanyFiling, bool)
	FetchDocument(ctx context.Context, url string) (string, error)
}

// ReportLinkFinder picks a web-hosted annual report PDF for a company.
type ReportLinkFinder interface {
	FindAnnualReportPDF(ctx context.Context, companyName string) (string, bool)
}

// PDFDownloader saves a remote PDF locally.
type PDFDownloader interface {
	DownloadPDF(ctx context.Context, url, companyName, reportType string) (string, error)
}

// ReportFetcher downloads the two document kinds a company analysis starts from.
type ReportFetcher struct {
	locator    FilingLocator
	renderer   Renderer
	finder     ReportLinkFinder
	downloader PDFDownloader
	dir        string
	logger     *zap.Logger
}

// NewReportFetcher wires the SEC path (locator + renderer) and the web path (finder + downloader).
func NewReportFetcher(locator FilingLocator, renderer Renderer, finder ReportLinkFinder, downloader PDFDownloader, dir string) *ReportFetcher {
	return &ReportFetcher{
		locator:    locator,
		renderer:   renderer,
		finder:     finder,
		downloader: downloader,
		dir:        dir,
		logger:     logging.New("reports"),
	}
}

// DownloadSEC10K locates the latest 10-K, fetches its HTML and renders it to
// {company}_10-K.pdf. Returns false when any step produced nothing.
func (f *ReportFetcher) DownloadSEC10K(ctx context.Context, companyName string) (string, bool) {
	filing, ok := f.locator.FindLatest10K(ctx, companyName)
	if !ok {
		return "", false
	}

	htmlContent, err := f.locator.FetchDocument(ctx, filing.FilingURL)
	if err != nil {
		return "", false
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		f.logger.Warn("cannot create download dir", zap.String("dir", f.dir), zap.Error(err))
		return "", false
	}
	outPath := filepath.Join(f.dir, ReportFileName(companyName, ReportType10K))

	start := time.Now()
	err = f.renderer.RenderPDF(ctx, htmlContent, filing.FilingURL, outPath)
	logging.Observe(f.logger, "pdf.render", start, err, zap.String("url", filing.FilingURL), zap.String("path", outPath))
	if err != nil {
		return "", false
	}
	return outPath, true
}

// DownloadWebAnnualReport searches for an annual report PDF and downloads it as
// {company}_Annual_Report.pdf. Returns false when nothing was found or the download failed.
func (f *ReportFetcher) DownloadWebAnnualReport(ctx context.Context, companyName string) (string, bool) {
	url, ok := f.finder.FindAnnualReportPDF(ctx, companyName)
	if !ok {
		return "", false
	}

	path, err := f.downloader.DownloadPDF(ctx, url, companyName, ReportTypeAnnual)
	if err != nil {
		return "", false
	}
	return path, true
}
