package pipeline

import (
	"context"
	"time"

	"company_research/pkg/core/docstore"
	"company_research/pkg/core/logging"

	"go.uber.org/zap"
)

// Retrieval sources.
const (
	SourceExisting   = "existing"
	SourceDownloaded = "downloaded"
	SourceNone       = "none"
)

// DocumentRepository is the remote document store.
type DocumentRepository interface {
	ListExisting(ctx context.Context) []docstore.StoredDocument
	Upload(ctx context.Context, filePath string) (string, error)
}

// ReportSource downloads the two report kinds for a company.
type ReportSource interface {
	DownloadSEC10K(ctx context.Context, companyName string) (string, bool)
	DownloadWebAnnualReport(ctx context.Context, companyName string) (string, bool)
}

// Retrieval is the outcome of resolving a company's documents. Empty DocIDs
// means no documents are available.
type Retrieval struct {
	Company  string                    `json:"company"`
	DocIDs   []string                  `json:"doc_ids"`
	Source   string                    `json:"source"`
	Existing []docstore.StoredDocument `json:"existing,omitempty"`
	SECPath  string                    `json:"sec_path,omitempty"`
	WebPath  string                    `json:"web_path,omitempty"`
}

// Orchestrator reuses stored documents when possible and otherwise downloads
// and uploads new ones.
type Orchestrator struct {
	repo    DocumentRepository
	reports ReportSource
	logger  *zap.Logger
}

// NewOrchestrator wires the repository and report downloader.
func NewOrchestrator(repo DocumentRepository, reports ReportSource) *Orchestrator {
	return &Orchestrator{repo: repo, reports: reports, logger: logging.New("pipeline")}
}

// RetrieveCompanyDocuments returns the doc ids of stored documents matching the
// company. When there are none it fetches the latest 10-K and a web annual
// report, uploads whichever were found and returns their ids. Nothing here is fatal.
func (o *Orchestrator) RetrieveCompanyDocuments(ctx context.Context, company string) Retrieval {
	start := time.Now()
	logger := o.logger.With(zap.String("company", company))

	existing := docstore.FindForCompany(company, o.repo.ListExisting(ctx))
	if len(existing) > 0 {
		for _, doc := range existing {
			logger.Info("existing document", zap.String("file", doc.FileName), zap.String("doc_id", doc.DocID))
		}
		return Retrieval{
			Company:  company,
			DocIDs:   docstore.DocIDs(existing),
			Source:   SourceExisting,
			Existing: existing,
		}
	}
	logger.Info("no existing documents, retrieving new ones")

	r := Retrieval{Company: company, DocIDs: []string{}, Source: SourceNone}
	if path, ok := o.reports.DownloadSEC10K(ctx, company); ok {
		r.SECPath = path
	}
	if path, ok := o.reports.DownloadWebAnnualReport(ctx, company); ok {
		r.WebPath = path
	}

	for _, path := range []string{r.SECPath, r.WebPath} {
		if path == "" {
			continue
		}
		docID, err := o.repo.Upload(ctx, path)
		if err != nil {
			continue
		}
		r.DocIDs = append(r.DocIDs, docID)
	}
	if len(r.DocIDs) > 0 {
		r.Source = SourceDownloaded
	}

	logger.Info("document retrieval finished",
		zap.String("sec_10k", statusOf(r.SECPath)),
		zap.String("web_annual_report", statusOf(r.WebPath)),
		zap.Strings("doc_ids", r.DocIDs),
		zap.Duration("elapsed", time.Since(start)))
	return r
}

func statusOf(path string) string {
	if path == "" {
		return "not found"
	}
	return path
}
