// Package docstore is the client for the remote document-indexing service:
// listing stored documents, matching them to a company and uploading new files.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"company_research/pkg/core/config"
	"company_research/pkg/core/logging"
	"company_research/pkg/core/utils"

	"go.uber.org/zap"
)

// ErrMissingDocID is returned when an upload succeeds but the response carries no doc_id.
var ErrMissingDocID = errors.New("upload response missing doc_id")

// StoredDocument is a document record owned by the remote service.
type StoredDocument struct {
	DocID    string `json:"doc_id"`
	FileName string `json:"file_name"`
}

// Client talks to the document-indexing service. It only reads and creates documents.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client from the docstore section of the configuration.
func NewClient(cfg config.DocStoreConfig) *Client {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = config.DefaultQueryTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIBase, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.New("docstore"),
	}
}

// ListExisting returns every stored document. Transport errors and malformed
// bodies are logged and yield an empty slice.
func (c *Client) ListExisting(ctx context.Context) []StoredDocument {
	start := time.Now()
	list, err := c.list(ctx)
	if err == nil && len(list.Documents) == 0 {
		err = logging.ErrEmpty
	}
	logging.Observe(c.logger, "docstore.list", start, err,
		zap.Int("documents", len(list.Documents)), zap.Int("skipped", list.Skipped))
	if list.Status != ListOK {
		return []StoredDocument{}
	}
	return list.Documents
}

func (c *Client) list(ctx context.Context) (DocumentList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents", nil)
	if err != nil {
		return DocumentList{Status: ListMalformed}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DocumentList{Status: ListMalformed}, fmt.Errorf("list documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DocumentList{Status: ListMalformed}, fmt.Errorf("list documents: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DocumentList{Status: ListMalformed}, fmt.Errorf("read document list: %w", err)
	}

	list := DecodeDocumentList(body)
	if list.Status != ListOK {
		return list, fmt.Errorf("document list %s: %s", list.Status, list.Reason)
	}
	return list, nil
}

// FindForCompany keeps documents whose normalized file name contains the
// normalized company name. Records without a file name or doc id are skipped.
// A name with no letters or digits matches nothing.
func FindForCompany(companyName string, existing []StoredDocument) []StoredDocument {
	needle := utils.NormalizeCompanyName(companyName)
	matches := []StoredDocument{}
	if needle == "" {
		return matches
	}
	for _, doc := range existing {
		if doc.FileName == "" || doc.DocID == "" {
			continue
		}
		if strings.Contains(utils.NormalizeCompanyName(doc.FileName), needle) {
			matches = append(matches, doc)
		}
	}
	return matches
}

// DocIDs extracts the identifiers in order.
func DocIDs(docs []StoredDocument) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.DocID)
	}
	return ids
}

// Upload sends filePath as the multipart field "file" and returns the assigned doc_id.
func (c *Client) Upload(ctx context.Context, filePath string) (string, error) {
	start := time.Now()
	docID, err := c.upload(ctx, filePath)
	logging.Observe(c.logger, "docstore.upload", start, err,
		zap.String("file", filepath.Base(filePath)), zap.String("doc_id", docID))
	return docID, err
}

func (c *Client) upload(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(filePath), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload %s: status %d", filepath.Base(filePath), resp.StatusCode)
	}

	var data struct {
		DocID json.RawMessage `json:"doc_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	docID := scalarString(data.DocID)
	if docID == "" {
		return "", ErrMissingDocID
	}
	return docID, nil
}
