// Package hybrid queries the document-indexing service against uploaded documents,
// the web, or both, and merges the two sources into one answer.
package hybrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"company_research/pkg/core/config"
	"company_research/pkg/core/logging"

	"go.uber.org/zap"
)

// Search types understood by the query service.
const (
	SearchDocuments = "documents"
	SearchWeb       = "web"
	SearchDomain    = "domain"
)

const (
	topKDocs = 7
	topKWeb  = 5

	documentInstructions  = "Focus strictly on factual information from company documents."
	webInstructions       = "Include latest market trends and competitive landscape."
	synthesisInstructions = "Synthesize key points without speculation"
)

const synthesisTemplate = `
Combine insights from these two sources:

Company Documents:
%s

Web Research:
%s

Create a comprehensive answer that highlights:
1. Key facts from official documents
2. Market context from web sources
3. Potential synergies between internal and external factors
`

// Params is one /query/ request.
type Params struct {
	Query        string
	SearchType   string
	DocIDs       []string
	TargetDomain string
	TopKDocs     int
	TopKWeb      int
	Instructions string
}

// Values encodes p as query parameters; DocIDs repeat the doc_ids key.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("query", p.Query)
	v.Set("search_type", p.SearchType)
	for _, id := range p.DocIDs {
		v.Add("doc_ids", id)
	}
	if p.TargetDomain != "" {
		v.Set("target_domain", p.TargetDomain)
	}
	if p.TopKDocs > 0 {
		v.Set("top_k_docs", strconv.Itoa(p.TopKDocs))
	}
	if p.TopKWeb > 0 {
		v.Set("top_k_web", strconv.Itoa(p.TopKWeb))
	}
	if p.Instructions != "" {
		v.Set("prompt_instructions", p.Instructions)
	}
	return v
}

// Engine issues queries against the service. Calls are sequential and uncached.
type Engine struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewEngine builds an engine from the docstore configuration.
func NewEngine(cfg config.DocStoreConfig) *Engine {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = config.DefaultQueryTimeout
	}
	return &Engine{
		baseURL:    strings.TrimRight(cfg.APIBase, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.New("hybrid"),
	}
}

// QueryDocuments searches the given documents only.
func (e *Engine) QueryDocuments(ctx context.Context, query string, docIDs []string) QueryResult {
	return e.Query(ctx, Params{
		Query:        query,
		SearchType:   SearchDocuments,
		DocIDs:       docIDs,
		TopKDocs:     topKDocs,
		Instructions: documentInstructions,
	})
}

// QueryWeb searches the web, restricted to domain when one is given.
func (e *Engine) QueryWeb(ctx context.Context, query, domain string) QueryResult {
	searchType := SearchWeb
	if domain != "" {
		searchType = SearchDomain
	}
	return e.Query(ctx, Params{
		Query:        query,
		SearchType:   searchType,
		TargetDomain: domain,
		TopKWeb:      topKWeb,
		Instructions: webInstructions,
	})
}

// HybridSearch runs the document query, then the web query, then a synthesis
// query over both bodies. A failed step contributes an empty body and the
// sequence continues.
func (e *Engine) HybridSearch(ctx context.Context, documentQuestion, webQuestion string, docIDs []string, domain string) QueryResult {
	docResults := e.QueryDocuments(ctx, documentQuestion, docIDs)
	webResults := e.QueryWeb(ctx, webQuestion, domain)
	return e.synthesize(ctx, docResults, webResults)
}

func (e *Engine) synthesize(ctx context.Context, docResults, webResults QueryResult) QueryResult {
	return e.Query(ctx, Params{
		Query:        SynthesisPrompt(docResults, webResults),
		SearchType:   SearchWeb,
		TopKWeb:      topKWeb,
		Instructions: synthesisInstructions,
	})
}

// SynthesisPrompt embeds both result bodies verbatim.
func SynthesisPrompt(docResults, webResults QueryResult) string {
	return fmt.Sprintf(synthesisTemplate, docResults.Text(), webResults.Text())
}

// Query performs one GET /query/. Any failure is logged and returns an empty result.
func (e *Engine) Query(ctx context.Context, p Params) QueryResult {
	start := time.Now()
	result, err := e.query(ctx, p)
	if err == nil && result.Empty() {
		err = logging.ErrEmpty
	}
	logging.Observe(e.logger, "query."+p.SearchType, start, err,
		zap.Int("doc_ids", len(p.DocIDs)), zap.String("target_domain", p.TargetDomain))
	return result
}

func (e *Engine) query(ctx context.Context, p Params) (QueryResult, error) {
	endpoint := e.baseURL + "/query/?" + p.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return QueryResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return QueryResult{}, fmt.Errorf("query %s: %w", p.SearchType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return QueryResult{}, fmt.Errorf("query %s: status %d", p.SearchType, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return QueryResult{}, fmt.Errorf("read query response: %w", err)
	}
	if !json.Valid(body) {
		return QueryResult{}, fmt.Errorf("query %s: response is not JSON", p.SearchType)
	}
	return QueryResult{Raw: body}, nil
}
