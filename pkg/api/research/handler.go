// Package research provides the HTTP API for document retrieval and company analysis.
package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"company_research/pkg/core/logging"
	"company_research/pkg/core/pipeline"
	"company_research/pkg/core/prompt"
	"company_research/pkg/core/store"
	"company_research/pkg/core/utils"
	"company_research/pkg/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Retriever resolves a company's documents.
type Retriever interface {
	RetrieveCompanyDocuments(ctx context.Context, company string) pipeline.Retrieval
}

// Catalog lists the available questions.
type Catalog interface {
	Categories() []string
	Select(categories []string) []prompt.CategoryQuestions
	Presets() []prompt.AnalysisQuestion
}

// WorkbookResolver locates exported workbooks.
type WorkbookResolver interface {
	Resolve(company, name string) (string, error)
}

// Handler holds dependencies for research endpoints.
type Handler struct {
	retriever Retriever
	runner    *pipeline.Runner
	catalog   Catalog
	runs      store.RunRepository
	exports   WorkbookResolver
	sessions  *SessionStore
	logger    *zap.Logger
}

// NewHandler creates a new research handler.
func NewHandler(retriever Retriever, runner *pipeline.Runner, catalog Catalog, runs store.RunRepository, exports WorkbookResolver) *Handler {
	return &Handler{
		retriever: retriever,
		runner:    runner,
		catalog:   catalog,
		runs:      runs,
		exports:   exports,
		sessions:  NewSessionStore(),
		logger:    logging.New("api"),
	}
}

// Routes mounts the research endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/questions", h.HandleQuestions)
		r.Post("/documents/retrieve", h.HandleRetrieve)
		r.Get("/documents/{company}", h.HandleDocuments)
		r.Post("/analysis/run", h.HandleRunAnalysis)
		r.Get("/analysis/stream", h.HandleAnalysisStream)
		r.Post("/analysis/preset", h.HandlePresetAnalysis)
		r.Get("/analysis/runs", h.HandleListRuns)
		r.Get("/analysis/runs/{id}", h.HandleGetRun)
		r.Get("/analysis/runs/{id}/report", h.HandleRunReport)
		r.Get("/exports/{company}/{file}", h.HandleExport)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pathParam returns the unescaped route parameter.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// QuestionsResponse is the catalog as served to clients.
type QuestionsResponse struct {
	Categories []string                   `json:"categories"`
	Questions  []prompt.CategoryQuestions `json:"questions"`
	Presets    []prompt.AnalysisQuestion  `json:"presets"`
}

// HandleQuestions handles GET /api/questions
func (h *Handler) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, QuestionsResponse{
		Categories: append(h.catalog.Categories(), prompt.CategoryAll),
		Questions:  h.catalog.Select([]string{prompt.CategoryAll}),
		Presets:    h.catalog.Presets(),
	})
}

type CompanyRequest struct {
	Company string `json:"company"`
}

func decodeCompany(r *http.Request) (string, error) {
	var req CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errors.New("invalid request body")
	}
	company := strings.TrimSpace(req.Company)
	if utils.NormalizeCompanyName(company) == "" {
		return "", pipeline.ErrNoCompany
	}
	return company, nil
}

// HandleRetrieve handles POST /api/documents/retrieve
func (h *Handler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	company, err := decodeCompany(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	retrieval := h.retriever.RetrieveCompanyDocuments(r.Context(), company)
	if len(retrieval.DocIDs) > 0 {
		h.sessions.Put(company, retrieval.DocIDs, retrieval.Source)
	}
	writeJSON(w, http.StatusOK, retrieval)
}

// HandleDocuments handles GET /api/documents/{company}
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	company := pathParam(r, "company")
	sess, ok := h.sessions.Get(company)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no documents retrieved for %s", company))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// RunRequest is the body of POST /api/analysis/run. DocIDs default to the
// company's session.
type RunRequest struct {
	Company         string   `json:"company"`
	Categories      []string `json:"categories"`
	Mode            string   `json:"mode"`
	CustomQuestions []string `json:"custom_questions"`
	DocIDs          []string `json:"doc_ids,omitempty"`
}

func (h *Handler) analysisRequest(req RunRequest) pipeline.AnalysisRequest {
	docIDs := req.DocIDs
	if len(docIDs) == 0 {
		if sess, ok := h.sessions.Get(req.Company); ok {
			docIDs = sess.DocIDs
		}
	}
	return pipeline.AnalysisRequest{
		Company:         strings.TrimSpace(req.Company),
		DocIDs:          docIDs,
		Categories:      req.Categories,
		Mode:            req.Mode,
		CustomQuestions: req.CustomQuestions,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoCompany), errors.Is(err, pipeline.ErrInvalidMode), errors.Is(err, pipeline.ErrNoQuestions):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoDocuments):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleRunAnalysis handles POST /api/analysis/run
func (h *Handler) HandleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	run, err := h.runner.Run(r.Context(), h.analysisRequest(req))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ProgressEvent is one server-sent event of a streamed analysis.
type ProgressEvent struct {
	Step     string                 `json:"step"`
	Category string                 `json:"category,omitempty"`
	Result   *models.QuestionResult `json:"result,omitempty"`
	RunID    string                 `json:"run_id,omitempty"`
	Detail   string                 `json:"detail,omitempty"`
}

// HandleAnalysisStream handles GET /api/analysis/stream?company=&mode=&category=&question=
// and streams each answer as it arrives.
func (h *Handler) HandleAnalysisStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent := func(event ProgressEvent) {
		data, _ := json.Marshal(event)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	q := r.URL.Query()
	req := h.analysisRequest(RunRequest{
		Company:         q.Get("company"),
		Mode:            q.Get("mode"),
		Categories:      q["category"],
		CustomQuestions: q["question"],
	})

	sendEvent(ProgressEvent{Step: "init", Detail: "Connection established"})
	runner := h.runner.WithProgress(func(category string, res models.QuestionResult) {
		sendEvent(ProgressEvent{Step: "answer", Category: category, Result: &res})
	})

	run, err := runner.Run(r.Context(), req)
	if err != nil {
		sendEvent(ProgressEvent{Step: "error", Detail: err.Error()})
		return
	}
	sendEvent(ProgressEvent{Step: "done", RunID: run.ID})
}

// PresetResponse is the result of a preset analysis.
type PresetResponse struct {
	Retrieval pipeline.Retrieval  `json:"retrieval"`
	Run       *models.AnalysisRun `json:"run"`
}

// HandlePresetAnalysis handles POST /api/analysis/preset. It retrieves documents
// when the company has no session yet.
func (h *Handler) HandlePresetAnalysis(w http.ResponseWriter, r *http.Request) {
	company, err := decodeCompany(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var retrieval pipeline.Retrieval
	if sess, ok := h.sessions.Get(company); ok {
		retrieval = pipeline.Retrieval{Company: company, DocIDs: sess.DocIDs, Source: sess.Source}
	} else {
		retrieval = h.retriever.RetrieveCompanyDocuments(r.Context(), company)
		if len(retrieval.DocIDs) > 0 {
			h.sessions.Put(company, retrieval.DocIDs, retrieval.Source)
		}
	}

	run, err := h.runner.RunPreset(r.Context(), company, retrieval.DocIDs)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PresetResponse{Retrieval: retrieval, Run: run})
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*models.AnalysisRun, bool) {
	run, err := h.runs.Load(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			h.logger.Warn("load run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load run")
		}
		return nil, false
	}
	return run, true
}

// RunSummary is one entry of a company's run history.
type RunSummary struct {
	ID         string    `json:"id"`
	Company    string    `json:"company"`
	Mode       string    `json:"mode"`
	Questions  int       `json:"questions"`
	Exports    []string  `json:"exports,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// HandleListRuns handles GET /api/analysis/runs?company= and lists the
// company's stored runs, newest first.
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company == "" {
		writeError(w, http.StatusBadRequest, pipeline.ErrNoCompany.Error())
		return
	}

	runs, err := h.runs.ListByCompany(r.Context(), company)
	if err != nil {
		h.logger.Warn("list runs failed", zap.String("company", company), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, RunSummary{
			ID:         run.ID,
			Company:    run.Company,
			Mode:       run.Mode,
			Questions:  run.QuestionCount(),
			Exports:    run.Exports,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HandleGetRun handles GET /api/analysis/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if run, ok := h.loadRun(w, r); ok {
		writeJSON(w, http.StatusOK, run)
	}
}

const reportPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s analysis</title></head>
<body>
%s
</body></html>
`

// HandleRunReport handles GET /api/analysis/runs/{id}/report
func (h *Handler) HandleRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	body, err := utils.RenderMarkdownHTML(pipeline.ReportMarkdown(run))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, reportPage, html.EscapeString(run.Company), body)
}

// HandleExport handles GET /api/exports/{company}/{file}
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	company, file := pathParam(r, "company"), pathParam(r, "file")
	path, err := h.exports.Resolve(company, file)
	if err != nil {
		writeError(w, http.StatusNotFound, "workbook not found")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	http.ServeFile(w, r, path)
}
