package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"company_research/pkg/core/export"
	"company_research/pkg/core/hybrid"
	"company_research/pkg/core/logging"
	"company_research/pkg/core/prompt"
	"company_research/pkg/core/store"
	"company_research/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresetCategory labels the answers of a preset analysis.
const PresetCategory = "Preset Questions"

var (
	ErrNoCompany   = errors.New("company name is required")
	ErrNoDocuments = errors.New("no documents available for analysis")
	ErrNoQuestions = errors.New("no prompts found for the selected categories")
	ErrInvalidMode = errors.New("unknown search mode")
)

// QueryEngine answers one question from documents, the web, or both.
type QueryEngine interface {
	QueryDocuments(ctx context.Context, query string, docIDs []string) hybrid.QueryResult
	QueryWeb(ctx context.Context, query, domain string) hybrid.QueryResult
	HybridSearch(ctx context.Context, documentQuestion, webQuestion string, docIDs []string, domain string) hybrid.QueryResult
}

// QuestionSource supplies catalog questions.
type QuestionSource interface {
	Select(categories []string) []prompt.CategoryQuestions
	Presets() []prompt.AnalysisQuestion
}

// ResultExporter writes one category's answers.
type ResultExporter interface {
	WriteCategory(company, category string, rows []export.Row) (string, error)
}

// AnalysisRequest selects what to ask about a company.
type AnalysisRequest struct {
	Company         string   `json:"company"`
	DocIDs          []string `json:"doc_ids"`
	Categories      []string `json:"categories"`
	Mode            string   `json:"mode"`
	CustomQuestions []string `json:"custom_questions"`
}

// Runner answers catalog and custom questions and records the run.
// exporter and runs are optional.
type Runner struct {
	engine   QueryEngine
	catalog  QuestionSource
	exporter ResultExporter
	runs     store.RunRepository
	logger   *zap.Logger

	// OnAnswer, when set, is called after every answered question.
	OnAnswer func(category string, result models.QuestionResult)
}

func NewRunner(engine QueryEngine, catalog QuestionSource, exporter ResultExporter, runs store.RunRepository) *Runner {
	return &Runner{
		engine:   engine,
		catalog:  catalog,
		exporter: exporter,
		runs:     runs,
		logger:   logging.New("runner"),
	}
}

// WithProgress returns a copy of r that reports each answer to fn.
func (r *Runner) WithProgress(fn func(category string, result models.QuestionResult)) *Runner {
	cp := *r
	cp.OnAnswer = fn
	return &cp
}

// ValidMode reports whether mode is one of the category analysis modes.
func ValidMode(mode string) bool {
	switch mode {
	case models.ModeDocuments, models.ModeWeb, models.ModeHybrid:
		return true
	}
	return false
}

// Run answers every prompt of the requested categories, then the custom
// questions, in the requested mode. Each category is exported to its own workbook.
func (r *Runner) Run(ctx context.Context, req AnalysisRequest) (*models.AnalysisRun, error) {
	if req.Company == "" {
		return nil, ErrNoCompany
	}
	if req.Mode == "" {
		req.Mode = models.ModeHybrid
	}
	if !ValidMode(req.Mode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	groups := r.catalog.Select(req.Categories)
	if custom := nonBlank(req.CustomQuestions); len(custom) > 0 {
		groups = append(groups, prompt.CategoryQuestions{Category: prompt.CustomCategory, Prompts: custom})
	}
	if len(groups) == 0 {
		return nil, ErrNoQuestions
	}
	if req.Mode != models.ModeWeb && len(req.DocIDs) == 0 {
		return nil, ErrNoDocuments
	}

	run := &models.AnalysisRun{
		ID:        uuid.NewString(),
		Company:   req.Company,
		Mode:      req.Mode,
		DocIDs:    req.DocIDs,
		StartedAt: time.Now().UTC(),
	}
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := models.CategoryResult{Category: group.Category}
		for _, p := range group.Prompts {
			res := r.ask(ctx, req, p)
			result.Results = append(result.Results, res)
			if r.OnAnswer != nil {
				r.OnAnswer(group.Category, res)
			}
		}
		run.Categories = append(run.Categories, result)
		r.export(run, result)
	}
	run.FinishedAt = time.Now().UTC()

	r.save(ctx, run)
	return run, nil
}

func (r *Runner) ask(ctx context.Context, req AnalysisRequest, question string) models.QuestionResult {
	webQuestion := fmt.Sprintf("%s for %s", question, req.Company)

	var result hybrid.QueryResult
	switch req.Mode {
	case models.ModeDocuments:
		result = r.engine.QueryDocuments(ctx, question, req.DocIDs)
	case models.ModeWeb:
		result = r.engine.QueryWeb(ctx, webQuestion, "")
	default:
		result = r.engine.HybridSearch(ctx, question, webQuestion, req.DocIDs, "")
	}

	return models.QuestionResult{
		Prompt:     question,
		Response:   result.Answer(),
		SearchType: models.SearchTypeLabel(req.Mode),
	}
}

// RunPreset asks every preset question with hybrid search, filtering the web
// side to the question's domain when it has one.
func (r *Runner) RunPreset(ctx context.Context, company string, docIDs []string) (*models.AnalysisRun, error) {
	if company == "" {
		return nil, ErrNoCompany
	}
	if len(docIDs) == 0 {
		return nil, ErrNoDocuments
	}

	run := &models.AnalysisRun{
		ID:        uuid.NewString(),
		Company:   company,
		Mode:      models.ModePreset,
		DocIDs:    docIDs,
		StartedAt: time.Now().UTC(),
	}
	category := models.CategoryResult{Category: PresetCategory}
	for _, q := range r.catalog.Presets() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := r.engine.HybridSearch(ctx, q.Question, company+" "+q.Question, docIDs, q.WebDomain)
		res := models.QuestionResult{
			Prompt:     q.Question,
			Response:   result.Answer(),
			SearchType: models.SearchTypeHybrid,
			WebDomain:  q.WebDomain,
		}
		category.Results = append(category.Results, res)
		if r.OnAnswer != nil {
			r.OnAnswer(PresetCategory, res)
		}
	}
	run.Categories = []models.CategoryResult{category}
	run.FinishedAt = time.Now().UTC()

	r.save(ctx, run)
	return run, nil
}

// AnalyzeWithPresets retrieves the company's documents and runs the preset questions.
func AnalyzeWithPresets(ctx context.Context, o *Orchestrator, r *Runner, company string) (Retrieval, *models.AnalysisRun, error) {
	retrieval := o.RetrieveCompanyDocuments(ctx, company)
	if len(retrieval.DocIDs) == 0 {
		return retrieval, nil, ErrNoDocuments
	}
	run, err := r.RunPreset(ctx, company, retrieval.DocIDs)
	return retrieval, run, err
}

func (r *Runner) export(run *models.AnalysisRun, result models.CategoryResult) {
	if r.exporter == nil {
		return
	}
	rows := make([]export.Row, 0, len(result.Results))
	for _, res := range result.Results {
		rows = append(rows, export.Row{Prompt: res.Prompt, Response: res.Response, SearchType: res.SearchType})
	}
	path, err := r.exporter.WriteCategory(run.Company, result.Category, rows)
	if err != nil {
		r.logger.Warn("export failed", zap.String("category", result.Category), zap.Error(err))
		return
	}
	run.Exports = append(run.Exports, path)
}

func (r *Runner) save(ctx context.Context, run *models.AnalysisRun) {
	if r.runs == nil {
		return
	}
	if err := r.runs.Save(ctx, run); err != nil {
		r.logger.Warn("run not persisted", zap.String("company", run.Company), zap.Error(err))
	}
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
