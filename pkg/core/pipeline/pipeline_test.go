package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"company_research/pkg/core/docstore"
	"company_research/pkg/core/export"
	"company_research/pkg/core/hybrid"
	"company_research/pkg/core/prompt"
	"company_research/pkg/models"

	"github.com/google/go-cmp/cmp"
)

// --- Mocks ---

type MockRepository struct {
	ListFunc   func(ctx context.Context) []docstore.StoredDocument
	UploadFunc func(ctx context.Context, filePath string) (string, error)
	uploads    []string
}

func (m *MockRepository) ListExisting(ctx context.Context) []docstore.StoredDocument {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []docstore.StoredDocument{}
}

func (m *MockRepository) Upload(ctx context.Context, filePath string) (string, error) {
	m.uploads = append(m.uploads, filePath)
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, filePath)
	}
	return "id-" + filePath, nil
}

type MockReports struct {
	SECPath, WebPath string
	calls            int
}

func (m *MockReports) DownloadSEC10K(context.Context, string) (string, bool) {
	m.calls++
	return m.SECPath, m.SECPath != ""
}

func (m *MockReports) DownloadWebAnnualReport(context.Context, string) (string, bool) {
	m.calls++
	return m.WebPath, m.WebPath != ""
}

type engineCall struct {
	Kind, DocQuery, WebQuery, Domain string
	DocIDs                           []string
}

type MockEngine struct {
	calls    []engineCall
	Response string
}

func (m *MockEngine) result() hybrid.QueryResult {
	if m.Response == "" {
		return hybrid.QueryResult{}
	}
	raw, _ := json.Marshal(map[string]string{"content": m.Response})
	return hybrid.QueryResult{Raw: raw}
}

func (m *MockEngine) QueryDocuments(_ context.Context, query string, docIDs []string) hybrid.QueryResult {
	m.calls = append(m.calls, engineCall{Kind: "documents", DocQuery: query, DocIDs: docIDs})
	return m.result()
}

func (m *MockEngine) QueryWeb(_ context.Context, query, domain string) hybrid.QueryResult {
	m.calls = append(m.calls, engineCall{Kind: "web", WebQuery: query, Domain: domain})
	return m.result()
}

func (m *MockEngine) HybridSearch(_ context.Context, dq, wq string, docIDs []string, domain string) hybrid.QueryResult {
	m.calls = append(m.calls, engineCall{Kind: "hybrid", DocQuery: dq, WebQuery: wq, DocIDs: docIDs, Domain: domain})
	return m.result()
}

type MockExporter struct {
	written map[string][]export.Row
}

func (m *MockExporter) WriteCategory(company, category string, rows []export.Row) (string, error) {
	if m.written == nil {
		m.written = make(map[string][]export.Row)
	}
	m.written[category] = rows
	return export.WorkbookName(company, category), nil
}

type MockRuns struct {
	SaveFunc func(ctx context.Context, run *models.AnalysisRun) error
	saved    []*models.AnalysisRun
}

func (m *MockRuns) Save(ctx context.Context, run *models.AnalysisRun) error {
	m.saved = append(m.saved, run)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, run)
	}
	return nil
}

func (m *MockRuns) Load(context.Context, string) (*models.AnalysisRun, error) { return nil, nil }

func (m *MockRuns) ListByCompany(context.Context, string) ([]*models.AnalysisRun, error) {
	return m.saved, nil
}

var testCatalog = prompt.NewCatalog([]prompt.Question{
	{Category: "Company Overview", Prompt: "What does the company do?"},
	{Category: "Company Overview", Prompt: "Where is it based?"},
	{Category: "Threats (External Negative Factors)", Prompt: "Who are the competitors?"},
})

// --- Orchestrator ---

func TestRetrieve_UsesExistingDocuments(t *testing.T) {
	repo := &MockRepository{ListFunc: func(context.Context) []docstore.StoredDocument {
		return []docstore.StoredDocument{
			{DocID: "a", FileName: "Acme_10-K.pdf"},
			{DocID: "b", FileName: "Globex_10-K.pdf"},
			{DocID: "c", FileName: "ACME Annual Report.pdf"},
		}
	}}
	reports := &MockReports{SECPath: "/tmp/x.pdf"}

	got := NewOrchestrator(repo, reports).RetrieveCompanyDocuments(context.Background(), "Acme")

	if got.Source != SourceExisting {
		t.Errorf("source = %s", got.Source)
	}
	if diff := cmp.Diff([]string{"a", "c"}, got.DocIDs); diff != "" {
		t.Errorf("doc ids mismatch: %s", diff)
	}
	if reports.calls != 0 || len(repo.uploads) != 0 {
		t.Error("existing documents should short-circuit downloads and uploads")
	}
}

func TestRetrieve_DownloadsAndUploads(t *testing.T) {
	repo := &MockRepository{}
	reports := &MockReports{SECPath: "dl/Acme_10-K.pdf", WebPath: "dl/Acme_Annual_Report.pdf"}

	got := NewOrchestrator(repo, reports).RetrieveCompanyDocuments(context.Background(), "Acme")

	want := Retrieval{
		Company: "Acme",
		DocIDs:  []string{"id-dl/Acme_10-K.pdf", "id-dl/Acme_Annual_Report.pdf"},
		Source:  SourceDownloaded,
		SECPath: "dl/Acme_10-K.pdf",
		WebPath: "dl/Acme_Annual_Report.pdf",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRetrieve_NothingIsFatal(t *testing.T) {
	repo := &MockRepository{UploadFunc: func(context.Context, string) (string, error) {
		return "", docstore.ErrMissingDocID
	}}
	reports := &MockReports{WebPath: "dl/Acme_Annual_Report.pdf"}

	got := NewOrchestrator(repo, reports).RetrieveCompanyDocuments(context.Background(), "Acme")

	if got.Source != SourceNone || len(got.DocIDs) != 0 || got.DocIDs == nil {
		t.Errorf("want empty doc ids with source none, got %+v", got)
	}
	if diff := cmp.Diff([]string{"dl/Acme_Annual_Report.pdf"}, repo.uploads); diff != "" {
		t.Errorf("only the found report should be uploaded: %s", diff)
	}
}

// --- Runner ---

func TestRun_SearchModes(t *testing.T) {
	tests := []struct {
		mode      string
		wantKind  string
		wantLabel string
	}{
		{models.ModeDocuments, "documents", "Documents Only"},
		{models.ModeWeb, "web", "Web Only"},
		{models.ModeHybrid, "hybrid", "Hybrid"},
		{"", "hybrid", "Hybrid"},
	}
	for _, tt := range tests {
		t.Run(tt.wantLabel, func(t *testing.T) {
			engine := &MockEngine{Response: "answer"}
			r := NewRunner(engine, testCatalog, nil, nil)

			run, err := r.Run(context.Background(), AnalysisRequest{
				Company:    "Acme",
				DocIDs:     []string{"d1"},
				Categories: []string{"Threats (External Negative Factors)"},
				Mode:       tt.mode,
			})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(engine.calls) != 1 || engine.calls[0].Kind != tt.wantKind {
				t.Fatalf("engine calls = %+v", engine.calls)
			}
			res := run.Categories[0].Results[0]
			if res.SearchType != tt.wantLabel || res.Response != "answer" {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestRun_QueriesCarryCompany(t *testing.T) {
	engine := &MockEngine{}
	r := NewRunner(engine, testCatalog, nil, nil)

	run, err := r.Run(context.Background(), AnalysisRequest{
		Company: "Acme", DocIDs: []string{"d1"}, Categories: []string{"Threats (External Negative Factors)"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := engineCall{Kind: "hybrid", DocQuery: "Who are the competitors?", WebQuery: "Who are the competitors? for Acme", DocIDs: []string{"d1"}}
	if diff := cmp.Diff(want, engine.calls[0]); diff != "" {
		t.Errorf("call mismatch (-want +got):\n%s", diff)
	}
	if got := run.Categories[0].Results[0].Response; got != hybrid.NoResponse {
		t.Errorf("empty answer should read %q, got %q", hybrid.NoResponse, got)
	}
}

func TestRun_AllCategoriesCustomQuestionsAndExport(t *testing.T) {
	engine := &MockEngine{Response: "ok"}
	exporter := &MockExporter{}
	runs := &MockRuns{}
	var answered []string
	r := NewRunner(engine, testCatalog, exporter, runs)
	r.OnAnswer = func(category string, res models.QuestionResult) { answered = append(answered, category+": "+res.Prompt) }

	run, err := r.Run(context.Background(), AnalysisRequest{
		Company:         "Acme Corp",
		DocIDs:          []string{"d1"},
		Categories:      []string{prompt.CategoryAll},
		Mode:            models.ModeDocuments,
		CustomQuestions: []string{"  What is the dividend policy? ", ""},
	})
	if err != nil {
		t.Fatal(err)
	}

	if run.QuestionCount() != 4 || len(answered) != 4 {
		t.Errorf("want 4 answers, got %d (%v)", run.QuestionCount(), answered)
	}
	last := run.Categories[len(run.Categories)-1]
	if last.Category != prompt.CustomCategory || last.Results[0].Prompt != "What is the dividend policy?" {
		t.Errorf("custom category = %+v", last)
	}
	if len(exporter.written) != 3 {
		t.Errorf("want 3 workbooks, got %d", len(exporter.written))
	}
	wantExports := []string{
		"Acme_Corp_Company_Overview.xlsx",
		"Acme_Corp_Threats_External_Negative_Factors.xlsx",
		"Acme_Corp_Custom_Questions.xlsx",
	}
	if diff := cmp.Diff(wantExports, run.Exports); diff != "" {
		t.Errorf("exports mismatch: %s", diff)
	}
	if len(runs.saved) != 1 || runs.saved[0].ID == "" {
		t.Error("run should be saved with an id")
	}
}

func TestRun_Validation(t *testing.T) {
	r := NewRunner(&MockEngine{}, testCatalog, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  AnalysisRequest
		want error
	}{
		{"no company", AnalysisRequest{DocIDs: []string{"d"}, Categories: []string{prompt.CategoryAll}}, ErrNoCompany},
		{"bad mode", AnalysisRequest{Company: "A", Mode: "psychic", Categories: []string{prompt.CategoryAll}}, ErrInvalidMode},
		{"no questions", AnalysisRequest{Company: "A", DocIDs: []string{"d"}, Categories: []string{"Unknown"}}, ErrNoQuestions},
		{"no documents", AnalysisRequest{Company: "A", Categories: []string{prompt.CategoryAll}}, ErrNoDocuments},
	}
	for _, tt := range tests {
		if _, err := r.Run(ctx, tt.req); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}

	// web-only analysis does not need uploaded documents
	if _, err := r.Run(ctx, AnalysisRequest{Company: "A", Mode: models.ModeWeb, Categories: []string{prompt.CategoryAll}}); err != nil {
		t.Errorf("web mode without documents: %v", err)
	}
}

func TestRun_SaveFailureIsNotFatal(t *testing.T) {
	runs := &MockRuns{SaveFunc: func(context.Context, *models.AnalysisRun) error { return errors.New("db down") }}
	r := NewRunner(&MockEngine{Response: "x"}, testCatalog, nil, runs)
	if _, err := r.Run(context.Background(), AnalysisRequest{Company: "A", DocIDs: []string{"d"}, Categories: []string{prompt.CategoryAll}}); err != nil {
		t.Errorf("save failure should not fail the run: %v", err)
	}
}

func TestRunPreset(t *testing.T) {
	engine := &MockEngine{Response: "ok"}
	r := NewRunner(engine, testCatalog, nil, nil)

	run, err := r.RunPreset(context.Background(), "Acme", []string{"d1", "d2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(engine.calls) != len(prompt.PresetQuestions) {
		t.Fatalf("want %d hybrid calls, got %d", len(prompt.PresetQuestions), len(engine.calls))
	}
	first := engine.calls[0]
	if first.Kind != "hybrid" || first.Domain != "bloomberg.com" ||
		first.WebQuery != "Acme "+prompt.PresetQuestions[0].Question {
		t.Errorf("first call = %+v", first)
	}
	if engine.calls[2].Domain != "" {
		t.Errorf("risk question should have no domain, got %q", engine.calls[2].Domain)
	}
	if run.Mode != models.ModePreset || run.Categories[0].Category != PresetCategory {
		t.Errorf("run = %+v", run)
	}

	if _, err := r.RunPreset(context.Background(), "Acme", nil); !errors.Is(err, ErrNoDocuments) {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}

func TestAnalyzeWithPresets_NoDocuments(t *testing.T) {
	o := NewOrchestrator(&MockRepository{}, &MockReports{})
	engine := &MockEngine{}
	_, run, err := AnalyzeWithPresets(context.Background(), o, NewRunner(engine, testCatalog, nil, nil), "Acme")
	if !errors.Is(err, ErrNoDocuments) || run != nil || len(engine.calls) != 0 {
		t.Errorf("got run=%v err=%v calls=%d", run, err, len(engine.calls))
	}
}

func TestReportMarkdown(t *testing.T) {
	run := &models.AnalysisRun{
		Company: "Acme",
		Mode:    models.ModeHybrid,
		DocIDs:  []string{"d1"},
		Categories: []models.CategoryResult{{
			Category: "Company Overview",
			Results:  []models.QuestionResult{{Prompt: "What?", Response: "Anvils.", SearchType: "Hybrid"}},
		}},
	}
	md := ReportMarkdown(run)
	for _, part := range []string{"# Acme analysis", "## Company Overview", "**Question:** What?", "Anvils."} {
		if !strings.Contains(md, part) {
			t.Errorf("report missing %q:\n%s", part, md)
		}
	}
}
