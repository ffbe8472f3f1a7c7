package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

const yamlCatalog = `
categories:
  - name: Company Overview
    prompts:
      - What does the company do?
      - Where is it based?
  - name: Threats (External Negative Factors)
    prompts:
      - Who are the competitors?
`

const hjsonCatalog = `{
  # same catalog, HJSON flavoured
  categories: [
    {
      name: Company Overview
      prompts: [
        What does the company do?
        Where is it based?
      ]
    }
    {
      name: Threats (External Negative Factors)
      prompts: ["Who are the competitors?"]
    }
  ]
}`

var wantQuestions = []Question{
	{Category: "Company Overview", Prompt: "What does the company do?"},
	{Category: "Company Overview", Prompt: "Where is it based?"},
	{Category: "Threats (External Negative Factors)", Prompt: "Who are the competitors?"},
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_FormatsAgree(t *testing.T) {
	for _, tc := range []struct{ name, content string }{
		{"questions.yaml", yamlCatalog},
		{"questions.hjson", hjsonCatalog},
	} {
		got, err := LoadFile(writeFile(t, tc.name, tc.content))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if diff := cmp.Diff(wantQuestions, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestLoadFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"category", "prompts"},
		{"Company Overview", "What does the company do?"},
		{"Company Overview", "Where is it based?"},
		{"Threats (External Negative Factors)", "Who are the competitors?"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(wantQuestions, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Unsupported(t *testing.T) {
	if _, err := LoadFile("questions.txt"); err == nil {
		t.Error("expected error for .txt")
	}
}

func TestCatalog_Select(t *testing.T) {
	c := NewCatalog(wantQuestions)

	got := c.Select([]string{"Threats (External Negative Factors)", "Unknown"})
	want := []CategoryQuestions{{Category: "Threats (External Negative Factors)", Prompts: []string{"Who are the competitors?"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Select mismatch (-want +got):\n%s", diff)
	}

	all := c.Select([]string{"Company Overview", CategoryAll})
	if len(all) != 2 || all[0].Category != "Company Overview" || len(all[0].Prompts) != 2 {
		t.Errorf("ALL should select every category in catalog order, got %+v", all)
	}

	if got := c.Select(nil); len(got) != 0 {
		t.Errorf("no categories should select nothing, got %+v", got)
	}
}

func TestCatalog_ReplaceDropsBlank(t *testing.T) {
	c := NewCatalog(nil)
	c.Replace([]Question{{Category: "A", Prompt: ""}, {Category: "", Prompt: "x"}, {Category: "A", Prompt: "q"}}, "f.yaml")
	if c.Count() != 1 || c.Source() != "f.yaml" {
		t.Errorf("count=%d source=%q", c.Count(), c.Source())
	}
	if diff := cmp.Diff([]string{"A"}, c.Categories()); diff != "" {
		t.Error(diff)
	}
	if len(c.Presets()) != 4 {
		t.Errorf("want 4 presets, got %d", len(c.Presets()))
	}
}

func TestCatalog_CategoriesFollowDefaultOrder(t *testing.T) {
	c := NewCatalog([]Question{
		{Category: "ESG", Prompt: "Emissions targets?"},
		{Category: "Threats (External Negative Factors)", Prompt: "Who are the competitors?"},
		{Category: "Company Overview", Prompt: "What does the company do?"},
		{Category: "Governance", Prompt: "Who sits on the board?"},
		{Category: "Strengths (Internal Positive Factors)", Prompt: "What is the moat?"},
	})

	want := []string{
		"Company Overview",
		"Strengths (Internal Positive Factors)",
		"Threats (External Negative Factors)",
		"ESG",
		"Governance",
	}
	if diff := cmp.Diff(want, c.Categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcher_Reload(t *testing.T) {
	path := writeFile(t, "questions.yaml", yamlCatalog)
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(c, path)
	if err != nil {
		t.Fatal(err)
	}
	w.reloaded = make(chan error, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	updated := yamlCatalog + `  - name: Additional Questions
    prompts:
      - What is the outlook?
`
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for c.Count() != 4 {
		select {
		case <-w.reloaded:
		case <-deadline:
			t.Fatalf("catalog not reloaded, count = %d", c.Count())
		}
	}
}
