package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWorkbookName(t *testing.T) {
	tests := []struct {
		company, category, want string
	}{
		{"Acme Corp", "Strengths (Internal Positive Factors)", "Acme_Corp_Strengths_Internal_Positive_Factors.xlsx"},
		{"Acme", "Company Overview", "Acme_Company_Overview.xlsx"},
		{"Acme", "Custom Questions", "Acme_Custom_Questions.xlsx"},
		{"AT/T", "Risks/Outlook", "AT_T_Risks_Outlook.xlsx"},
	}
	for _, tt := range tests {
		if got := WorkbookName(tt.company, tt.category); got != tt.want {
			t.Errorf("WorkbookName(%q, %q) = %q, want %q", tt.company, tt.category, got, tt.want)
		}
	}
}

func TestWriteAndReadCategory(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir)
	rows := []Row{
		{Prompt: "What does Acme do?", Response: "Makes anvils.", SearchType: "Hybrid"},
		{Prompt: "Who competes?", Response: "No response returned.", SearchType: "Hybrid"},
	}

	path, err := e.WriteCategory("Acme Corp", "Threats (External Negative Factors)", rows)
	if err != nil {
		t.Fatalf("WriteCategory: %v", err)
	}
	want := filepath.Join(dir, "Acme_Corp", "Acme_Corp_Threats_External_Negative_Factors.xlsx")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	got, err := ReadCategory(path)
	if err != nil {
		t.Fatalf("ReadCategory: %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir)
	if _, err := e.WriteCategory("Acme", "Company Overview", nil); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Resolve("Acme", "Acme_Company_Overview.xlsx"); err != nil {
		t.Errorf("Resolve existing: %v", err)
	}
	for _, name := range []string{"../secret.xlsx", "a/b.xlsx", "notes.txt"} {
		if _, err := e.Resolve("Acme", name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
	if _, err := e.Resolve("..", "x.xlsx"); err == nil {
		t.Error("company traversal should not resolve")
	}
	if _, err := e.Resolve("Acme", "Missing.xlsx"); !os.IsNotExist(err) {
		t.Errorf("missing workbook err = %v", err)
	}
}

func TestWriteCategory_StaysInCompaniesDir(t *testing.T) {
	root := t.TempDir()
	companies := filepath.Join(root, "companies")
	e := NewExporter(companies)

	for _, company := range []string{"../x", "../../outside", "a/b", "AT/T"} {
		path, err := e.WriteCategory(company, "Company Overview", nil)
		if err != nil {
			t.Fatalf("WriteCategory(%q): %v", company, err)
		}
		rel, err := filepath.Rel(companies, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			t.Errorf("WriteCategory(%q) wrote %s outside %s", company, path, companies)
		}
		if filepath.Dir(filepath.Dir(path)) != companies {
			t.Errorf("WriteCategory(%q) wrote %s, want one directory under %s", company, path, companies)
		}

		// every written workbook can be fetched back by company and file name
		got, err := e.Resolve(company, filepath.Base(path))
		if err != nil || got != path {
			t.Errorf("Resolve(%q, %q) = %q, %v", company, filepath.Base(path), got, err)
		}
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Errorf("files escaped into %s: %v", root, entries)
	}
}
