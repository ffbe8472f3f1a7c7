package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"company_research/pkg/core/logging"
	"company_research/pkg/core/utils"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// catalogFile is the on-disk shape for YAML and HJSON/JSON catalogs:
//
//	categories:
//	  - name: Company Overview
//	    prompts:
//	      - What does the company do?
type catalogFile struct {
	Categories []struct {
		Name    string   `json:"name" yaml:"name"`
		Prompts []string `json:"prompts" yaml:"prompts"`
	} `json:"categories" yaml:"categories"`
}

func (f catalogFile) questions() []Question {
	var out []Question
	for _, cat := range f.Categories {
		for _, p := range cat.Prompts {
			out = append(out, Question{Category: strings.TrimSpace(cat.Name), Prompt: strings.TrimSpace(p)})
		}
	}
	return out
}

// LoadFile reads questions from path, choosing the parser by extension:
// .yaml/.yml, .json/.hjson, or .xlsx (first sheet, "category" and "prompts" columns).
func LoadFile(path string) ([]Question, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".json", ".hjson":
		return loadHJSON(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported question file type: %s", path)
	}
}

// LoadCatalog loads path into a new catalog.
func LoadCatalog(path string) (*Catalog, error) {
	questions, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	c := NewCatalog(nil)
	c.Replace(questions, path)
	logging.New("prompt").Info("loaded questions", zap.Int("count", c.Count()), zap.String("path", path))
	return c, nil
}

func loadYAML(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f.questions(), nil
}

// loadHJSON accepts strict JSON as well, since JSON is valid HJSON.
func loadHJSON(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f catalogFile
	if err := utils.ParseHJSONToStruct(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f.questions(), nil
}

func loadXLSX(path string) ([]Question, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	catCol, promptCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "category":
			catCol = i
		case "prompts", "prompt":
			promptCol = i
		}
	}
	if catCol < 0 || promptCol < 0 {
		return nil, fmt.Errorf("%s: header must contain category and prompts columns", path)
	}

	var out []Question
	for _, row := range rows[1:] {
		if catCol >= len(row) || promptCol >= len(row) {
			continue
		}
		out = append(out, Question{
			Category: strings.TrimSpace(row[catCol]),
			Prompt:   strings.TrimSpace(row[promptCol]),
		})
	}
	return out, nil
}
