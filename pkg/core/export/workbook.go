// Package export writes analysis results to per-category Excel workbooks under
// {companiesDir}/{company}/.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"company_research/pkg/core/utils"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Responses"

// Header is the column layout of every workbook.
var Header = []string{"Prompt", "Response", "Search Type"}

// ErrInvalidName is returned for workbook names that would leave the company directory.
var ErrInvalidName = errors.New("invalid workbook name")

// Row is one answered question.
type Row struct {
	Prompt     string `json:"prompt"`
	Response   string `json:"response"`
	SearchType string `json:"search_type"`
}

var categoryReplacer = strings.NewReplacer("(", "", ")", "")

// SafeCategory drops parentheses and makes the rest file safe.
func SafeCategory(category string) string {
	return utils.FileSafeName(categoryReplacer.Replace(category))
}

// WorkbookName is "{company}_{safeCategory}.xlsx" with the company made file safe.
func WorkbookName(company, category string) string {
	return fmt.Sprintf("%s_%s.xlsx", utils.FileSafeName(company), SafeCategory(category))
}

// Exporter owns the companies directory.
type Exporter struct {
	dir string
}

func NewExporter(companiesDir string) *Exporter {
	return &Exporter{dir: companiesDir}
}

// CompanyDir is the directory holding one company's workbooks.
func (e *Exporter) CompanyDir(company string) string {
	return filepath.Join(e.dir, utils.FileSafeName(company))
}

// WriteCategory writes rows to the category workbook, replacing any previous file.
func (e *Exporter) WriteCategory(company, category string, rows []Row) (string, error) {
	dir := e.CompanyDir(company)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, WorkbookName(company, category))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return "", err
	}
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return "", err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		values := []interface{}{row.Prompt, row.Response, row.SearchType}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return "", err
		}
	}
	f.SetColWidth(sheetName, "A", "A", 60)
	f.SetColWidth(sheetName, "B", "B", 100)
	f.SetColWidth(sheetName, "C", "C", 16)

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}

// ReadCategory loads a workbook written by WriteCategory.
func ReadCategory(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	var out []Row
	for i, r := range rows {
		if i == 0 {
			continue
		}
		for len(r) < 3 {
			r = append(r, "")
		}
		out = append(out, Row{Prompt: r[0], Response: r[1], SearchType: r[2]})
	}
	return out, nil
}

// Resolve returns the path of an existing workbook for company. name must be a
// bare .xlsx file name.
func (e *Exporter) Resolve(company, name string) (string, error) {
	if name != filepath.Base(name) || strings.Contains(name, "..") || filepath.Ext(name) != ".xlsx" {
		return "", ErrInvalidName
	}
	companyDir := utils.FileSafeName(company)
	if companyDir != filepath.Base(companyDir) || strings.Contains(companyDir, "..") {
		return "", ErrInvalidName
	}
	path := filepath.Join(e.dir, companyDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
