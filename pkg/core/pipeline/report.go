package pipeline

import (
	"fmt"
	"strings"

	"company_research/pkg/models"
)

// ReportMarkdown renders a run as a Markdown document, one section per category.
func ReportMarkdown(run *models.AnalysisRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s analysis\n\n", run.Company)
	fmt.Fprintf(&b, "- Mode: %s\n", run.Mode)
	fmt.Fprintf(&b, "- Documents: %s\n", strings.Join(run.DocIDs, ", "))
	fmt.Fprintf(&b, "- Questions: %d\n", run.QuestionCount())
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04 MST"))
	}

	for _, cat := range run.Categories {
		fmt.Fprintf(&b, "\n## %s\n", cat.Category)
		for _, res := range cat.Results {
			fmt.Fprintf(&b, "\n**Question:** %s\n\n", res.Prompt)
			if res.WebDomain != "" {
				fmt.Fprintf(&b, "_Domain: %s_\n\n", res.WebDomain)
			}
			fmt.Fprintf(&b, "%s\n\n*%s*\n", strings.TrimSpace(res.Response), res.SearchType)
		}
	}
	return b.String()
}
