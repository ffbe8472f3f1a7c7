package main

import (
	"fmt"
	"io"
	"strings"

	"company_research/pkg/core/pipeline"
	"company_research/pkg/core/prompt"
	"company_research/pkg/models"

	"github.com/spf13/cobra"
)

var analyzeFlags struct {
	categories []string
	mode       string
	questions  []string
	docIDs     []string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <company>",
	Short: "Answer catalog questions by category and export them to workbooks",
	Long: `Answer the catalog questions of the selected categories for a company.

Usage:
  research analyze "Acme Corp" --category ALL
  research analyze "Acme Corp" --category "Company Overview" --mode web
  research analyze "Acme Corp" --question "What is the dividend policy?"

Documents are retrieved first unless --doc-id is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringSliceVar(&analyzeFlags.categories, "category", nil, "Category to analyze (repeatable, ALL for every category)")
	f.StringVar(&analyzeFlags.mode, "mode", models.ModeHybrid, "Search mode: documents, web or hybrid")
	f.StringArrayVar(&analyzeFlags.questions, "question", nil, "Custom question (repeatable)")
	f.StringSliceVar(&analyzeFlags.docIDs, "doc-id", nil, "Use these doc ids instead of retrieving documents")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if !pipeline.ValidMode(analyzeFlags.mode) {
		return fmt.Errorf("unknown mode %q (want documents, web or hybrid)", analyzeFlags.mode)
	}
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	company := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	docIDs := analyzeFlags.docIDs
	if len(docIDs) == 0 && analyzeFlags.mode != models.ModeWeb {
		docIDs = a.Orchestrator.RetrieveCompanyDocuments(cmd.Context(), company).DocIDs
	}

	runner := a.Runner.WithProgress(printAnswer(out))
	run, err := runner.Run(cmd.Context(), pipeline.AnalysisRequest{
		Company:         company,
		DocIDs:          docIDs,
		Categories:      analyzeFlags.categories,
		Mode:            analyzeFlags.mode,
		CustomQuestions: analyzeFlags.questions,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRun %s: %d questions\n", run.ID, run.QuestionCount())
	for _, path := range run.Exports {
		fmt.Fprintf(out, "Saved %s\n", path)
	}
	return nil
}

var presetCmd = &cobra.Command{
	Use:   "preset <company>",
	Short: "Run the preset analysis questions with hybrid search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		runner := a.Runner.WithProgress(printAnswer(cmd.OutOrStdout()))
		_, _, err = pipeline.AnalyzeWithPresets(cmd.Context(), a.Orchestrator, runner, strings.Join(args, " "))
		return err
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the question catalog and preset questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, group := range a.Catalog.Select([]string{prompt.CategoryAll}) {
			fmt.Fprintf(out, "%s\n", group.Category)
			for _, p := range group.Prompts {
				fmt.Fprintf(out, "  - %s\n", p)
			}
		}
		fmt.Fprintln(out, "\nPreset questions:")
		printPresets(out, a.Catalog.Presets())
		return nil
	},
}

func printAnswer(out io.Writer) func(string, models.QuestionResult) {
	return func(category string, res models.QuestionResult) {
		fmt.Fprintf(out, "\n[%s] Question: %s\n", category, res.Prompt)
		if res.WebDomain != "" {
			fmt.Fprintf(out, "Using domain: %s\n", res.WebDomain)
		}
		fmt.Fprintf(out, "Answer (%s):\n%s\n", res.SearchType, res.Response)
	}
}

func printPresets(out io.Writer, presets []prompt.AnalysisQuestion) {
	for i, q := range presets {
		fmt.Fprintf(out, "%d. %s\n", i+1, q.Question)
		if q.WebDomain != "" {
			fmt.Fprintf(out, "   Domain: %s\n", q.WebDomain)
		}
	}
}
