package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"company_research/pkg/core/pipeline"

	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Prompt for company names and run the preset analysis for each",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "==== Company Financial Analysis Tool ====")
		fmt.Fprintln(out, "Available questions for analysis:")
		printPresets(out, a.Catalog.Presets())

		runner := a.Runner.WithProgress(printAnswer(out))
		return interactiveLoop(cmd.Context(), cmd.InOrStdin(), out, func(ctx context.Context, company string) error {
			_, _, err := pipeline.AnalyzeWithPresets(ctx, a.Orchestrator, runner, company)
			return err
		})
	},
}

// interactiveLoop reads company names until "quit" or end of input. A failed
// analysis is reported and the loop continues.
func interactiveLoop(ctx context.Context, in io.Reader, out io.Writer, analyze func(context.Context, string) error) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nEnter company name (or 'quit' to exit): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		company := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(company, "quit") {
			return nil
		}
		if company == "" {
			continue
		}

		fmt.Fprintln(out, "\nRunning analysis with preset questions...")
		if err := analyze(ctx, company); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(out, "%v\n", err)
		}
		fmt.Fprintln(out, "\n==== Analysis Complete ====")
	}
}
