package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <company>",
	Short: "Find or download a company's documents and print their doc ids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		company := strings.Join(args, " ")
		r := a.Orchestrator.RetrieveCompanyDocuments(cmd.Context(), company)

		out := cmd.OutOrStdout()
		if len(r.DocIDs) == 0 {
			fmt.Fprintf(out, "Could not download or upload any documents for %s.\n", company)
			return nil
		}
		fmt.Fprintf(out, "%s document IDs (%s):\n", company, r.Source)
		for _, id := range r.DocIDs {
			fmt.Fprintf(out, "- %s\n", id)
		}
		if r.SECPath != "" {
			fmt.Fprintf(out, "SEC 10-K: %s\n", r.SECPath)
		}
		if r.WebPath != "" {
			fmt.Fprintf(out, "Web Annual Report: %s\n", r.WebPath)
		}
		return nil
	},
}
