package main

import (
	"context"
	"fmt"
	"os"

	"company_research/pkg/app"
	"company_research/pkg/core/config"
	"company_research/pkg/core/logging"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "research",
	Short: "Company research assistant",
	Long: "research retrieves a company's 10-K and annual report, uploads them to the\n" +
		"document-indexing service and answers analysis questions from documents and the web.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/research.yaml", "Path to YAML config file")
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadApp reads configuration, sets up logging and wires the application.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	return app.New(ctx, cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
