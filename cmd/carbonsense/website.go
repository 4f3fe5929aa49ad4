package main

import (
	"github.com/spf13/cobra"

	"github.com/carbonsense/carbonsense/internal/output"
)

var websiteCmd = &cobra.Command{
	Use:   "website URL",
	Short: "Show a placeholder carbon estimate for a website",
	Long: `Validates the URL and prints a website carbon estimate. The page is not
fetched: the figures are fixed placeholders that show the shape of the report.

Examples:
  carbonsense website example.com
  carbonsense website https://example.com/shop -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runWebsite,
}

func init() {
	websiteCmd.Flags().StringP("format", "f", "", "Output format: text, json, markdown, toon (default from config)")
	websiteCmd.Flags().StringP("output", "o", "", "Write output to file")

	rootCmd.AddCommand(websiteCmd)
}

func runWebsite(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config

	svc, err := newService(cfg, newLogger(cfg), false)
	if err != nil {
		return err
	}

	estimate, err := svc.EstimateWebsite(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.WebsiteReport(estimate))
}
