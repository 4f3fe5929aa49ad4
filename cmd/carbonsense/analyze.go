package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/carbonsense/carbonsense/internal/output"
	"github.com/carbonsense/carbonsense/internal/progress"
	"github.com/carbonsense/carbonsense/internal/remote"
	"github.com/carbonsense/carbonsense/internal/service/analysis"
	scannerSvc "github.com/carbonsense/carbonsense/internal/service/scanner"
	"github.com/carbonsense/carbonsense/pkg/analyzer"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze [path...]",
	Aliases: []string{"a"},
	Short:   "Estimate the carbon cost of source files or a code snippet",
	Long: `Scans the given files and directories for JavaScript and TypeScript
sources and estimates the carbon cost of each, listing the most expensive
files first. Paths that do not exist locally and look like repository
references (owner/repo, github.com/owner/repo, git URLs, each with an
optional @ref) are cloned to a temporary directory first. With --code or --stdin a single snippet is analyzed and the
report shows its suggestions and the rewritten code.

Examples:
  carbonsense analyze                      # Analyze the current directory
  carbonsense analyze src --top 20         # Twenty most expensive files
  carbonsense analyze facebook/react@v18.2.0
  carbonsense analyze --code 'for (var i=0;i<9;i++) {}'
  cat app.js | carbonsense analyze --stdin -f markdown`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("code", "", "Analyze this code instead of files")
	analyzeCmd.Flags().Bool("stdin", false, "Read the code to analyze from stdin")
	analyzeCmd.Flags().StringP("format", "f", "", "Output format: text, json, markdown, toon (default from config)")
	analyzeCmd.Flags().StringP("output", "o", "", "Write output to file")
	analyzeCmd.Flags().Bool("no-cache", false, "Disable caching")
	analyzeCmd.Flags().Int("workers", 0, "Files analyzed concurrently (default from config)")
	analyzeCmd.Flags().Int("top", 0, "Files listed by emission, -1 for all (default from config)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config

	code, _ := cmd.Flags().GetString("code")
	useStdin, _ := cmd.Flags().GetBool("stdin")
	if useStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		code = string(data)
	}
	snippet := useStdin || cmd.Flags().Changed("code")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	logger := newLogger(cfg)
	defer logger.Sync()

	svc, err := newService(cfg, logger, !snippet && !noCache)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if snippet {
		result, err := svc.AnalyzeCode(code)
		if err != nil {
			return err
		}
		return formatter.Output(output.ResultReport("Code carbon estimate", result))
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	paths, cleanup, err := resolveRemotePaths(ctx, args)
	defer cleanup()
	if err != nil {
		return err
	}

	scanResult, err := scannerSvc.New(scannerSvc.WithConfig(cfg)).ScanPaths(paths)
	if err != nil {
		return err
	}
	if len(scanResult.Files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	workers, _ := cmd.Flags().GetInt("workers")
	top := cfg.Output.Top
	if cmd.Flags().Changed("top") {
		top, _ = cmd.Flags().GetInt("top")
	}

	var bar *progress.Bar
	tracker := analyzer.NewTracker(nil)
	if progress.Interactive(os.Stderr) {
		bar = progress.NewBar(os.Stderr, "Analyzing carbon cost...", len(scanResult.Files))
		tracker = bar.Tracker()
	}

	startTime := time.Now()
	result, err := svc.AnalyzeFiles(analyzer.WithTracker(ctx, tracker), scanResult.Files, analysis.FileOptions{
		Workers: workers,
		NoCache: noCache,
	})
	if err != nil {
		if bar != nil {
			bar.FinishError(err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}
	if bar != nil {
		bar.FinishFailed(tracker.Snapshot())
	}

	if err := formatter.Output(output.AnalysisReport(result, top)); err != nil {
		return err
	}

	if formatter.Format() == output.FormatText && getOutputFile(cmd) == "" {
		fmt.Println()
		if scanResult.Skipped > 0 {
			formatter.Warning("Skipped %d files over %d bytes", scanResult.Skipped, cfg.Analysis.MaxFileSize)
		}
		formatter.Success("Analyzed %d files in %s", result.Summary.AnalyzedFiles, time.Since(startTime).Round(time.Millisecond))
	}

	if result.Summary.AnalyzedFiles == 0 {
		return fmt.Errorf("all %d files failed to analyze", result.Summary.FailedFiles)
	}
	return nil
}

// resolveRemotePaths clones every argument that names a remote repository
// and substitutes the clone directory. The returned cleanup removes the
// clones and is safe to call on error.
func resolveRemotePaths(ctx context.Context, args []string) ([]string, func(), error) {
	var sources []*remote.Source
	cleanup := func() {
		for _, src := range sources {
			src.Cleanup()
		}
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		src, err := remote.Parse(arg)
		if err != nil {
			return nil, cleanup, err
		}
		if src == nil {
			paths = append(paths, arg)
			continue
		}

		var progressOut io.Writer
		if verbose {
			progressOut = os.Stderr
		}
		color.New(color.FgCyan).Fprintf(os.Stderr, "Cloning %s...\n", src.URL)
		if err := src.Clone(ctx, progressOut, true); err != nil {
			return nil, cleanup, err
		}
		sources = append(sources, src)
		paths = append(paths, src.CloneDir)
	}
	return paths, cleanup, nil
}
