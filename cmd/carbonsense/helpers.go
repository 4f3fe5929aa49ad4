package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carbonsense/carbonsense/internal/logging"
	"github.com/carbonsense/carbonsense/internal/output"
	"github.com/carbonsense/carbonsense/internal/service/analysis"
	"github.com/carbonsense/carbonsense/pkg/config"
)

// loadConfig loads the file named by --config, or searches the default
// locations.
func loadConfig() (*config.LoadResult, error) {
	var opts []config.LoadOption
	if cfgFile != "" {
		opts = append(opts, config.WithPath(cfgFile))
	}
	return config.LoadConfig(opts...)
}

// newLogger returns the configured logger with --verbose, and a no-op
// logger otherwise.
func newLogger(cfg *config.Config) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	return logging.Must(cfg.Logging)
}

// newService builds the analysis service. The on-disk cache is opened only
// when withCache is set, since opening it creates the cache directory.
func newService(cfg *config.Config, logger *zap.Logger, withCache bool) (*analysis.Service, error) {
	opts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger),
	}
	if withCache && cfg.Cache.Enabled {
		c, err := analysis.OpenCache(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithCache(c))
	}
	return analysis.New(opts...), nil
}

// getFormat returns the --format flag, falling back to the configured format.
func getFormat(cmd *cobra.Command, cfg *config.Config) output.Format {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Output.Format
	}
	return output.ParseFormat(format)
}

// getOutputFile returns the output file path from the command.
func getOutputFile(cmd *cobra.Command) string {
	outputFile, _ := cmd.Flags().GetString("output")
	return outputFile
}

// newFormatter opens the formatter for a command's --format and --output.
func newFormatter(cmd *cobra.Command, cfg *config.Config) (*output.Formatter, error) {
	colored := cfg.Output.Color && !color.NoColor
	return output.NewFormatter(getFormat(cmd, cfg), getOutputFile(cmd), colored)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
