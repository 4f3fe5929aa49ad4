package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	prof    profiler
)

var rootCmd = &cobra.Command{
	Use:   "carbonsense",
	Short: "Carbon cost estimates for JavaScript and TypeScript code",
	Long: `CarbonSense estimates the carbon cost of JavaScript and TypeScript code
with a lexical heuristic, suggests lower-cost patterns, and proposes a
rewritten version of the code with before and after figures.

The estimates are proxies for comparing code, not measurements.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return prof.start()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return prof.stop()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	flags.BoolVar(&verbose, "verbose", false, "Log analysis progress with the configured logger")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&prof.prefix, "pprof", "", "Write <prefix>.cpu.pprof and <prefix>.mem.pprof")
}
