package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/carbonsense/carbonsense/internal/service/analysis"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result",
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and age",
	RunE:  runCacheStats,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if !cfg.Cache.Enabled {
		color.Yellow("Cache is disabled in the configuration")
		return nil
	}

	c, err := analysis.OpenCache(cfg)
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	color.Green("Cleared %s", cfg.Cache.Dir)
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if !cfg.Cache.Enabled {
		color.Yellow("Cache is disabled in the configuration")
		return nil
	}

	c, err := analysis.OpenCache(cfg)
	if err != nil {
		return err
	}
	stats, err := c.GetStats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Directory: %s\n", cfg.Cache.Dir)
	fmt.Fprintf(out, "Entries:   %d\n", stats.Entries)
	fmt.Fprintf(out, "Size:      %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Fprintf(out, "Oldest:    %s ago\n", stats.OldestAge.Round(time.Second))
		fmt.Fprintf(out, "Newest:    %s ago\n", stats.NewestAge.Round(time.Second))
	}
	return nil
}
