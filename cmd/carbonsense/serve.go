package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carbonsense/carbonsense/internal/logging"
	"github.com/carbonsense/carbonsense/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Starts an HTTP server exposing:

  POST /api/v1/analyze   {"code": "..."}   carbon estimate for a snippet
  POST /api/v1/website   {"url": "..."}    placeholder website estimate
  GET  /api/v1/health

Examples:
  carbonsense serve
  carbonsense serve --addr :9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if loaded.Source != "" {
		logger.Info("Configuration loaded", zap.String("source", loaded.Source))
	}

	svc, err := newService(cfg, logger, false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return server.New(svc, logger).Run(ctx)
}
