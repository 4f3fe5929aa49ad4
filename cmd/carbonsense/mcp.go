package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carbonsense/carbonsense/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP (Model Context Protocol) server for LLM tool integration",
	Long: `Starts an MCP server over stdio transport that exposes carbonsense
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "carbonsense": {
        "command": "carbonsense",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_code_carbon       Carbon estimate for a snippet or a set of files
  - estimate_website_carbon   Placeholder website estimate

Available prompts:
  - reduce-code-carbon        Guided pass over the most expensive patterns`,
	RunE: runMCP,
}

var mcpManifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the MCP registry server.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	mcpCmd.AddCommand(mcpManifestCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config

	logger := newLogger(cfg)
	defer logger.Sync()

	svc, err := newService(cfg, logger, true)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return mcpserver.NewServer(version, svc).Run(ctx)
}
