// Package mcpserver exposes carbon analysis as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/carbonsense/carbonsense/internal/service/analysis"
	scannerSvc "github.com/carbonsense/carbonsense/internal/service/scanner"
)

// Server wraps the MCP server and registers the carbonsense tools.
type Server struct {
	server  *mcp.Server
	svc     *analysis.Service
	scanner *scannerSvc.Service
}

// NewServer creates a new MCP server backed by svc.
func NewServer(version string, svc *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "carbonsense",
			Version: version,
		},
		nil,
	)

	s := &Server{
		server:  server,
		svc:     svc,
		scanner: scannerSvc.New(scannerSvc.WithConfig(svc.Config())),
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_code_carbon",
		Description: describeAnalyzeCode(),
	}, s.handleAnalyzeCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "estimate_website_carbon",
		Description: describeEstimateWebsite(),
	}, s.handleEstimateWebsite)
}
