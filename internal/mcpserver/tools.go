package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/carbonsense/carbonsense/internal/output"
	"github.com/carbonsense/carbonsense/internal/service/analysis"
)

// AnalyzeCodeInput is the input of analyze_code_carbon.
type AnalyzeCodeInput struct {
	Code   string   `json:"code,omitempty" jsonschema:"JavaScript or TypeScript source to analyze. Takes precedence over paths."`
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze when code is empty. Defaults to current directory if empty."`
	Top    int      `json:"top,omitempty" jsonschema:"Number of files to list by emission when analyzing paths. Defaults to the configured limit; -1 lists every file."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// WebsiteInput is the input of estimate_website_carbon.
type WebsiteInput struct {
	URL    string `json:"url" jsonschema:"Website URL. A bare host such as example.com is treated as https."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(r output.Renderable, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(r.RenderData(), "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		var buf bytes.Buffer
		if err := r.RenderMarkdown(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return output.MarshalTOON(r.RenderData())
	}
}

func toolResult(r output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(r, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func (s *Server) handleAnalyzeCode(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeCodeInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.Format)

	if strings.TrimSpace(input.Code) != "" {
		result, err := s.svc.AnalyzeCode(input.Code)
		if err != nil {
			return toolError(err.Error())
		}
		return toolResult(output.ResultReport("Code carbon estimate", result), format)
	}

	scanResult, err := s.scanner.ScanPaths(getPaths(input.Paths))
	if err != nil {
		return toolError(err.Error())
	}
	if len(scanResult.Files) == 0 {
		return toolError("no source files found")
	}

	result, err := s.svc.AnalyzeFiles(ctx, scanResult.Files, analysis.FileOptions{})
	if err != nil {
		return toolError(err.Error())
	}

	top := input.Top
	if top == 0 {
		top = s.svc.Config().Output.Top
	}
	return toolResult(output.AnalysisReport(result, top), format)
}

func (s *Server) handleEstimateWebsite(ctx context.Context, req *mcp.CallToolRequest, input WebsiteInput) (*mcp.CallToolResult, any, error) {
	estimate, err := s.svc.EstimateWebsite(ctx, input.URL)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.WebsiteReport(estimate), getFormat(input.Format))
}
