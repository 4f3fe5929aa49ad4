package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/carbonsense/carbonsense/internal/output"
	"github.com/carbonsense/carbonsense/internal/service/analysis"
	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
	"github.com/carbonsense/carbonsense/pkg/analyzer/website"
	"github.com/carbonsense/carbonsense/pkg/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	return NewServer("test", analysis.New(analysis.WithConfig(cfg)))
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", res.Content[0])
	}
	return text.Text
}

// TestServerCreation verifies the MCP server can be created without panicking.
func TestServerCreation(t *testing.T) {
	server := newTestServer(t)
	if server.server == nil {
		t.Fatal("NewServer().server is nil")
	}
	if server.scanner == nil {
		t.Fatal("NewServer().scanner is nil")
	}
}

func TestToolDescriptions(t *testing.T) {
	for name, desc := range map[string]string{
		"analyze_code_carbon":     describeAnalyzeCode(),
		"estimate_website_carbon": describeEstimateWebsite(),
	} {
		for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
			if !strings.Contains(desc, section) {
				t.Errorf("%s description missing %s", name, section)
			}
		}
	}
}

func TestGetPaths(t *testing.T) {
	if got := getPaths(nil); len(got) != 1 || got[0] != "." {
		t.Errorf("getPaths(nil) = %v", got)
	}
	if got := getPaths([]string{"/a", "/b"}); len(got) != 2 {
		t.Errorf("getPaths() = %v", got)
	}
}

func TestGetFormat(t *testing.T) {
	tests := map[string]output.Format{
		"":         output.FormatTOON,
		"toon":     output.FormatTOON,
		"text":     output.FormatTOON,
		"json":     output.FormatJSON,
		"JSON":     output.FormatJSON,
		"markdown": output.FormatMarkdown,
		"md":       output.FormatMarkdown,
	}
	for in, want := range tests {
		if got := getFormat(in); got != want {
			t.Errorf("getFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestToolError(t *testing.T) {
	res, out, err := toolError("boom")
	if err != nil || out != nil {
		t.Fatalf("toolError() = %v, %v", out, err)
	}
	if !res.IsError {
		t.Error("IsError should be set")
	}
	if got := resultText(t, res); got != "Error: boom" {
		t.Errorf("text = %q", got)
	}
}

func TestHandleAnalyzeCode_Code(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeCode(context.Background(), nil, AnalyzeCodeInput{
		Code:   "for (var i=0;i<10;i++) { console.log(i); }",
		Format: "json",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var r carbon.Result
	if err := json.Unmarshal([]byte(resultText(t, res)), &r); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if !r.Rewritten || r.OptimizedCode != "for (let i=0;i<10;i++) { }" {
		t.Errorf("unexpected rewrite %q", r.OptimizedCode)
	}
}

func TestHandleAnalyzeCode_TOON(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeCode(context.Background(), nil, AnalyzeCodeInput{Code: "const a = 1;"})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || resultText(t, res) == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestHandleAnalyzeCode_Paths(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"app.js":     "for (var i = 0; i < 3; i++) { document.getElementById('x').append(i); }\n",
		"util.ts":    "export const add = (a, b) => a + b;\n",
		"readme.txt": "not code",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := newTestServer(t)
	res, _, err := s.handleAnalyzeCode(context.Background(), nil, AnalyzeCodeInput{
		Paths:  []string{dir},
		Format: "json",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var a carbon.Analysis
	if err := json.Unmarshal([]byte(resultText(t, res)), &a); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(a.Files) != 2 || a.Summary.AnalyzedFiles != 2 {
		t.Errorf("got %d files, summary %+v", len(a.Files), a.Summary)
	}
}

func TestHandleAnalyzeCode_Markdown(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.js"), []byte("let a = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t)
	res, _, err := s.handleAnalyzeCode(context.Background(), nil, AnalyzeCodeInput{
		Paths:  []string{dir},
		Format: "markdown",
	})
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, res); !strings.Contains(text, "# Carbon analysis") {
		t.Errorf("markdown report missing title:\n%s", text)
	}
}

func TestHandleAnalyzeCode_NoFiles(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeCode(context.Background(), nil, AnalyzeCodeInput{Paths: []string{t.TempDir()}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "no source files found") {
		t.Errorf("expected no-files error, got %+v", res)
	}
}

func TestHandleAnalyzeCode_BadPath(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleAnalyzeCode(context.Background(), nil, AnalyzeCodeInput{
		Paths: []string{filepath.Join(t.TempDir(), "missing")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected a tool error for a missing path")
	}
}

func TestHandleEstimateWebsite(t *testing.T) {
	s := newTestServer(t)
	res, _, err := s.handleEstimateWebsite(context.Background(), nil, WebsiteInput{URL: "example.org", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}

	var e website.Estimate
	if err := json.Unmarshal([]byte(resultText(t, res)), &e); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if e.URL != "https://example.org" || !e.Mock {
		t.Errorf("estimate = %+v", e)
	}

	res, _, _ = s.handleEstimateWebsite(context.Background(), nil, WebsiteInput{URL: "ftp://example.org"})
	if !res.IsError {
		t.Error("expected a tool error for a non-http URL")
	}
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	if len(names) != 2 || !names["analyze_code_carbon"] || !names["estimate_website_carbon"] {
		t.Errorf("tools = %v", names)
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_code_carbon",
		Arguments: map[string]any{"code": "const x = 1;", "format": "json"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || !strings.Contains(resultText(t, res), "original_emission") {
		t.Errorf("unexpected result: %s", resultText(t, res))
	}

	prompt, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "reduce-code-carbon",
		Arguments: map[string]string{"paths": "src/app"},
	})
	if err != nil {
		t.Fatal(err)
	}
	text := prompt.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "src/app") || strings.Contains(text, "{{") {
		t.Errorf("prompt arguments not substituted:\n%s", text)
	}
}

func TestRegisterPrompts(t *testing.T) {
	content, err := promptFiles.ReadFile("prompts/reduce-code-carbon.md")
	if err != nil {
		t.Fatal(err)
	}
	fm, body := parseFrontmatter(content)
	if fm.Description == "" {
		t.Error("prompt description is empty")
	}
	if len(fm.Arguments) != 2 {
		t.Errorf("got %d arguments, want 2", len(fm.Arguments))
	}
	if strings.HasPrefix(body, "---") {
		t.Error("body should not include frontmatter")
	}
}

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantDesc string
		wantBody string
	}{
		{"with frontmatter", "---\ndescription: hi\n---\n\nbody\n", "hi", "body\n"},
		{"no frontmatter", "just body", "", "just body"},
		{"unterminated", "---\ndescription: hi\nbody", "", "---\ndescription: hi\nbody"},
		{"bad yaml", "---\ndescription: [\n---\nbody", "", "---\ndescription: [\n---\nbody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body := parseFrontmatter([]byte(tt.content))
			if fm.Description != tt.wantDesc || body != tt.wantBody {
				t.Errorf("parseFrontmatter() = %q, %q", fm.Description, body)
			}
		})
	}
}

func TestSubstituteArg(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		args       map[string]string
		defaultVal string
		expected   string
	}{
		{"use provided value", "scan {{paths}} now", map[string]string{"paths": "src"}, ".", "scan src now"},
		{"use default when missing", "scan {{paths}} now", map[string]string{}, ".", "scan . now"},
		{"use default when empty", "scan {{paths}} now", map[string]string{"paths": ""}, ".", "scan . now"},
		{"nil args", "scan {{paths}}", nil, ".", "scan ."},
		{"no placeholder unchanged", "no placeholder here", map[string]string{"paths": "src"}, ".", "no placeholder here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substituteArg(tt.text, "paths", tt.args, tt.defaultVal); got != tt.expected {
				t.Errorf("substituteArg() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("")
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m.Version != "0.0.0" || m.Name != "io.github.carbonsense/carbonsense" {
		t.Errorf("manifest = %+v", m)
	}
	if len(m.Packages) != 1 || m.Packages[0].Transport.Type != "stdio" {
		t.Errorf("packages = %+v", m.Packages)
	}
}
