package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFormat(tt.input)
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter(FormatJSON, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if f.Format() != FormatJSON {
		t.Errorf("Format() = %q, want json", f.Format())
	}
	if !f.Colored() {
		t.Error("Colored() should be true")
	}
	if f.closer != nil {
		t.Error("closer should be nil for stdout")
	}
	if f.w != os.Stdout {
		t.Error("writer should be stdout")
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("colored should be false when writing to file")
	}
	if err := f.Output(map[string]int{"files": 2}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), `"files": 2`) {
		t.Errorf("file content = %s", data)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/directory/file.txt", false)
	if err == nil {
		t.Error("NewFormatter() should error for invalid path")
	}
}

func TestTableRenderText(t *testing.T) {
	table := &Table{
		Title:   "Files by emission",
		Headers: []string{"File", "Emission"},
		Rows: [][]string{
			{"src/app.js", "0.0312 g"},
			{"src/util.js", "0.0101 g"},
		},
		Footer:     []string{"2 files", "0.0413 g"},
		RightAlign: []int{1},
	}

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Files by emission", "=================", "src/app.js", "0.0312 g", "2 files", "0.0413 g"} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, output)
		}
	}
}

func TestTableRenderTextColored(t *testing.T) {
	table := &Table{Title: "Colored", Headers: []string{"A"}, Rows: [][]string{{"1"}}}

	var buf bytes.Buffer
	if err := table.RenderText(&buf, true); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if !strings.Contains(buf.String(), "Colored") {
		t.Errorf("RenderText() output missing title:\n%s", buf.String())
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := &Table{
		Title:      "Results",
		Headers:    []string{"Name", "Value"},
		Rows:       [][]string{{"a|b", "1"}},
		Footer:     []string{"Total", "1"},
		RightAlign: []int{1},
	}

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"## Results", "| Name | Value |", "| --- | ---: |", `| a\|b | 1 |`, "| Total | 1 |"} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", want, output)
		}
	}
}

func TestTableRenderData(t *testing.T) {
	t.Run("with_data_field", func(t *testing.T) {
		data := map[string]any{"custom": "data"}
		table := &Table{Title: "Title", Headers: []string{"H1"}, Rows: [][]string{{"R1"}}, Data: data}
		got, ok := table.RenderData().(map[string]any)
		if !ok || got["custom"] != "data" {
			t.Errorf("RenderData() = %v, want the data field", table.RenderData())
		}
	})

	t.Run("from_rows", func(t *testing.T) {
		table := &Table{Title: "Title", Headers: []string{"File", "Tips"}, Rows: [][]string{{"a.js", "3"}, {"b.js"}}}
		got, ok := table.RenderData().([]map[string]string)
		if !ok {
			t.Fatalf("RenderData() type = %T", table.RenderData())
		}
		if len(got) != 2 || got[0]["Tips"] != "3" {
			t.Errorf("RenderData() = %v", got)
		}
		if _, present := got[1]["Tips"]; present {
			t.Error("short rows should omit missing columns")
		}
	})
}

func TestSectionRenderText(t *testing.T) {
	section := &Section{
		Title:   "Suggestions",
		Content: "Ordered by detection.",
		Items: []Item{
			{Label: "warning", Text: "Use let in loops"},
			{Text: "plain bullet"},
		},
		Code: "const a = 1;\nconst b = 2;",
		Sections: []Section{
			{Title: "Details", Content: "nested"},
		},
	}

	var buf bytes.Buffer
	if err := section.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Suggestions\n===========",
		"Ordered by detection.",
		"  [warning] Use let in loops",
		"  - plain bullet",
		"    const a = 1;\n    const b = 2;",
		"Details\n-------",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, output)
		}
	}
}

func TestSectionRenderMarkdown(t *testing.T) {
	section := &Section{
		Title: "Suggestions",
		Items: []Item{{Label: "tip", Text: "Batch DOM updates"}},
		Code:  "x();",
		Sections: []Section{
			{Title: "Sub", Content: "text"},
		},
	}

	var buf bytes.Buffer
	if err := section.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"## Suggestions", "- **tip**: Batch DOM updates", "```javascript\nx();\n```", "### Sub", "text"} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", want, output)
		}
	}
}

func TestSectionRenderData(t *testing.T) {
	s := &Section{Title: "T"}
	if s.RenderData() != s {
		t.Error("RenderData() should return the section when Data is nil")
	}
	s.Data = 42
	if s.RenderData() != 42 {
		t.Error("RenderData() should return Data when set")
	}
}

func TestReportRender(t *testing.T) {
	report := &Report{
		Title: "Carbon analysis",
		Sections: []Renderable{
			&Table{Title: "Files", Headers: []string{"File"}, Rows: [][]string{{"a.js"}}},
			&Section{Title: "Summary", Content: "done"},
		},
	}

	var text bytes.Buffer
	if err := report.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	for _, want := range []string{"Carbon analysis\n===============", "a.js", "Summary", "done"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, text.String())
		}
	}

	var md bytes.Buffer
	if err := report.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	for _, want := range []string{"# Carbon analysis", "## Files", "| a.js |", "## Summary"} {
		if !strings.Contains(md.String(), want) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", want, md.String())
		}
	}

	data, ok := report.RenderData().(map[string]any)
	if !ok || data["title"] != "Carbon analysis" {
		t.Errorf("RenderData() = %v", report.RenderData())
	}
	if parts, _ := data["sections"].([]any); len(parts) != 2 {
		t.Errorf("RenderData() sections = %v", data["sections"])
	}
}

func TestFormatterOutputRenderable(t *testing.T) {
	report := &Report{
		Title:    "R",
		Sections: []Renderable{&Section{Title: "S", Content: "body"}},
		Data:     map[string]any{"total": 3},
	}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "body"},
		{FormatMarkdown, "# R"},
		{FormatJSON, `"total": 3`},
		{FormatTOON, "total"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			f := NewWriterFormatter(&buf, tt.format, false)
			if err := f.Output(report); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Output() missing %q in:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]any{"name": "carbon", "files": 2}

	var jsonBuf bytes.Buffer
	if err := NewWriterFormatter(&jsonBuf, FormatText, false).Output(data); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &decoded); err != nil {
		t.Fatalf("text output of raw data should be JSON: %v", err)
	}
	if decoded["name"] != "carbon" {
		t.Errorf("decoded = %v", decoded)
	}

	var mdBuf bytes.Buffer
	if err := NewWriterFormatter(&mdBuf, FormatMarkdown, false).Output(data); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if !strings.HasPrefix(mdBuf.String(), "```json\n") || !strings.HasSuffix(mdBuf.String(), "```\n") {
		t.Errorf("markdown raw output should be fenced:\n%s", mdBuf.String())
	}

	var toonBuf bytes.Buffer
	if err := NewWriterFormatter(&toonBuf, FormatTOON, false).Output(data); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if !strings.Contains(toonBuf.String(), "carbon") {
		t.Errorf("toon output missing value:\n%s", toonBuf.String())
	}
}

func TestFormatterMessageMethods(t *testing.T) {
	tests := []struct {
		name string
		call func(f *Formatter)
		want string
	}{
		{"success", func(f *Formatter) { f.Success("saved %d", 3) }, "saved 3\n"},
		{"warning", func(f *Formatter) { f.Warning("slow %s", "file") }, "WARNING: slow file\n"},
		{"error", func(f *Formatter) { f.Error("bad") }, "ERROR: bad\n"},
		{"info", func(f *Formatter) { f.Info("note") }, "note\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.call(NewWriterFormatter(&buf, FormatText, false))
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFormatterMessagesColoredGoToWriter(t *testing.T) {
	var buf bytes.Buffer
	NewWriterFormatter(&buf, FormatText, true).Success("done")
	if !strings.Contains(buf.String(), "done") {
		t.Errorf("colored message should be written to the formatter writer, got %q", buf.String())
	}
}

func TestSeverityColor(t *testing.T) {
	for _, severity := range []string{"warning", "tip", "Good", "Needs Improvement", "error", "unknown"} {
		got := SeverityColor(severity, "text")
		if !strings.Contains(got, "text") {
			t.Errorf("SeverityColor(%q) = %q, should contain text", severity, got)
		}
	}
}

func TestMarshalTOON(t *testing.T) {
	out, err := MarshalTOON(map[string]any{"rating": "Good"})
	if err != nil {
		t.Fatalf("MarshalTOON() error: %v", err)
	}
	if !strings.Contains(out, "rating") || !strings.Contains(out, "Good") {
		t.Errorf("MarshalTOON() = %q", out)
	}
}
