package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table is a titled grid of cells. Data, when set, replaces the cells in
// JSON and TOON output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
	// RightAlign lists column indexes rendered right-aligned.
	RightAlign []int
	Data       any
}

// RenderData returns Data, or the rows keyed by header.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	rows := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(row))
		for i, cell := range row {
			if i < len(t.Headers) {
				m[t.Headers[i]] = cell
			}
		}
		rows = append(rows, m)
	}
	return rows
}

func (t *Table) aligns() []tw.Align {
	out := make([]tw.Align, len(t.Headers))
	for i := range out {
		out[i] = tw.AlignLeft
	}
	for _, col := range t.RightAlign {
		if col >= 0 && col < len(out) {
			out[col] = tw.AlignRight
		}
	}
	return out
}

// borderless returns a table with no frame or column separators.
func borderless(w io.Writer, aligns []tw.Align) *tablewriter.Table {
	cells := tw.CellAlignment{Global: tw.AlignLeft, PerColumn: aligns}
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.On},
		},
		Row:    tw.CellConfig{Alignment: cells},
		Footer: tw.CellConfig{Alignment: cells},
	}
	rendition := tw.Rendition{
		Borders:  tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
		Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.Off}},
	}
	return tablewriter.NewTable(w, tablewriter.WithConfig(cfg), tablewriter.WithRendition(rendition))
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		textHeading(w, t.Title, 0, colored)
		fmt.Fprintln(w)
	}

	table := borderless(w, t.aligns())
	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		cells := make([]any, 0, len(t.Footer))
		for _, c := range t.Footer {
			cells = append(cells, c)
		}
		table.Footer(cells...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}

	rule := make([]string, 0, len(t.Headers))
	for _, a := range t.aligns() {
		if a == tw.AlignRight {
			rule = append(rule, "---:")
		} else {
			rule = append(rule, "---")
		}
	}

	lines := [][]string{t.Headers, rule}
	for _, row := range t.Rows {
		lines = append(lines, escapePipes(row))
	}
	if len(t.Footer) > 0 {
		lines = append(lines, escapePipes(t.Footer))
	}
	for _, cells := range lines {
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	fmt.Fprintln(w)
	return nil
}

func escapePipes(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}
