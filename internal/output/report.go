package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Section is a titled block of prose, labelled bullets and an optional
// code listing, with nested subsections.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Items    []Item    `json:"items,omitempty"`
	Code     string    `json:"code,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Data     any       `json:"data,omitempty"`
}

// Item is a bullet. Label is a suggestion kind such as "warning" or "tip".
type Item struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return s
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	s.writeText(w, colored, 0)
	return nil
}

func (s *Section) writeText(w io.Writer, colored bool, depth int) {
	if s.Title != "" {
		textHeading(w, s.Title, depth, colored)
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	for _, item := range s.Items {
		fmt.Fprintf(w, "  %s\n", item.text(colored))
	}
	if s.Code != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(s.Code, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	for i := range s.Sections {
		fmt.Fprintln(w)
		s.Sections[i].writeText(w, colored, depth+1)
	}
}

func (it Item) text(colored bool) string {
	if it.Label == "" {
		return "- " + it.Text
	}
	label := "[" + it.Label + "]"
	if colored {
		label = SeverityColor(it.Label, label)
	}
	return label + " " + it.Text
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	s.writeMarkdown(w, 2)
	return nil
}

func (s *Section) writeMarkdown(w io.Writer, level int) {
	if s.Title != "" {
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), s.Title)
	}
	if s.Content != "" {
		fmt.Fprintf(w, "%s\n\n", s.Content)
	}
	for _, item := range s.Items {
		if item.Label != "" {
			fmt.Fprintf(w, "- **%s**: %s\n", item.Label, item.Text)
		} else {
			fmt.Fprintf(w, "- %s\n", item.Text)
		}
	}
	if len(s.Items) > 0 {
		fmt.Fprintln(w)
	}
	if s.Code != "" {
		fmt.Fprintf(w, "```javascript\n%s\n```\n\n", s.Code)
	}
	for i := range s.Sections {
		s.Sections[i].writeMarkdown(w, level+1)
	}
}

// Report is a titled sequence of tables and sections. Data, when set, is
// what JSON and TOON output encode.
type Report struct {
	Title    string
	Sections []Renderable
	Data     any
}

func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	parts := make([]any, 0, len(r.Sections))
	for _, s := range r.Sections {
		parts = append(parts, s.RenderData())
	}
	return map[string]any{"title": r.Title, "sections": parts}
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		if colored {
			color.New(color.Bold, color.FgGreen).Fprintln(w, r.Title)
		} else {
			fmt.Fprintln(w, r.Title)
		}
		fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", len(r.Title)))
	}
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

// textHeading writes title underlined with "=" at depth 0 and "-" below.
func textHeading(w io.Writer, title string, depth int, colored bool) {
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	rule := "="
	if depth > 0 {
		rule = "-"
	}
	fmt.Fprintln(w, strings.Repeat(rule, len(title)))
}

var severityColors = map[string]func(format string, a ...any) string{
	"warning":           color.YellowString,
	"high":              color.YellowString,
	"needs improvement": color.YellowString,
	"error":             color.RedString,
	"critical":          color.RedString,
	"tip":               color.CyanString,
	"info":              color.CyanString,
	"good":              color.GreenString,
	"low":               color.GreenString,
}

// SeverityColor colors text by a suggestion kind or website rating.
func SeverityColor(severity, text string) string {
	if paint, ok := severityColors[strings.ToLower(severity)]; ok {
		return paint("%s", text)
	}
	return text
}
