package output

import (
	"fmt"
	"sort"

	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
	"github.com/carbonsense/carbonsense/pkg/analyzer/website"
)

// Grams formats an emission in grams CO2e.
func Grams(g float64) string {
	return fmt.Sprintf("%.4f g", g)
}

// Percent formats a percentage with one decimal.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// ResultReport renders a single analysis in detail.
func ResultReport(title string, r *carbon.Result) *Report {
	estimate := &Table{
		Title:   "Estimate",
		Headers: []string{"Metric", "Original", "Optimized", "Reduction"},
		Rows: [][]string{
			{"Emission", Grams(r.OriginalEmission), Grams(r.OptimizedEmission), Percent(r.SavingsPercent)},
			{"Complexity", fmt.Sprintf("%.1f", r.Complexity.Original), fmt.Sprintf("%.1f", r.Complexity.Optimized), ""},
			{"Runtime", fmt.Sprintf("%.2f ms", r.RuntimeMs.Original), fmt.Sprintf("%.2f ms", r.RuntimeMs.Optimized), Percent(r.ExecutionTimeImprovement)},
		},
		RightAlign: []int{1, 2, 3},
	}

	suggestions := Section{Title: "Suggestions"}
	for _, s := range r.Suggestions {
		suggestions.Items = append(suggestions.Items, Item{
			Label: string(s.Kind),
			Text:  fmt.Sprintf("%s (~%s)", s.Message, Grams(s.Impact)),
		})
	}

	report := &Report{
		Title:    title,
		Sections: []Renderable{estimate, &suggestions},
		Data:     r,
	}

	if r.Changed() {
		code := &Section{Title: "Optimized code", Code: r.OptimizedCode}
		if r.OptimizedCode == "" {
			code.Content = "The rewrite removed every statement."
		}
		report.Sections = append(report.Sections, code)
	}
	return report
}

// AnalysisReport renders a project analysis: the top files by emission,
// failures, and the summary. top <= 0 lists every file.
func AnalysisReport(a *carbon.Analysis, top int) *Report {
	analyzed := make([]carbon.FileResult, 0, len(a.Files))
	var failed [][]string
	for _, f := range a.Files {
		if f.Result == nil {
			failed = append(failed, []string{f.Path, f.Error})
			continue
		}
		analyzed = append(analyzed, f)
	}
	sort.SliceStable(analyzed, func(i, j int) bool {
		return analyzed[i].Result.OriginalEmission > analyzed[j].Result.OriginalEmission
	})

	title := "Files by emission"
	if top > 0 && len(analyzed) > top {
		analyzed = analyzed[:top]
		title = fmt.Sprintf("Top %d files by emission", top)
	}

	rows := make([][]string, 0, len(analyzed))
	for _, f := range analyzed {
		r := f.Result
		rows = append(rows, []string{
			f.Path,
			Grams(r.OriginalEmission),
			Grams(r.OptimizedEmission),
			Percent(r.SavingsPercent),
			fmt.Sprintf("%d", r.CountKind(carbon.KindWarning)),
			fmt.Sprintf("%d", r.CountKind(carbon.KindTip)),
		})
	}

	s := a.Summary
	files := &Table{
		Title:      title,
		Headers:    []string{"File", "Emission", "Optimized", "Reduction", "Warnings", "Tips"},
		Rows:       rows,
		RightAlign: []int{1, 2, 3, 4, 5},
		Footer: []string{
			fmt.Sprintf("%d files", s.AnalyzedFiles),
			Grams(s.TotalOriginalEmission),
			Grams(s.TotalOptimizedEmission),
			Percent(s.SavingsPercent),
			fmt.Sprintf("%d", s.Warnings),
			fmt.Sprintf("%d", s.Tips),
		},
	}

	summary := &Section{
		Title: "Summary",
		Items: []Item{
			{Text: fmt.Sprintf("Files: %d analyzed, %d failed", s.AnalyzedFiles, s.FailedFiles)},
			{Text: fmt.Sprintf("Total emission: %s (optimized %s, saving %s)", Grams(s.TotalOriginalEmission), Grams(s.TotalOptimizedEmission), Grams(s.TotalSavings))},
			{Text: fmt.Sprintf("Per file: mean %s, p50 %s, p90 %s, max %s", Grams(s.MeanEmission), Grams(s.P50Emission), Grams(s.P90Emission), Grams(s.MaxEmission))},
			{Text: fmt.Sprintf("Rewritable files: %d", s.RewrittenFiles)},
		},
	}

	sections := []Renderable{files}
	if len(failed) > 0 {
		sections = append(sections, &Table{
			Title:   "Failed files",
			Headers: []string{"File", "Error"},
			Rows:    failed,
		})
	}
	sections = append(sections, summary)

	return &Report{
		Title:    "Carbon analysis",
		Sections: sections,
		Data:     a,
	}
}

// WebsiteReport renders a website estimate.
func WebsiteReport(e *website.Estimate) *Report {
	figures := &Table{
		Title:   e.URL,
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Emissions per visit", Grams(e.Emissions)},
			{"Energy per view", fmt.Sprintf("%.2f Wh", e.Energy)},
			{"Data transfer per view", fmt.Sprintf("%.1f MB", e.DataTransfer)},
			{"Cleaner than", Percent(e.CleanerThan)},
			{"Rating", e.Rating},
		},
		RightAlign: []int{1},
	}

	opportunities := &Section{Title: "Optimization opportunities"}
	for _, o := range e.Opportunities {
		opportunities.Items = append(opportunities.Items, Item{Label: o.Kind, Text: o.Message})
	}
	if e.Mock {
		opportunities.Content = "Figures are placeholders; the page was not fetched."
	}

	return &Report{
		Title:    "Website carbon estimate",
		Sections: []Renderable{figures, opportunities},
		Data:     e,
	}
}
