package carbon

import (
	"slices"
	"time"
)

// Comparison holds a before/after pair.
type Comparison struct {
	Original  float64 `json:"original"`
	Optimized float64 `json:"optimized"`
}

// Result is the outcome of analyzing one source text. Emissions are in grams
// CO2e. Savings is negative when the patched text scores worse.
type Result struct {
	OriginalEmission         float64      `json:"original_emission"`
	OptimizedEmission        float64      `json:"optimized_emission"`
	Savings                  float64      `json:"savings"`
	SavingsPercent           float64      `json:"savings_percent"`
	Suggestions              []Suggestion `json:"suggestions"`
	Rewritten                bool         `json:"rewritten"`
	OptimizedCode            string       `json:"optimized_code,omitempty"`
	ExecutionTimeImprovement float64      `json:"execution_time_improvement"`
	Complexity               Comparison   `json:"complexity"`
	RuntimeMs                Comparison   `json:"runtime_ms"`
	OriginalMetrics          *Metrics     `json:"original_metrics"`
	OptimizedMetrics         *Metrics     `json:"optimized_metrics,omitempty"`
}

// Changed reports whether the rewrite produced different text. OptimizedCode
// may still be empty when the patch removed everything.
func (r *Result) Changed() bool {
	return r.Rewritten
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.Suggestions = slices.Clone(r.Suggestions)
	if r.OriginalMetrics != nil {
		m := *r.OriginalMetrics
		c.OriginalMetrics = &m
	}
	if r.OptimizedMetrics != nil {
		m := *r.OptimizedMetrics
		c.OptimizedMetrics = &m
	}
	return &c
}

// CountKind returns the number of suggestions of kind k.
func (r *Result) CountKind(k Kind) int {
	n := 0
	for _, s := range r.Suggestions {
		if s.Kind == k {
			n++
		}
	}
	return n
}

// FileResult is the analysis of a single file. Exactly one of Result and
// Error is set.
type FileResult struct {
	Path   string  `json:"path"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Analysis is the result of analyzing a set of files.
type Analysis struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Files       []FileResult `json:"files"`
	Summary     Summary      `json:"summary"`
}

// Summary provides aggregate statistics over the analyzed files.
type Summary struct {
	TotalFiles             int     `json:"total_files"`
	AnalyzedFiles          int     `json:"analyzed_files"`
	FailedFiles            int     `json:"failed_files"`
	TotalOriginalEmission  float64 `json:"total_original_emission"`
	TotalOptimizedEmission float64 `json:"total_optimized_emission"`
	TotalSavings           float64 `json:"total_savings"`
	SavingsPercent         float64 `json:"savings_percent"`
	MeanEmission           float64 `json:"mean_emission"`
	StdDevEmission         float64 `json:"stddev_emission"`
	P50Emission            float64 `json:"p50_emission"`
	P90Emission            float64 `json:"p90_emission"`
	MaxEmission            float64 `json:"max_emission"`
	RewrittenFiles         int     `json:"rewritten_files"`
	Warnings               int     `json:"warnings"`
	Tips                   int     `json:"tips"`
}
