// Package carbon estimates the carbon cost of JavaScript and TypeScript
// source with a lexical heuristic and proposes lower-cost rewrites.
//
// The numbers are proxies. Counts come from regular expressions over raw
// text, the complexity score is a weighted sum of those counts, and the
// emission model multiplies them by fixed per-unit factors.
package carbon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/carbonsense/carbonsense/internal/fileproc"
	"github.com/carbonsense/carbonsense/pkg/analyzer"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only source.
	ErrEmptyInput = errors.New("no code to analyze")
	// ErrAnalysisFailed is wrapped by every AnalysisError.
	ErrAnalysisFailed = errors.New("carbon analysis failed")
	// ErrFileTooLarge is returned by AnalyzeFile when a file exceeds the
	// configured size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// AnalysisError reports an unexpected fault inside the pipeline.
type AnalysisError struct {
	Cause any
	Stack []byte
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%v: %v", ErrAnalysisFailed, e.Cause)
}

// Unwrap lets errors.Is match ErrAnalysisFailed.
func (e *AnalysisError) Unwrap() error {
	return ErrAnalysisFailed
}

// Ensure Analyzer implements the analyzer contracts.
var (
	_ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)
	_ analyzer.SourceAnalyzer[*Result] = (*Analyzer)(nil)
)

// ResultCache stores file results keyed by path and content.
type ResultCache interface {
	Get(path string, content []byte) (*Result, bool)
	Put(path string, content []byte, result *Result) error
}

// Analyzer runs the estimation pipeline.
type Analyzer struct {
	factors           Factors
	minSuggestions    int
	longFunctionLines int
	maxFileSize       int64
	workers           int
	rewrite           func(string) string
	cache             ResultCache
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithFactors replaces the emission factors.
func WithFactors(f Factors) Option {
	return func(a *Analyzer) {
		a.factors = f
	}
}

// WithMinSuggestions sets how many suggestions each result carries at least.
func WithMinSuggestions(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.minSuggestions = n
		}
	}
}

// WithLongFunctionLines sets the line count above which a function is long.
func WithLongFunctionLines(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.longFunctionLines = n
		}
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithWorkers sets the number of files analyzed concurrently (0 = default).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithCache makes AnalyzeFile consult c before running the pipeline.
func WithCache(c ResultCache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithoutRewrite disables the patch step. Optimized figures then equal the
// original ones.
func WithoutRewrite() Option {
	return func(a *Analyzer) {
		a.rewrite = nil
	}
}

// New creates a new carbon analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		factors:           DefaultFactors(),
		minSuggestions:    DefaultMinSuggestions,
		longFunctionLines: DefaultLongFunctionLines,
		rewrite:           Rewrite,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the pipeline on code with default settings.
func Analyze(code string) (*Result, error) {
	return New().AnalyzeSource(code)
}

// AnalyzeSource estimates code, suggests improvements, patches it and
// estimates the patched text. A fault anywhere in the pipeline is returned
// as an *AnalysisError with no partial result.
func (a *Analyzer) AnalyzeSource(code string) (result *Result, err error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyInput
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &AnalysisError{Cause: r, Stack: debug.Stack()}
		}
	}()

	return a.analyze(code), nil
}

// estimate is the metric, complexity, runtime and emission chain for one text.
type estimate struct {
	metrics    *Metrics
	complexity float64
	runtimeMs  float64
	emission   float64
}

func (a *Analyzer) estimate(code string) estimate {
	m := extract(code, a.longFunctionLines)
	if m == nil {
		return estimate{}
	}
	c := Complexity(m)
	rt := EstimateRuntime(c, m.Lines, m.Operations)
	return estimate{
		metrics:    m,
		complexity: c,
		runtimeMs:  rt,
		emission:   EstimateEmission(m, c, rt, a.factors),
	}
}

func (a *Analyzer) analyze(code string) *Result {
	orig := a.estimate(code)
	suggestions := suggest(code, orig.metrics, a.minSuggestions)

	patched := code
	if a.rewrite != nil {
		patched = a.rewrite(code)
	}
	opt := orig
	if patched != code {
		opt = a.estimate(patched)
	}

	result := &Result{
		OriginalEmission:         orig.emission,
		OptimizedEmission:        opt.emission,
		Savings:                  orig.emission - opt.emission,
		SavingsPercent:           percentChange(orig.emission, opt.emission),
		Suggestions:              suggestions,
		ExecutionTimeImprovement: percentChange(orig.runtimeMs, opt.runtimeMs),
		Complexity:               Comparison{Original: orig.complexity, Optimized: opt.complexity},
		RuntimeMs:                Comparison{Original: orig.runtimeMs, Optimized: opt.runtimeMs},
		OriginalMetrics:          orig.metrics,
		OptimizedMetrics:         opt.metrics,
	}
	if patched != code {
		result.Rewritten = true
		result.OptimizedCode = patched
	}
	return result
}

// percentChange returns the reduction from before to after as a percentage
// of before, or 0 when before is zero.
func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	p := (before - after) / before * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// AnalyzeFile analyzes a single file on disk.
func (a *Analyzer) AnalyzeFile(path string) (*Result, error) {
	if a.maxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() > a.maxFileSize {
			return nil, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrFileTooLarge, info.Size(), a.maxFileSize)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if cached, ok := a.cache.Get(path, content); ok {
			return cached, nil
		}
	}

	result, err := a.AnalyzeSource(string(content))
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		// Cache write failures are non-fatal.
		_ = a.cache.Put(path, content, result)
	}
	return result, nil
}

// Analyze analyzes all files using parallel processing. Files that fail are
// reported in their FileResult and do not abort the run. Progress is tracked
// via context using analyzer.WithTracker.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	results, errs := fileproc.MapFiles(ctx, files, a.workers, func(_ context.Context, path string) (*Result, error) {
		return a.AnalyzeFile(path)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := make(map[string]error)
	if errs != nil {
		for _, pe := range errs.Errors {
			failed[pe.Path] = pe.Err
		}
	}

	fileResults := make([]FileResult, len(files))
	for i, path := range files {
		fileResults[i] = FileResult{Path: path, Result: results[i]}
		if err, ok := failed[path]; ok {
			fileResults[i] = FileResult{Path: path, Error: err.Error()}
		}
	}

	return &Analysis{
		GeneratedAt: time.Now().UTC(),
		Files:       fileResults,
		Summary:     Summarize(fileResults),
	}, nil
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}

// Summarize computes aggregate statistics over file results.
func Summarize(files []FileResult) Summary {
	s := Summary{TotalFiles: len(files)}

	emissions := make([]float64, 0, len(files))
	for _, f := range files {
		if f.Result == nil {
			s.FailedFiles++
			continue
		}
		r := f.Result
		s.AnalyzedFiles++
		s.TotalOriginalEmission += r.OriginalEmission
		s.TotalOptimizedEmission += r.OptimizedEmission
		s.Warnings += r.CountKind(KindWarning)
		s.Tips += r.CountKind(KindTip)
		if r.Changed() {
			s.RewrittenFiles++
		}
		emissions = append(emissions, r.OriginalEmission)
	}

	s.TotalSavings = s.TotalOriginalEmission - s.TotalOptimizedEmission
	s.SavingsPercent = percentChange(s.TotalOriginalEmission, s.TotalOptimizedEmission)

	if len(emissions) == 0 {
		return s
	}
	sort.Float64s(emissions)
	s.MeanEmission = stat.Mean(emissions, nil)
	if len(emissions) > 1 {
		s.StdDevEmission = stat.StdDev(emissions, nil)
	}
	s.P50Emission = stat.Quantile(0.5, stat.Empirical, emissions, nil)
	s.P90Emission = stat.Quantile(0.9, stat.Empirical, emissions, nil)
	s.MaxEmission = emissions[len(emissions)-1]
	return s
}
