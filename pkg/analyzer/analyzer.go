// Package analyzer defines the contracts shared by CarbonSense estimators and
// the progress plumbing used while they run over many files.
package analyzer

import "context"

// FileAnalyzer analyzes a set of files on disk.
type FileAnalyzer[T any] interface {
	// Analyze processes files and returns the aggregate result. Progress is
	// reported through a Tracker carried by ctx, if any.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}

// SourceAnalyzer analyzes a single in-memory source text.
type SourceAnalyzer[T any] interface {
	AnalyzeSource(code string) (T, error)
}
