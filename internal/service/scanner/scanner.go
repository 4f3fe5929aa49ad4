// Package scanner resolves command-line paths into the list of source files
// to analyze.
package scanner

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/carbonsense/carbonsense/internal/scanner"
	"github.com/carbonsense/carbonsense/pkg/config"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files []string
	// Skipped counts files dropped by the size limit.
	Skipped  int
	RepoRoot string
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// ScanPaths scans files and directories and returns every source file found.
// Files named explicitly are included when their extension is analyzed, even
// if an exclusion pattern would skip them during a directory walk.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.NewScanner(s.config)
	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}

		if !info.IsDir() {
			if s.config.HasExtension(absPath) {
				add(absPath)
			}
			continue
		}

		found, err := scan.ScanDir(absPath)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		for _, f := range found {
			add(f)
		}
	}

	files, skipped := scanner.FilterBySize(files, s.config.Analysis.MaxFileSize)
	return &ScanResult{
		Files:    files,
		Skipped:  skipped,
		RepoRoot: repoRoot(paths[0]),
	}, nil
}

// repoRoot returns the worktree root of the git repository containing path,
// or empty when there is none.
func repoRoot(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return wt.Filesystem.Root()
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
