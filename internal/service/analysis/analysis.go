// Package analysis is the facade the CLI, HTTP and MCP surfaces share for
// running carbon analyses with configured settings.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/carbonsense/carbonsense/internal/cache"
	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
	"github.com/carbonsense/carbonsense/pkg/analyzer/website"
	"github.com/carbonsense/carbonsense/pkg/config"
)

// Service orchestrates carbon analysis operations.
type Service struct {
	config    *config.Config
	cache     *cache.Cache
	memo      *memo
	estimator *website.Estimator
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache sets the file result cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	s.memo = newMemo(s.config.Cache.MemoSize)
	s.estimator = website.New()
	return s
}

// Config returns the configuration the service runs with.
func (s *Service) Config() *config.Config {
	return s.config
}

// OpenCache opens the on-disk cache described by cfg. Entries are
// fingerprinted with the settings that shape a result, so changing factors
// or suggestion settings invalidates them.
func OpenCache(cfg *config.Config) (*cache.Cache, error) {
	fp, err := Fingerprint(cfg)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled, cache.WithFingerprint(fp))
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", cfg.Cache.Dir, err)
	}
	return c, nil
}

// Fingerprint hashes the settings that affect analysis results.
func Fingerprint(cfg *config.Config) (string, error) {
	data, err := json.Marshal(struct {
		Factors           carbon.Factors `json:"factors"`
		MinSuggestions    int            `json:"min_suggestions"`
		LongFunctionLines int            `json:"long_function_lines"`
		Rewrite           bool           `json:"rewrite"`
	}{
		Factors:           cfg.Factors,
		MinSuggestions:    cfg.Analysis.MinSuggestions,
		LongFunctionLines: cfg.Analysis.LongFunctionLines,
		Rewrite:           cfg.Analysis.Rewrite,
	})
	if err != nil {
		return "", err
	}
	return cache.HashBytes(data), nil
}

// FileOptions configures project analysis.
type FileOptions struct {
	// Workers overrides the configured worker count when positive.
	Workers int
	// NoCache bypasses the file cache for this run.
	NoCache bool
}

func (s *Service) newAnalyzer(workers int, useCache bool) *carbon.Analyzer {
	opts := []carbon.Option{
		carbon.WithFactors(s.config.Factors),
		carbon.WithMinSuggestions(s.config.Analysis.MinSuggestions),
		carbon.WithLongFunctionLines(s.config.Analysis.LongFunctionLines),
		carbon.WithMaxFileSize(s.config.Analysis.MaxFileSize),
		carbon.WithWorkers(s.config.Analysis.Workers),
	}
	if workers > 0 {
		opts = append(opts, carbon.WithWorkers(workers))
	}
	if !s.config.Analysis.Rewrite {
		opts = append(opts, carbon.WithoutRewrite())
	}
	if useCache && s.cache != nil && s.cache.Enabled() {
		opts = append(opts, carbon.WithCache(s.cache))
	}
	return carbon.New(opts...)
}

// AnalyzeCode analyzes a block of source text. Results for identical text
// are memoized in memory.
func (s *Service) AnalyzeCode(code string) (*carbon.Result, error) {
	if r, ok := s.memo.get(code); ok {
		s.logger.Debug("memo hit", zap.Int("chars", len(code)))
		return r, nil
	}

	a := s.newAnalyzer(0, false)
	defer a.Close()

	r, err := a.AnalyzeSource(code)
	if err != nil {
		return nil, err
	}
	s.memo.put(code, r)
	s.logger.Debug("analyzed source",
		zap.Int("chars", len(code)),
		zap.Float64("emission_g", r.OriginalEmission),
		zap.Int("suggestions", len(r.Suggestions)),
	)
	return r, nil
}

// AnalyzeFiles analyzes files concurrently. Progress is tracked via context
// using analyzer.WithTracker.
func (s *Service) AnalyzeFiles(ctx context.Context, files []string, opts FileOptions) (*carbon.Analysis, error) {
	a := s.newAnalyzer(opts.Workers, !opts.NoCache)
	defer a.Close()

	result, err := a.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}
	s.logger.Info("analyzed files",
		zap.Int("files", result.Summary.TotalFiles),
		zap.Int("failed", result.Summary.FailedFiles),
		zap.Float64("emission_g", result.Summary.TotalOriginalEmission),
	)
	return result, nil
}

// EstimateWebsite returns the mock carbon estimate for a URL.
func (s *Service) EstimateWebsite(ctx context.Context, url string) (*website.Estimate, error) {
	e, err := s.estimator.Estimate(ctx, url)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("estimated website", zap.String("url", e.URL))
	return e, nil
}
