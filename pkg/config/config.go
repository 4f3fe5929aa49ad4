package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
)

// Config holds all configuration options for carbonsense.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Emission factors in grams CO2e per unit
	Factors carbon.Factors `koanf:"factors" toml:"factors"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// HTTP service settings
	Server ServerConfig `koanf:"server" toml:"server"`

	// Logging settings
	Logging LoggingConfig `koanf:"logging" toml:"logging"`
}

// AnalysisConfig controls the estimation pipeline.
type AnalysisConfig struct {
	MinSuggestions    int      `koanf:"min_suggestions" toml:"min_suggestions"`
	LongFunctionLines int      `koanf:"long_function_lines" toml:"long_function_lines"`
	MaxFileSize       int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = no limit
	Workers           int      `koanf:"workers" toml:"workers"`             // 0 = 2x NumCPU
	Rewrite           bool     `koanf:"rewrite" toml:"rewrite"`
	Extensions        []string `koanf:"extensions" toml:"extensions"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled  bool   `koanf:"enabled" toml:"enabled"`
	Dir      string `koanf:"dir" toml:"dir"`
	TTL      int    `koanf:"ttl" toml:"ttl"`             // TTL in hours
	MemoSize int    `koanf:"memo_size" toml:"memo_size"` // pasted-text results kept in memory
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
	Top     int    `koanf:"top" toml:"top"` // worst files listed in summaries, 0 = all
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr         string `koanf:"addr" toml:"addr"`
	Mode         string `koanf:"mode" toml:"mode"`                   // gin mode: release, debug, test
	ReadTimeout  int    `koanf:"read_timeout" toml:"read_timeout"`   // seconds
	WriteTimeout int    `koanf:"write_timeout" toml:"write_timeout"` // seconds
	MaxBodyBytes int64  `koanf:"max_body_bytes" toml:"max_body_bytes"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string   `koanf:"level" toml:"level"`   // debug, info, warn, error
	Format string   `koanf:"format" toml:"format"` // json, console
	Output []string `koanf:"output" toml:"output"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "markdown", "toon"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MinSuggestions:    carbon.DefaultMinSuggestions,
			LongFunctionLines: carbon.DefaultLongFunctionLines,
			MaxFileSize:       1 << 20,
			Workers:           0,
			Rewrite:           true,
			Extensions:        []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"},
		},
		Factors: carbon.DefaultFactors(),
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.bundle.js",
				"*.d.ts",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".carbonsense",
				"dist",
				"build",
				"coverage",
				".next",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Dir:      ".carbonsense/cache",
			TTL:      24,
			MemoSize: 256,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
			Top:    10,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			Mode:         "release",
			ReadTimeout:  10,
			WriteTimeout: 30,
			MaxBodyBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: []string{"stderr"},
		},
	}
}

// LoadResult is a loaded configuration and where it came from.
type LoadResult struct {
	Config *Config
	// Source is the file the config was read from, empty for defaults.
	Source string
}

type loadOptions struct {
	path       string
	searchDirs []string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs replaces the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.searchDirs = dirs
	}
}

// Standard config file names to search for.
var configNames = []string{
	"carbonsense.toml",
	"carbonsense.yaml",
	"carbonsense.yml",
	"carbonsense.json",
	".carbonsense.toml",
	".carbonsense.yaml",
	".carbonsense.yml",
	".carbonsense.json",
}

// LoadConfig loads configuration from an explicit path or the first config
// file found in the search directories. Without either it returns defaults.
// A file that exists but fails to parse or validate is an error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{searchDirs: []string{".", ".carbonsense"}}
	for _, opt := range opts {
		opt(o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	if path := findConfig(o.searchDirs); path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

func findConfig(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// Load loads configuration from a file, layered over DefaultConfig, and
// validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	if err := validateDocument(k.Raw()); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	// ZeroFields makes lists in the file replace the default lists.
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			ZeroFields:       true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// ValidationError lists every problem found in a config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	var problems []string

	factors := []struct {
		name  string
		value float64
	}{
		{"per_operation", c.Factors.PerOperation},
		{"per_loop", c.Factors.PerLoop},
		{"per_nested_loop", c.Factors.PerNestedLoop},
		{"per_dom_operation", c.Factors.PerDOMOperation},
		{"per_complexity", c.Factors.PerComplexity},
		{"per_runtime_ms", c.Factors.PerRuntimeMs},
	}
	for _, f := range factors {
		if f.value < 0 {
			problems = append(problems, fmt.Sprintf("factors.%s must not be negative", f.name))
		}
	}

	if c.Analysis.Workers < 0 {
		problems = append(problems, "analysis.workers must not be negative")
	}
	if c.Analysis.MinSuggestions < 0 {
		problems = append(problems, "analysis.min_suggestions must not be negative")
	}
	if c.Analysis.LongFunctionLines < 0 {
		problems = append(problems, "analysis.long_function_lines must not be negative")
	}
	if c.Analysis.MaxFileSize < 0 {
		problems = append(problems, "analysis.max_file_size must not be negative")
	}
	for _, ext := range c.Analysis.Extensions {
		if !strings.HasPrefix(ext, ".") {
			problems = append(problems, fmt.Sprintf("analysis.extensions: %q must start with a dot", ext))
		}
	}
	if !knownFormat(c.Output.Format) {
		problems = append(problems, fmt.Sprintf("output.format: unknown format %q", c.Output.Format))
	}
	if c.Output.Top < 0 {
		problems = append(problems, "output.top must not be negative")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func knownFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	path = filepath.ToSlash(path)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

// HasExtension reports whether path has one of the analyzed extensions.
func (c *Config) HasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Analysis.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
