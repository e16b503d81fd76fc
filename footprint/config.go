package footprint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/quantself/footprint/internal/collector"
	"github.com/hazyhaar/quantself/guard"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("footprint: invalid config")

// Config holds the full footprint configuration.
type Config struct {
	// OutputDir holds unified.db. A leading "~" is expanded.
	OutputDir string `yaml:"output_dir"`
	// SnapshotDir holds the per-source copies. Empty means
	// <output_dir>/source_dbs.
	SnapshotDir string `yaml:"snapshot_dir"`
	Verbose     bool   `yaml:"verbose"`
	// Sources lists the sources ExtractAll runs, in order. Empty means all.
	Sources []string `yaml:"sources"`
	// SourcePaths replaces the default candidate paths of a source.
	SourcePaths map[string][]string `yaml:"source_paths"`
	// Home replaces the user's home directory when expanding "~".
	Home     string `yaml:"home"`
	TraceSQL bool   `yaml:"trace_sql"`
}

// Environment variables read by ApplyEnv.
const (
	EnvOutputDir   = "FOOTPRINT_OUTPUT_DIR"
	EnvSnapshotDir = "FOOTPRINT_SNAPSHOT_DIR"
	EnvVerbose     = "FOOTPRINT_VERBOSE"
	EnvHome        = "FOOTPRINT_HOME"
)

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "data",
		Verbose:   true,
	}
}

// LoadConfig reads a YAML config file over DefaultConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from FOOTPRINT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvSnapshotDir); v != "" {
		c.SnapshotDir = v
	}
	if v := os.Getenv(EnvHome); v != "" {
		c.Home = v
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvVerbose, v, err)
		}
		c.Verbose = b
	}
	return nil
}

// Validate checks that required fields are present and source names are known.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalidConfig)
	}
	for _, s := range c.Sources {
		if _, err := collector.ParseKind(s); err != nil {
			return fmt.Errorf("%w: sources: %w", ErrInvalidConfig, err)
		}
	}
	for s, paths := range c.SourcePaths {
		if _, err := collector.ParseKind(s); err != nil {
			return fmt.Errorf("%w: source_paths: %w", ErrInvalidConfig, err)
		}
		for i, p := range paths {
			if p == "" {
				return fmt.Errorf("%w: source_paths[%s][%d] is empty", ErrInvalidConfig, s, i)
			}
		}
	}
	return nil
}

// Kinds returns the enabled sources in extraction order.
func (c *Config) Kinds() []collector.Kind {
	if len(c.Sources) == 0 {
		return collector.All()
	}
	kinds := make([]collector.Kind, 0, len(c.Sources))
	seen := make(map[collector.Kind]bool)
	for _, s := range c.Sources {
		k, err := collector.ParseKind(s)
		if err != nil || seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds
}

// Overrides returns the configured paths for k. Keys match source names
// case-insensitively.
func (c *Config) Overrides(k collector.Kind) []string {
	for s, paths := range c.SourcePaths {
		if pk, err := collector.ParseKind(s); err == nil && pk == k {
			return paths
		}
	}
	return nil
}

// outputDir is OutputDir with "~" expanded.
func (c *Config) outputDir() (string, error) {
	return guard.ExpandHome(c.OutputDir, c.Home)
}

// snapshotDir is SnapshotDir with "~" expanded, defaulting under the output dir.
func (c *Config) snapshotDir() (string, error) {
	if c.SnapshotDir == "" {
		out, err := c.outputDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(out, "source_dbs"), nil
	}
	return guard.ExpandHome(c.SnapshotDir, c.Home)
}
