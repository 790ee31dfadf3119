// Package config defines the explicit configuration threaded into every
// component. There is no ambient settings singleton; each constructor
// receives the values it needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration unmarshals from YAML values like "30s" or "5m". A bare
// integer is taken as seconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid duration: expected a scalar, got %v", value.Kind)
	}
	if n, err := strconv.Atoi(value.Value); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the full server configuration.
type Config struct {
	// ProjectRoot is the absolute path of the project under validation.
	ProjectRoot string `yaml:"project_root"`

	// SourceRoots are the conventional source directories, relative to
	// ProjectRoot.
	SourceRoots []string `yaml:"source_roots"`

	// SourceExtensions are the file extensions treated as source files,
	// including the leading dot.
	SourceExtensions []string `yaml:"source_extensions"`

	// OutputDirs are build-output directories relative to ProjectRoot,
	// deleted by a force rebuild.
	OutputDirs []string `yaml:"output_dirs"`

	// MavenHome is the bundled toolchain location, consulted last when
	// locating the maven executable.
	MavenHome string `yaml:"maven_home"`

	// IncrementalCommand is the command used by the incremental compile
	// stage, run from ProjectRoot.
	IncrementalCommand []string `yaml:"incremental_command"`

	// Workers bounds per-file parallelism in the syntax stage.
	Workers int `yaml:"workers"`

	// SyntaxTimeout bounds the syntax check stage.
	SyntaxTimeout Duration `yaml:"syntax_timeout"`

	// BuildTimeout bounds the incremental build stage.
	BuildTimeout Duration `yaml:"build_timeout"`

	// MavenTimeout bounds the offline full build.
	MavenTimeout Duration `yaml:"maven_timeout"`

	// WatchFS enables the fsnotify-backed refresher.
	WatchFS bool `yaml:"watch_fs"`

	// WSLMode rewrites Windows paths to WSL form at the tool boundary.
	WSLMode bool `yaml:"wsl_mode"`

	// SyntaxAnalysis selects the rich lexical analyzer; when false the
	// degraded analyzer is used and syntax stages report nothing.
	SyntaxAnalysis bool `yaml:"syntax_analysis"`

	// HistoryDBPath locates the invocation history database. Empty
	// disables history.
	HistoryDBPath string `yaml:"history_db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	home, err := os.UserHomeDir()
	dbPath := ""
	if err == nil {
		dbPath = filepath.Join(home, ".mvnbridge", "history.db")
	}
	return &Config{
		SourceRoots:        []string{"src/main/java", "src/test/java"},
		SourceExtensions:   []string{".java"},
		OutputDirs:         []string{"target"},
		IncrementalCommand: []string{"mvn", "-o", "-q", "compile"},
		Workers:            runtime.NumCPU(),
		SyntaxTimeout:      Duration(30 * time.Second),
		BuildTimeout:       Duration(120 * time.Second),
		MavenTimeout:       Duration(300 * time.Second),
		WatchFS:            true,
		SyntaxAnalysis:     true,
		HistoryDBPath:      dbPath,
		LogLevel:           "info",
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; defaults plus
// environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields from MVNBRIDGE_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("MVNBRIDGE_PROJECT_ROOT"); v != "" {
		c.ProjectRoot = v
	}
	if v := os.Getenv("MVNBRIDGE_MAVEN_HOME"); v != "" {
		c.MavenHome = v
	}
	if v := os.Getenv("MVNBRIDGE_DB_PATH"); v != "" {
		c.HistoryDBPath = v
	}
	if v := os.Getenv("MVNBRIDGE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MVNBRIDGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
	if v := os.Getenv("MVNBRIDGE_WSL_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.WSLMode = b
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ProjectRoot == "" {
		return fmt.Errorf("project_root is required")
	}
	if !filepath.IsAbs(c.ProjectRoot) {
		return fmt.Errorf("project_root must be absolute: %s", c.ProjectRoot)
	}
	info, err := os.Stat(c.ProjectRoot)
	if err != nil {
		return fmt.Errorf("project_root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project_root is not a directory: %s", c.ProjectRoot)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}

// AbsSourceRoots returns the source roots joined to the project root.
// Roots that do not exist are dropped; if none exist the project root
// itself is the single root.
func (c *Config) AbsSourceRoots() []string {
	var roots []string
	for _, root := range c.SourceRoots {
		abs := filepath.Join(c.ProjectRoot, root)
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			roots = append(roots, abs)
		}
	}
	if len(roots) == 0 {
		roots = []string{c.ProjectRoot}
	}
	return roots
}

// AbsOutputDirs returns the output directories joined to the project root.
func (c *Config) AbsOutputDirs() []string {
	dirs := make([]string, 0, len(c.OutputDirs))
	for _, d := range c.OutputDirs {
		dirs = append(dirs, filepath.Join(c.ProjectRoot, d))
	}
	return dirs
}
