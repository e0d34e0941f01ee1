package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alucardeht/prosaic/internal/ingest"
	"github.com/alucardeht/prosaic/internal/logger"
	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/watcher"
)

// HomeEnv overrides the data directory.
const HomeEnv = "PROSAIC_HOME"

const configFileName = "config.yaml"

type PoemConfig struct {
	SampleLimit      int      `yaml:"sample_limit"`
	FuzzyWindow      int      `yaml:"fuzzy_window"`
	RelaxOrder       []string `yaml:"relax_order"`
	BatchParallelism int      `yaml:"batch_parallelism"`
}

type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

type IngestConfig struct {
	WorkerCount     int      `yaml:"worker_count"`
	MaxQueueSize    int      `yaml:"max_queue_size"`
	RateLimit       int      `yaml:"rate_limit"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	IncludePatterns []string `yaml:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type WatcherConfig struct {
	Enabled        bool          `yaml:"enabled"`
	DebounceWindow time.Duration `yaml:"debounce_window"`
	MaxBatchSize   int           `yaml:"max_batch_size"`
	IgnorePatterns []string      `yaml:"ignore_patterns"`
	WatchHidden    bool          `yaml:"watch_hidden"`

	// Roots maps watched directories to the corpus they feed.
	Roots map[string]string `yaml:"roots"`
}

type Config struct {
	DataDir      string          `yaml:"data_dir"`
	DatabasePath string          `yaml:"database_path"`
	SocketPath   string          `yaml:"socket_path"`
	LogLevel     string          `yaml:"log_level"`
	LogFormat    string          `yaml:"log_format"`
	Poem         PoemConfig      `yaml:"poem"`
	Templates    TemplatesConfig `yaml:"templates"`
	Ingest       IngestConfig    `yaml:"ingest"`
	Watcher      WatcherConfig   `yaml:"watcher"`
}

// DefaultDataDir is $PROSAIC_HOME, or ~/.prosaic.
func DefaultDataDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".prosaic")
}

func base() *Config {
	opts := poem.DefaultOptions()
	relax := make([]string, len(opts.RelaxOrder))
	for i, k := range opts.RelaxOrder {
		relax[i] = string(k)
	}

	return &Config{
		DataDir:   DefaultDataDir(),
		LogLevel:  "info",
		LogFormat: "text",
		Poem: PoemConfig{
			SampleLimit:      opts.SampleLimit,
			FuzzyWindow:      opts.FuzzyWindow,
			RelaxOrder:       relax,
			BatchParallelism: opts.Parallelism,
		},
		Ingest: IngestConfig{
			WorkerCount:  2,
			MaxQueueSize: 1000,
			RateLimit:    50,
			MaxFileSize:  50 * 1024 * 1024,
			IncludePatterns: []string{
				"**/*.txt",
				"**/*.md",
			},
			ExcludePatterns: []string{
				"**/.git/**",
				"**/node_modules/**",
			},
		},
		Watcher: WatcherConfig{
			Enabled:        false,
			DebounceWindow: 500 * time.Millisecond,
			MaxBatchSize:   100,
			IgnorePatterns: []string{
				"**/.git/**",
				"**/*.swp",
				"**/*~",
			},
			WatchHidden: false,
		},
	}
}

// Default returns the built-in configuration rooted at DefaultDataDir.
func Default() *Config {
	c := base()
	c.fillPaths()
	return c
}

// Load overlays the YAML file at path on the defaults. An empty path means
// config.yaml inside the data directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	c := base()
	if path == "" {
		path = filepath.Join(c.DataDir, configFileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.fillPaths()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) fillPaths() {
	c.DataDir = expandHome(c.DataDir)
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "prosaic.db")
	}
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(c.DataDir, "daemon.sock")
	}
	if c.Templates.Dir == "" {
		c.Templates.Dir = filepath.Join(c.DataDir, "templates")
	}
	c.DatabasePath = expandHome(c.DatabasePath)
	c.SocketPath = expandHome(c.SocketPath)
	c.Templates.Dir = expandHome(c.Templates.Dir)

	if len(c.Watcher.Roots) > 0 {
		roots := make(map[string]string, len(c.Watcher.Roots))
		for dir, corpus := range c.Watcher.Roots {
			roots[expandHome(dir)] = corpus
		}
		c.Watcher.Roots = roots
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
	}
	return p
}

func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.PoemOptions(); err != nil {
		return err
	}
	if c.Ingest.WorkerCount <= 0 {
		return fmt.Errorf("ingest.worker_count must be positive, got %d", c.Ingest.WorkerCount)
	}
	if c.Ingest.MaxQueueSize <= 0 {
		return fmt.Errorf("ingest.max_queue_size must be positive, got %d", c.Ingest.MaxQueueSize)
	}
	if c.Ingest.RateLimit < 0 {
		return fmt.Errorf("ingest.rate_limit must not be negative, got %d", c.Ingest.RateLimit)
	}
	if c.Ingest.MaxFileSize <= 0 {
		return fmt.Errorf("ingest.max_file_size must be positive, got %d", c.Ingest.MaxFileSize)
	}
	if c.Watcher.DebounceWindow <= 0 {
		return fmt.Errorf("watcher.debounce_window must be positive, got %s", c.Watcher.DebounceWindow)
	}
	if c.Watcher.MaxBatchSize <= 0 {
		return fmt.Errorf("watcher.max_batch_size must be positive, got %d", c.Watcher.MaxBatchSize)
	}
	for dir, corpus := range c.Watcher.Roots {
		if corpus == "" {
			return fmt.Errorf("watcher.roots: %s has no corpus", dir)
		}
	}
	return nil
}

// PoemOptions converts the poem section into generator options.
func (c *Config) PoemOptions() (poem.Options, error) {
	opts := poem.Options{
		SampleLimit: c.Poem.SampleLimit,
		FuzzyWindow: c.Poem.FuzzyWindow,
		Parallelism: c.Poem.BatchParallelism,
		RelaxOrder:  make([]poem.RuleKind, 0, len(c.Poem.RelaxOrder)),
	}
	for _, s := range c.Poem.RelaxOrder {
		k, err := poem.ParseRuleKind(s)
		if err != nil {
			return opts, fmt.Errorf("poem.relax_order: %w", err)
		}
		opts.RelaxOrder = append(opts.RelaxOrder, k)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("poem: %w", err)
	}
	return opts, nil
}

func (c *Config) WorkerOptions() ingest.WorkerConfig {
	return ingest.WorkerConfig{
		WorkerCount:     c.Ingest.WorkerCount,
		MaxQueueSize:    c.Ingest.MaxQueueSize,
		RateLimit:       c.Ingest.RateLimit,
		IncludePatterns: c.Ingest.IncludePatterns,
		ExcludePatterns: c.Ingest.ExcludePatterns,
	}
}

func (c *Config) WatcherOptions() watcher.Config {
	return watcher.Config{
		DebounceWindow: c.Watcher.DebounceWindow,
		MaxBatchSize:   c.Watcher.MaxBatchSize,
		IgnorePatterns: c.Watcher.IgnorePatterns,
		WatchHidden:    c.Watcher.WatchHidden,
	}
}

// LoggerConfig builds the logger setup; verbose forces debug.
func (c *Config) LoggerConfig(verbose bool) logger.Config {
	lc := logger.DefaultConfig()
	lc.Level, _ = logger.ParseLevel(c.LogLevel)
	if verbose {
		lc.Level = slog.LevelDebug
	}
	lc.Format = c.LogFormat
	return lc
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		filepath.Dir(c.DatabasePath),
		filepath.Dir(c.SocketPath),
		c.Templates.Dir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
