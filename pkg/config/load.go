package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, applies
// CG3KIT_* environment overrides, and validates the result. An empty path
// yields the defaults (plus any environment overrides).
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.MaxFileSize == 0 {
		cfg.Engine.MaxFileSize = 10 * 1024 * 1024 // 10MB
	}
	if cfg.Engine.IndentWidth == 0 {
		cfg.Engine.IndentWidth = 4
	}
	if len(cfg.Watcher.Extensions) == 0 {
		cfg.Watcher.Extensions = []string{".cg3", ".rlx"}
	}
	if cfg.Watcher.DebounceInterval == 0 {
		cfg.Watcher.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = 5 * time.Second
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "cg3kit"
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = "engine"
	}
	if len(cfg.Metrics.ParseDurationBuckets) == 0 {
		// Incremental reparses land in the sub-millisecond buckets; full
		// parses of large grammars in the upper ones.
		cfg.Metrics.ParseDurationBuckets = []float64{
			0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.25, 1.0,
		}
	}
	if cfg.Retention.MaxAge == 0 {
		cfg.Retention.MaxAge = 30 * 24 * time.Hour
	}
}

// Validate rejects configurations the tools cannot run with.
func Validate(cfg *Config) error {
	if cfg.Engine.MaxFileSize < 0 {
		return fmt.Errorf("engine.max_file_size must not be negative")
	}
	if cfg.Engine.IndentWidth < 1 || cfg.Engine.IndentWidth > 16 {
		return fmt.Errorf("engine.indent_width must be between 1 and 16, got %d", cfg.Engine.IndentWidth)
	}
	for _, ext := range cfg.Watcher.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watcher.extensions entries must start with '.', got %q", ext)
		}
	}
	if cfg.Watcher.DebounceInterval < 0 {
		return fmt.Errorf("watcher.debounce_interval must not be negative")
	}
	if cfg.Retention.MaxAge < 0 {
		return fmt.Errorf("retention.max_age must not be negative")
	}
	return nil
}

// applyEnvOverrides applies CG3KIT_SECTION_FIELD environment variables on
// top of the loaded configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CG3KIT_ENGINE_MAX_FILE_SIZE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Engine.MaxFileSize = i
		}
	}
	if val := os.Getenv("CG3KIT_ENGINE_INDENT_WIDTH"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.IndentWidth = i
		}
	}
	if val := os.Getenv("CG3KIT_ENGINE_STRICT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Engine.Strict = b
		}
	}
	if val := os.Getenv("CG3KIT_WATCHER_DEBOUNCE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watcher.DebounceInterval = d
		}
	}
	if val := os.Getenv("CG3KIT_WATCHER_EXTENSIONS"); val != "" {
		cfg.Watcher.Extensions = strings.Split(val, ",")
	}
	if val := os.Getenv("CG3KIT_STORE_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("CG3KIT_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CG3KIT_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}
	if val := os.Getenv("CG3KIT_RETENTION_PRUNE_SCHEDULE"); val != "" {
		cfg.Retention.PruneSchedule = val
	}
	if val := os.Getenv("CG3KIT_RETENTION_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retention.MaxAge = d
		}
	}
}
