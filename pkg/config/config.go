// Package config defines and loads the cg3kit configuration.
//
// Configuration is a YAML file with defaults applied before validation and
// CG3KIT_* environment variables applied on top. Every tool in the kit
// shares one Config.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	Store     StoreConfig     `yaml:"store"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Retention RetentionConfig `yaml:"retention"`
}

// EngineConfig tunes the analysis engine.
type EngineConfig struct {
	// MaxFileSize caps the size of a grammar file in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// IndentWidth is the column width of one indent step.
	IndentWidth int `yaml:"indent_width"`

	// Strict upgrades semantic warnings to errors.
	Strict bool `yaml:"strict"`
}

// WatcherConfig tunes the workspace file watcher.
type WatcherConfig struct {
	// Extensions are the file extensions routed to the engine.
	Extensions []string `yaml:"extensions"`

	// DebounceInterval is the quiet period before a change triggers
	// re-analysis.
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// SkipHidden skips dotfiles and dot-directories.
	SkipHidden bool `yaml:"skip_hidden"`
}

// StoreConfig tunes the persistent symbol store.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for database locks.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// MetricsConfig tunes Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// ListenAddress serves the /metrics endpoint in watch mode. Empty
	// disables the endpoint.
	ListenAddress string `yaml:"listen_address"`

	// ParseDurationBuckets are histogram buckets for parse latencies, in
	// seconds.
	ParseDurationBuckets []float64 `yaml:"parse_duration_buckets"`
}

// RetentionConfig tunes pruning of stale store rows.
type RetentionConfig struct {
	// PruneSchedule is a cron expression; empty disables scheduled
	// pruning.
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxAge drops symbol rows not refreshed within this duration.
	MaxAge time.Duration `yaml:"max_age"`
}
