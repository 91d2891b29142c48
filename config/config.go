// Package config provides the service configuration: a TOML file with
// LOOKUP_* environment overrides and env-default tags as defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Dataset DatasetConfig `toml:"dataset"`
	Search  SearchConfig  `toml:"search"`
	Log     LogConfig     `toml:"log"`
	Jobs    JobsConfig    `toml:"jobs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string  `toml:"host"                env:"LOOKUP_SERVER_HOST"                env-default:"0.0.0.0"`
	Port              int     `toml:"port"                env:"LOOKUP_SERVER_PORT"                env-default:"8080"`
	RateLimit         float64 `toml:"rate_limit"          env:"LOOKUP_SERVER_RATE_LIMIT"          env-default:"0"`
	RateBurst         int     `toml:"rate_burst"          env:"LOOKUP_SERVER_RATE_BURST"          env-default:"20"`
	MaxBodyBytes      int64   `toml:"max_body_bytes"      env:"LOOKUP_SERVER_MAX_BODY_BYTES"      env-default:"65536"`
	ShutdownTimeoutMs int     `toml:"shutdown_timeout_ms" env:"LOOKUP_SERVER_SHUTDOWN_TIMEOUT_MS" env-default:"10000"`
}

// DatasetConfig says where the dictionary comes from.
type DatasetConfig struct {
	Name          string `toml:"name"           env:"LOOKUP_DATASET_NAME"           env-default:"dictionary"`
	Path          string `toml:"path"           env:"LOOKUP_DATASET_PATH"`
	Delimiter     string `toml:"delimiter"      env:"LOOKUP_DATASET_DELIMITER"`
	CachePath     string `toml:"cache_path"     env:"LOOKUP_DATASET_CACHE_PATH"`
	AnalyticsPath string `toml:"analytics_path" env:"LOOKUP_DATASET_ANALYTICS_PATH"`
	Watch         bool   `toml:"watch"          env:"LOOKUP_DATASET_WATCH"          env-default:"false"`
	WatchDelayMs  int    `toml:"watch_delay_ms" env:"LOOKUP_DATASET_WATCH_DELAY_MS" env-default:"500"`
}

// SearchConfig tunes the query engine.
type SearchConfig struct {
	DefaultViewSize int    `toml:"default_view_size" env:"LOOKUP_SEARCH_DEFAULT_VIEW_SIZE" env-default:"50"`
	MaxResults      int    `toml:"max_results"       env:"LOOKUP_SEARCH_MAX_RESULTS"       env-default:"150"`
	DefaultStrategy string `toml:"default_strategy"  env:"LOOKUP_SEARCH_DEFAULT_STRATEGY"  env-default:"indexed"`
	DebounceDelayMs int    `toml:"debounce_delay_ms" env:"LOOKUP_SEARCH_DEBOUNCE_DELAY_MS" env-default:"300"`
	LookupCacheSize int    `toml:"lookup_cache_size" env:"LOOKUP_SEARCH_LOOKUP_CACHE_SIZE" env-default:"1024"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"  env:"LOOKUP_LOG_LEVEL"  env-default:"info"`
	Format string `toml:"format" env:"LOOKUP_LOG_FORMAT" env-default:"text"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	MaxWorkers       int `toml:"max_workers"       env:"LOOKUP_JOBS_MAX_WORKERS"       env-default:"2"`
	RetentionMinutes int `toml:"retention_minutes" env:"LOOKUP_JOBS_RETENTION_MINUTES" env-default:"60"`
}

// DefaultConfig returns a Config with default values. It matches the env-default tags.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			RateBurst:         20,
			MaxBodyBytes:      65536,
			ShutdownTimeoutMs: 10000,
		},
		Dataset: DatasetConfig{
			Name:         "dictionary",
			Delimiter:    "\t",
			WatchDelayMs: 500,
		},
		Search: SearchConfig{
			DefaultViewSize: 50,
			MaxResults:      150,
			DefaultStrategy: "indexed",
			DebounceDelayMs: 300,
			LookupCacheSize: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Jobs: JobsConfig{
			MaxWorkers:       2,
			RetentionMinutes: 60,
		},
	}
}

// Load reads configuration from a TOML file and environment variables.
// Priority: ENV > TOML > defaults (via env-default tags).
// An empty path loads from ENV + defaults only; a path that does not exist is an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	cfg.ApplyDefaults()
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("config: validate: %s", strings.Join(problems, "; "))
	}
	return &cfg, nil
}

// InitConfig loads the config at path, writing a default file there first if none exists.
func InitConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(DefaultConfig(), path); err != nil {
			return nil, err
		}
		log.Debug("created default config file", "path", path)
	}
	return Load(path)
}

// SaveConfig writes cfg as TOML
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	f, err := os.Create(path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("config: encode: %w", err)
	}
	return f.Close()
}

// ApplyDefaults fills zero values with defaults. Booleans and the optional
// paths are left alone.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = d.Server.RateBurst
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}
	if c.Server.ShutdownTimeoutMs == 0 {
		c.Server.ShutdownTimeoutMs = d.Server.ShutdownTimeoutMs
	}

	if c.Dataset.Name == "" {
		c.Dataset.Name = d.Dataset.Name
	}
	if c.Dataset.Delimiter == "" {
		c.Dataset.Delimiter = d.Dataset.Delimiter
	}
	if c.Dataset.WatchDelayMs == 0 {
		c.Dataset.WatchDelayMs = d.Dataset.WatchDelayMs
	}

	if c.Search.DefaultViewSize == 0 {
		c.Search.DefaultViewSize = d.Search.DefaultViewSize
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = d.Search.MaxResults
	}
	if c.Search.DefaultStrategy == "" {
		c.Search.DefaultStrategy = d.Search.DefaultStrategy
	}
	if c.Search.DebounceDelayMs == 0 {
		c.Search.DebounceDelayMs = d.Search.DebounceDelayMs
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	if c.Jobs.MaxWorkers == 0 {
		c.Jobs.MaxWorkers = d.Jobs.MaxWorkers
	}
	if c.Jobs.RetentionMinutes == 0 {
		c.Jobs.RetentionMinutes = d.Jobs.RetentionMinutes
	}
}

// Validate returns one message per problem; none means the config is usable.
func (c *Config) Validate() []string {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		problems = append(problems, "server.rate_limit cannot be negative")
	}
	if c.Server.RateBurst < 0 {
		problems = append(problems, "server.rate_burst cannot be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		problems = append(problems, "server.max_body_bytes cannot be negative")
	}

	if c.Dataset.Watch && c.Dataset.Path == "" {
		problems = append(problems, "dataset.watch requires dataset.path")
	}
	if c.Dataset.WatchDelayMs < 0 {
		problems = append(problems, "dataset.watch_delay_ms cannot be negative")
	}

	if c.Search.DefaultViewSize < 0 {
		problems = append(problems, "search.default_view_size cannot be negative")
	}
	if c.Search.MaxResults < 0 {
		problems = append(problems, "search.max_results cannot be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Search.DefaultStrategy)) {
	case "linear", "indexed":
	default:
		problems = append(problems, "search.default_strategy must be 'linear' or 'indexed', got '"+c.Search.DefaultStrategy+"'")
	}
	if c.Search.DebounceDelayMs < 0 {
		problems = append(problems, "search.debounce_delay_ms cannot be negative")
	}
	if c.Search.LookupCacheSize < 0 {
		problems = append(problems, "search.lookup_cache_size cannot be negative")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, "log.level: "+err.Error())
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		problems = append(problems, "log.format must be 'text', 'json' or 'logfmt', got '"+c.Log.Format+"'")
	}

	if c.Jobs.MaxWorkers < 1 {
		problems = append(problems, "jobs.max_workers must be at least 1")
	}
	if c.Jobs.RetentionMinutes < 0 {
		problems = append(problems, "jobs.retention_minutes cannot be negative")
	}

	return problems
}

// DebounceDelay returns search.debounce_delay_ms as a duration
func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.Search.DebounceDelayMs) * time.Millisecond
}

// WatchDelay returns dataset.watch_delay_ms as a duration
func (c *Config) WatchDelay() time.Duration {
	return time.Duration(c.Dataset.WatchDelayMs) * time.Millisecond
}

// ShutdownTimeout returns server.shutdown_timeout_ms as a duration
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutMs) * time.Millisecond
}

// JobRetention returns jobs.retention_minutes as a duration
func (c *Config) JobRetention() time.Duration {
	return time.Duration(c.Jobs.RetentionMinutes) * time.Minute
}
