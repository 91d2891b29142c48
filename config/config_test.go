package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesEnvDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cleanenv.ReadEnv(&cfg))
	cfg.ApplyDefaults()

	assert.Equal(t, *DefaultConfig(), cfg)
	assert.Empty(t, DefaultConfig().Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.toml")
	content := `
[server]
port = 9090
rate_limit = 25.5

[dataset]
path = "words.tsv"
delimiter = ","
watch = true

[search]
default_strategy = "linear"
debounce_delay_ms = 150

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25.5, cfg.Server.RateLimit)
	assert.Equal(t, "words.tsv", cfg.Dataset.Path)
	assert.Equal(t, ",", cfg.Dataset.Delimiter)
	assert.True(t, cfg.Dataset.Watch)
	assert.Equal(t, "linear", cfg.Search.DefaultStrategy)
	assert.Equal(t, 150*time.Millisecond, cfg.DebounceDelay())
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 150, cfg.Search.MaxResults)
	assert.Equal(t, 50, cfg.Search.DefaultViewSize)
	assert.Equal(t, 2, cfg.Jobs.MaxWorkers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9090\n"), 0o600))

	t.Setenv("LOOKUP_SERVER_PORT", "7070")
	t.Setenv("LOOKUP_SEARCH_DEFAULT_STRATEGY", "linear")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "linear", cfg.Search.DefaultStrategy)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("LOOKUP_DATASET_PATH", "/data/words.msgpack")
	t.Setenv("LOOKUP_JOBS_MAX_WORKERS", "4")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/words.msgpack", cfg.Dataset.Path)
	assert.Equal(t, 4, cfg.Jobs.MaxWorkers)
	assert.Equal(t, "\t", cfg.Dataset.Delimiter)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.toml")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ndefault_strategy = \"fuzzy\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.default_strategy")
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lookup.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, DefaultConfig(), cfg)

	// A second call reads the existing file instead of overwriting it
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 8181\n"), 0o600))
	cfg, err = InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"watch without path", func(c *Config) { c.Dataset.Watch = true }, "dataset.watch requires dataset.path"},
		{"unknown strategy", func(c *Config) { c.Search.DefaultStrategy = "fuzzy" }, "search.default_strategy"},
		{"negative cache size", func(c *Config) { c.Search.LookupCacheSize = -5 }, "search.lookup_cache_size"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"no workers", func(c *Config) { c.Jobs.MaxWorkers = 0 }, "jobs.max_workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			problems := cfg.Validate()
			require.Len(t, problems, 1)
			assert.Contains(t, problems[0], tt.problem)
		})
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 3000},
		Search: SearchConfig{DefaultStrategy: "linear", MaxResults: 10},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "linear", cfg.Search.DefaultStrategy)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 50, cfg.Search.DefaultViewSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.JobRetention())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDelay())
}
