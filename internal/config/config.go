package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration shared by the server and the client binaries.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Client   ClientConfig `yaml:"client"`
	LogLevel string       `yaml:"log_level"` // gorm logger: silent|error|warn|info
}

// ServerConfig configures the static origin.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// SiteDir overrides the embedded site when set.
	SiteDir string `yaml:"site_dir"`
	// SnapshotDir holds torrents.parquet / torrents.csv.
	SnapshotDir string `yaml:"snapshot_dir"`
	// WatchSnapshots broadcasts snapshot_updated events on file changes.
	WatchSnapshots bool `yaml:"watch_snapshots"`
}

// ClientConfig configures the search front end and its asset cache controller.
type ClientConfig struct {
	Origin       string   `yaml:"origin"`
	CacheVersion string   `yaml:"cache_version"`
	CachePrefix  string   `yaml:"cache_prefix"`
	CacheDB      string   `yaml:"cache_db"`
	StaticAssets []string `yaml:"static_assets"`
	SnapshotPath string   `yaml:"snapshot_path"`
	FallbackPath string   `yaml:"fallback_path"`
	SkipWaiting  bool     `yaml:"skip_waiting"`
	SyncTag      string   `yaml:"sync_tag"`
	EventsPath   string   `yaml:"events_path"`

	MinSyncPeriod     time.Duration `yaml:"min_sync_period"`
	DebounceDelay     time.Duration `yaml:"debounce_delay"`
	ResultCacheSize   int           `yaml:"result_cache_size"`
	ResultCachePolicy string        `yaml:"result_cache_policy"` // fifo|lru
	// FilterDeadInDefault hides rows without seeders from the default view.
	FilterDeadInDefault bool          `yaml:"filter_dead_in_default"`
	InitTimeout         time.Duration `yaml:"init_timeout"`
}

// Default returns a configuration that works for a local setup.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           "8008",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			SnapshotDir:    "data",
			WatchSnapshots: true,
		},
		Client: ClientConfig{
			Origin:       "http://localhost:8008/",
			CacheVersion: "1.1.0",
			CachePrefix:  "ducktorrents",
			CacheDB:      "ducktorrents-cache.db",
			StaticAssets: []string{
				"./",
				"./index.html",
				"./style.css",
				"./manifest.json",
			},
			SnapshotPath:        "torrents.parquet",
			FallbackPath:        "torrents.csv",
			SkipWaiting:         true,
			SyncTag:             "update-torrents",
			EventsPath:          "ws",
			MinSyncPeriod:       30 * time.Second,
			DebounceDelay:       300 * time.Millisecond,
			ResultCacheSize:     50,
			ResultCachePolicy:   "fifo",
			FilterDeadInDefault: true,
			InitTimeout:         30 * time.Second,
		},
		LogLevel: "warn",
	}
}

// Addr returns host:port for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Msg
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Client.ResultCacheSize <= 0 {
		return &ConfigError{Field: "client.result_cache_size", Msg: "must be positive"}
	}
	if c.Client.DebounceDelay < 0 {
		return &ConfigError{Field: "client.debounce_delay", Msg: "must not be negative"}
	}
	if c.Client.CacheVersion == "" {
		return &ConfigError{Field: "client.cache_version", Msg: "is required"}
	}
	switch c.Client.ResultCachePolicy {
	case "fifo", "lru":
	default:
		return &ConfigError{Field: "client.result_cache_policy", Msg: "must be fifo or lru"}
	}
	return nil
}

// LoadYAMLConfig loads a YAML file on top of the defaults returned by fn.
// An empty path or a missing file yields the defaults without error.
func LoadYAMLConfig[T any](configPath string, fn func() *T) (*T, error) {
	config := fn()

	if configPath == "" {
		return config, nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return config, fmt.Errorf("read config %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	return config, nil
}

// Load reads the YAML file at path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadYAMLConfig(path, Default)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped and variables that are already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("DUCKTORRENTS_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("DUCKTORRENTS_PORT", cfg.Server.Port)
	cfg.Server.SiteDir = getEnv("DUCKTORRENTS_SITE_DIR", cfg.Server.SiteDir)
	cfg.Server.SnapshotDir = getEnv("DUCKTORRENTS_SNAPSHOT_DIR", cfg.Server.SnapshotDir)

	cfg.Client.Origin = getEnv("DUCKTORRENTS_ORIGIN", cfg.Client.Origin)
	cfg.Client.CacheVersion = getEnv("DUCKTORRENTS_CACHE_VERSION", cfg.Client.CacheVersion)
	cfg.Client.CacheDB = getEnv("DUCKTORRENTS_CACHE_DB", cfg.Client.CacheDB)
	cfg.Client.ResultCachePolicy = getEnv("DUCKTORRENTS_RESULT_CACHE_POLICY", cfg.Client.ResultCachePolicy)
	cfg.Client.ResultCacheSize = getEnvInt("DUCKTORRENTS_RESULT_CACHE_SIZE", cfg.Client.ResultCacheSize)
	cfg.Client.DebounceDelay = getEnvDuration("DUCKTORRENTS_DEBOUNCE", cfg.Client.DebounceDelay)

	cfg.LogLevel = getEnv("DUCKTORRENTS_LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
