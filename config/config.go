package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type CacheConfig struct {
	Backend       string `toml:"backend"`
	SQLitePath    string `toml:"sqlite_path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db"`
}

type FileConfig struct {
	DataDirectory         string      `toml:"data_directory"`
	Provider              string      `toml:"provider"`
	Model                 string      `toml:"model"`
	BaseURL               string      `toml:"base_url,omitempty"`
	APIKey                string      `toml:"api_key,omitempty"`
	APIKeyFile            string      `toml:"api_key_file,omitempty"`
	ArtifactDir           string      `toml:"artifact_dir"`
	HistoryPeriod         string      `toml:"history_period"`
	RequestTimeoutSeconds int         `toml:"request_timeout_seconds"`
	MetricsAddr           string      `toml:"metrics_addr,omitempty"`
	Cache                 CacheConfig `toml:"cache"`
}

type Config struct {
	DataDirectory  string
	Provider       string
	ModelName      string
	BaseURL        string
	APIKey         string
	ArtifactDir    string
	HistoryPeriod  string
	RequestTimeout time.Duration
	MetricsAddr    string
	Cache          CacheConfig
}

var Debug = false
var DebugLog *log.Logger

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Model returns the model to request. The OpenAI default is not passed to
// other providers, so a provider switch alone picks that provider's default.
func (c *Config) Model() string {
	if c.ModelName == DefaultModel && c.Provider != ProviderOpenAI {
		return ""
	}
	return c.ModelName
}

// ArtifactPath resolves a fixed artifact file name (stock.png, moving_averages.png)
// against the configured artifact directory.
func (c *Config) ArtifactPath(name string) string {
	dir := ExpandPath(c.ArtifactDir)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("STOCKCHAT_PROVIDER"); p != "" {
		c.Provider = strings.ToLower(p)
	}
	if model := os.Getenv("STOCKCHAT_MODEL"); model != "" {
		c.ModelName = model
	}
	if baseURL := os.Getenv("STOCKCHAT_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if dataDir := os.Getenv("STOCKCHAT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if key := envAPIKey(c.Provider); key != "" {
		c.APIKey = key
	}
}

// envAPIKey returns the first API key found in the environment for the provider.
// STOCKCHAT_API_KEY always wins over the vendor variables.
func envAPIKey(provider string) string {
	if key := os.Getenv("STOCKCHAT_API_KEY"); key != "" {
		return key
	}
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

// RequiresAPIKey reports whether the configured provider needs a key to start.
func (c *Config) RequiresAPIKey() bool {
	return c.Provider != ProviderOllama
}

func CheckDebug() bool {
	debug := os.Getenv("STOCKCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - prompts and API responses end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (STOCKCHAT_DEBUG=%s) ===", os.Getenv("STOCKCHAT_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// InitStderrDebugLog routes debug output to stderr. Used by the MCP server
// mode where stdout carries the protocol stream.
func InitStderrDebugLog() {
	if !CheckDebug() {
		return
	}
	Debug = true
	DebugLog = log.New(os.Stderr, "[stockchat] ", log.Ldate|log.Ltime|log.Lmicroseconds)
}

func Load() (*Config, error) {
	fileCfg, err := LoadFileConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := fromFile(fileCfg)
	cfg.applyEnvOverrides()

	if cfg.APIKey == "" && fileCfg.APIKeyFile != "" {
		key, err := ReadAPIKeyFile(ExpandPath(fileCfg.APIKeyFile))
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}

func fromFile(f *FileConfig) *Config {
	timeout := time.Duration(f.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Config{
		DataDirectory:  f.DataDirectory,
		Provider:       strings.ToLower(f.Provider),
		ModelName:      f.Model,
		BaseURL:        f.BaseURL,
		APIKey:         f.APIKey,
		ArtifactDir:    f.ArtifactDir,
		HistoryPeriod:  f.HistoryPeriod,
		RequestTimeout: timeout,
		MetricsAddr:    f.MetricsAddr,
		Cache:          f.Cache,
	}
}

// Validate checks the merged configuration for values that would only fail later.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}

	switch c.Cache.Backend {
	case CacheSQLite, CacheRedis, CacheNone, "":
	default:
		return fmt.Errorf("unknown cache backend: %q", c.Cache.Backend)
	}

	if c.HistoryPeriod == "" {
		c.HistoryPeriod = "1y"
	}
	return nil
}

// ReadAPIKeyFile reads a key from a plain-text file. A missing file is not an
// error; the caller decides whether an empty key is fatal.
func ReadAPIKeyFile(path string) (string, error) {
	if !FileExists(path) {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
