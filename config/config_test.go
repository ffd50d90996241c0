package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileConfigCreatesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")

	cfg, err := LoadFileConfigFromPath(path)
	if err != nil {
		t.Fatalf("LoadFileConfigFromPath() error = %v", err)
	}
	if !FileExists(path) {
		t.Fatal("expected settings template to be written")
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderOpenAI)
	}
	if cfg.Model != "gpt-3.5-turbo" {
		t.Errorf("Model = %q, want gpt-3.5-turbo", cfg.Model)
	}

	// The generated template must parse back to the same defaults.
	reloaded, err := LoadFileConfigFromPath(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if reloaded.Cache.Backend != CacheSQLite || reloaded.Cache.SQLitePath != ":memory:" {
		t.Errorf("cache config = %+v, want sqlite/:memory:", reloaded.Cache)
	}
	if reloaded.ArtifactDir != "." {
		t.Errorf("ArtifactDir = %q, want .", reloaded.ArtifactDir)
	}
}

func TestLoadFileConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := `
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
request_timeout_seconds = 30

[cache]
backend = "redis"
redis_addr = "cache:6379"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFileConfigFromPath(path)
	if err != nil {
		t.Fatalf("LoadFileConfigFromPath() error = %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	// Unset keys keep their defaults
	if cfg.HistoryPeriod != "1y" {
		t.Errorf("HistoryPeriod = %q, want 1y", cfg.HistoryPeriod)
	}

	merged := fromFile(cfg)
	if merged.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", merged.RequestTimeout)
	}
}

func TestSaveFileConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	cfg := DefaultFileConfig()
	cfg.Model = "gpt-4o-mini"

	if err := SaveFileConfig(cfg, path); err != nil {
		t.Fatalf("SaveFileConfig() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadFileConfigFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", got.Model)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STOCKCHAT_PROVIDER", "OLLAMA")
	t.Setenv("STOCKCHAT_MODEL", "llama3.1:latest")
	t.Setenv("STOCKCHAT_BASE_URL", "http://gpu:11434")
	t.Setenv("STOCKCHAT_API_KEY", "")

	cfg := fromFile(DefaultFileConfig())
	cfg.applyEnvOverrides()

	if cfg.Provider != ProviderOllama {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.ModelName != "llama3.1:latest" {
		t.Errorf("ModelName = %q", cfg.ModelName)
	}
	if cfg.BaseURL != "http://gpu:11434" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequiresAPIKey() {
		t.Error("ollama should not require an API key")
	}
}

func TestEnvAPIKeyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		want     string
	}{
		{"stockchat key wins", ProviderOpenAI, map[string]string{"STOCKCHAT_API_KEY": "a", "OPENAI_API_KEY": "b"}, "a"},
		{"openai fallback", ProviderOpenAI, map[string]string{"OPENAI_API_KEY": "b"}, "b"},
		{"anthropic fallback", ProviderAnthropic, map[string]string{"ANTHROPIC_API_KEY": "c"}, "c"},
		{"vendor key for other provider ignored", ProviderAnthropic, map[string]string{"OPENAI_API_KEY": "b"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"STOCKCHAT_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
				t.Setenv(k, tt.env[k])
			}
			if got := envAPIKey(tt.provider); got != tt.want {
				t.Errorf("envAPIKey(%q) = %q, want %q", tt.provider, got, tt.want)
			}
		})
	}
}

func TestReadAPIKeyFile(t *testing.T) {
	dir := t.TempDir()

	key, err := ReadAPIKeyFile(filepath.Join(dir, "missing"))
	if err != nil || key != "" {
		t.Errorf("missing file: got (%q, %v), want empty, nil", key, err)
	}

	path := filepath.Join(dir, "API_KEY")
	if err := os.WriteFile(path, []byte("sk-test\n"), 0600); err != nil {
		t.Fatal(err)
	}
	key, err = ReadAPIKeyFile(path)
	if err != nil {
		t.Fatalf("ReadAPIKeyFile() error = %v", err)
	}
	if key != "sk-test" {
		t.Errorf("key = %q, want sk-test", key)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }, true},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"empty cache means default", func(c *Config) { c.Cache.Backend = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fromFile(DefaultFileConfig())
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestArtifactPath(t *testing.T) {
	cfg := &Config{ArtifactDir: ""}
	if got := cfg.ArtifactPath("stock.png"); got != "stock.png" {
		t.Errorf("ArtifactPath() = %q, want stock.png", got)
	}

	cfg.ArtifactDir = "/tmp/charts"
	if got := cfg.ArtifactPath("stock.png"); got != "/tmp/charts/stock.png" {
		t.Errorf("ArtifactPath() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("CHARTS", "charts")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/data", "/home/tester/data"},
		{"/var/$CHARTS/", "/var/charts"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModelDefaultsPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{ProviderOpenAI, DefaultModel, DefaultModel},
		{ProviderOllama, DefaultModel, ""},
		{ProviderAnthropic, DefaultModel, ""},
		{ProviderOllama, "qwen2.5:7b", "qwen2.5:7b"},
		{ProviderOpenRouter, "openai/gpt-4o-mini", "openai/gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, ModelName: tt.model}
			if got := cfg.Model(); got != tt.want {
				t.Errorf("Model() = %q, want %q", got, tt.want)
			}
		})
	}
}
