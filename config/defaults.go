package config

const DefaultModel = "gpt-3.5-turbo"

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		DataDirectory:         "~/.local/share/stockchat",
		Provider:              ProviderOpenAI,
		Model:                 DefaultModel,
		APIKeyFile:            "API_KEY",
		ArtifactDir:           ".",
		HistoryPeriod:         "1y",
		RequestTimeoutSeconds: 120,
		Cache: CacheConfig{
			Backend:    CacheSQLite,
			SQLitePath: ":memory:",
			RedisAddr:  "localhost:6379",
		},
	}
}

func GenerateConfigTemplate() string {
	return `# Stock Analysis Chatbot Configuration
# Location: ~/.config/stockchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory for the debug log and transcript exports
data_directory = "~/.local/share/stockchat"

# Chat provider: openai, openrouter, anthropic, ollama
provider = "openai"
model = "gpt-3.5-turbo"

# Optional API base URL override (OpenAI-compatible gateways, remote Ollama)
# base_url = ""

# API key. Leave empty to use STOCKCHAT_API_KEY / OPENAI_API_KEY or the key file below.
# api_key = ""
api_key_file = "API_KEY"

# Where plot_stock_price and plot_moving_averages write stock.png / moving_averages.png
artifact_dir = "."

# Lookback window requested from the market data provider
history_period = "1y"

request_timeout_seconds = 120

# Prometheus endpoint, e.g. "127.0.0.1:9464". Empty disables it.
# metrics_addr = ""

[cache]
# Price history cache: sqlite, redis or none
backend = "sqlite"
# ":memory:" keeps the cache for the lifetime of the process only
sqlite_path = ":memory:"
redis_addr = "localhost:6379"
redis_db = 0
`
}
