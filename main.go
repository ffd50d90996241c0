package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"stockchat/config"
	"stockchat/dispatch"
	"stockchat/functions"
	"stockchat/market"
	"stockchat/mcp"
	"stockchat/metrics"
	"stockchat/model"
	"stockchat/provider"
	"stockchat/registry"
	"stockchat/storage"
	"stockchat/ui"
)

const Version = "v0.1.0"

func main() {
	mcpMode := len(os.Args) > 1 && os.Args[1] == "mcp"

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the protocol in MCP mode
	if mcpMode {
		config.InitStderrDebugLog()
	} else {
		config.InitDebugLog(cfg.DataDir())
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		fmt.Printf("Failed to initialize metrics: %v\n", err)
		os.Exit(1)
	}

	cache, err := storage.OpenCache(cfg.Cache)
	if err != nil {
		fmt.Printf("Failed to open price cache: %v\n", err)
		os.Exit(1)
	}

	var src market.Source = market.NewYahooClient(market.WithMetrics(m))
	if cache != nil {
		src = storage.NewCachedSource(src, cache, m)
	}

	reg := registry.New()
	if err := functions.Register(reg, functions.Options{
		Source:       src,
		Period:       cfg.HistoryPeriod,
		ArtifactPath: cfg.ArtifactPath,
	}); err != nil {
		fmt.Printf("Failed to register functions: %v\n", err)
		os.Exit(1)
	}
	reg.Seal()

	if mcpMode {
		err = mcp.NewServer(reg, m, Version).ServeStdio()
	} else {
		err = runChat(cfg, reg, m, cache)
	}

	if cache != nil {
		if cerr := cache.Close(); cerr != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to close price cache: %v", cerr)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runChat(cfg *config.Config, reg *registry.Registry, m *metrics.Metrics, cache storage.PriceCache) error {
	p, err := provider.FromConfig(cfg)
	if errors.Is(err, provider.ErrMissingAPIKey) {
		return showError("Missing API Key", fmt.Sprintf(
			"No API key found for provider %q.\n\n"+
				"Set one of:\n"+
				"• STOCKCHAT_API_KEY\n"+
				"• api_key in %s\n"+
				"• an API_KEY file in the working directory",
			cfg.Provider, config.GetSettingsFilePath()))
	}
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if cfg.MetricsAddr != "" {
		srv := startMetrics(cfg, p.GetModel(), m, cache)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Stop(ctx)
		}()
	}

	dataModel := model.NewModel(cfg, p, Version)
	d := dispatch.New(p, reg, dataModel.Conversation,
		dispatch.WithMetrics(m),
		dispatch.WithTimeout(cfg.RequestTimeout),
	)

	program := tea.NewProgram(ui.NewAppView(dataModel, d), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	return nil
}

func startMetrics(cfg *config.Config, modelName string, m *metrics.Metrics, cache storage.PriceCache) *metrics.Server {
	backend := cfg.Cache.Backend
	if backend == "" {
		backend = config.CacheSQLite
	}
	health := metrics.NewHealthStatus(cfg.Provider, modelName, backend)

	if cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := cache.Ping(ctx)
		cancel()
		health.SetCacheOK(err == nil)
	}

	srv := metrics.NewServer(cfg.MetricsAddr, m, health)
	srv.Start()
	return srv
}

func showError(title, message string) error {
	p := tea.NewProgram(ui.NewErrorModal(title, message), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
