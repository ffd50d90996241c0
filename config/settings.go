package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFileConfig reads settings.toml, creating it from the template on first run.
func LoadFileConfig() (*FileConfig, error) {
	return LoadFileConfigFromPath(GetSettingsFilePath())
}

func LoadFileConfigFromPath(settingsPath string) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	if !FileExists(settingsPath) {
		if err := CreateDefaultConfig(settingsPath); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(settingsPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return cfg, nil
}

func SaveFileConfig(cfg *FileConfig, settingsPath string) error {
	if err := EnsureDir(dirOf(settingsPath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600 - may contain an API key
	f, err := os.OpenFile(settingsPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return nil
}

func CreateDefaultConfig(settingsPath string) error {
	if err := EnsureDir(dirOf(settingsPath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if FileExists(settingsPath) {
		return nil
	}

	content := GenerateConfigTemplate()
	if err := os.WriteFile(settingsPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
