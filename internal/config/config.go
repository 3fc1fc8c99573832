// Package config loads the bot configuration from config.toml and the
// environment. Environment variables win over file values so secrets can stay
// out of the config file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath = "config.toml"
	DefaultHTTPAddr   = ":8080"
	DefaultModel      = "gemini-1.5-flash-latest"
	DefaultGeminiBase = "https://generativelanguage.googleapis.com"
)

type Config struct {
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
	Discord DiscordConfig `toml:"discord"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format" validate:"omitempty,oneof=text json"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DiscordConfig struct {
	BotToken string `toml:"bot_token" validate:"required"`
}

type GeminiConfig struct {
	APIKey         string `toml:"api_key" validate:"required"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=0"`
}

// Load reads the config file at path (DefaultConfigPath when empty), applies
// environment overrides, and validates the result. A missing file is not an
// error; credentials may come entirely from the environment.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Gemini: GeminiConfig{
			Model:          DefaultModel,
			BaseURL:        DefaultGeminiBase,
			TimeoutSeconds: 30,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.BotToken = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}
