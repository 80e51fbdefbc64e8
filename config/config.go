// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (Discord, Blossom), use ValidateBotReady.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Discord
	DiscordBotToken      string
	DiscordApplicationID string

	// Blossom
	BlossomAPIURL  string
	BlossomAPIKey  string
	BlossomTimeout time.Duration

	// HTTP server (metrics, health probes)
	HTTPAddr string

	// Rate limiting
	CommandsPerMinute int
}

// Load reads environment variables and applies defaults. It doesn't fail if Discord or
// Blossom creds are missing; use ValidateBotReady() before connecting to the gateway.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DiscordBotToken = os.Getenv("DISCORD_BOT_TOKEN")
	cfg.DiscordApplicationID = os.Getenv("DISCORD_APPLICATION_ID")

	cfg.BlossomAPIURL = os.Getenv("BLOSSOM_API_URL")
	if cfg.BlossomAPIURL == "" {
		cfg.BlossomAPIURL = "https://api.grafeas.org/api"
	}
	cfg.BlossomAPIKey = os.Getenv("BLOSSOM_API_KEY")

	if v := os.Getenv("BLOSSOM_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BLOSSOM_TIMEOUT_SECONDS (positive integer): %q", v)
		}
		cfg.BlossomTimeout = time.Duration(n) * time.Second
	} else {
		cfg.BlossomTimeout = 10 * time.Second
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	if v := os.Getenv("COMMANDS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid COMMANDS_PER_MINUTE (positive integer): %q", v)
		}
		cfg.CommandsPerMinute = n
	} else {
		cfg.CommandsPerMinute = 10
	}

	return cfg, nil
}

// ValidateBotReady checks required fields before starting the gateway and API clients.
func (c *Config) ValidateBotReady() error {
	if c.DiscordBotToken == "" || c.DiscordApplicationID == "" {
		return fmt.Errorf("missing discord env: require DISCORD_BOT_TOKEN, DISCORD_APPLICATION_ID")
	}
	if c.BlossomAPIKey == "" {
		return fmt.Errorf("missing blossom env: require BLOSSOM_API_KEY")
	}
	return nil
}
