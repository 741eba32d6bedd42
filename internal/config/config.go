package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }

// LoadConfig reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrConfig("DISCORD_TOKEN required")
	}
	if (c.SpotifyClientID == "") != (c.SpotifyClientSecret == "") {
		return ErrConfig("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}
	if c.PlaylistSongLimit < 0 {
		return ErrConfig("PLAYLIST_SONG_LIMIT must not be negative")
	}
	if c.SongLengthLimit < 0 {
		return ErrConfig("SONG_LENGTH_LIMIT must not be negative")
	}
	if c.IdleTimeout <= 0 {
		return ErrConfig("IDLE_TIMEOUT must be positive")
	}
	if c.ResolveRate < 0 {
		return ErrConfig("RESOLVE_RATE must not be negative")
	}
	if c.CommandTimeout <= 0 {
		return ErrConfig("COMMAND_TIMEOUT must be positive")
	}
	switch c.BotStatus {
	case "online", "dnd", "idle", "invisible":
	default:
		return ErrConfig(fmt.Sprintf("BOT_STATUS %q is not one of online, dnd, idle, invisible", c.BotStatus))
	}
	return nil
}
