package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdirTemp keeps LoadConfig away from any .env in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PlaylistSongLimit != 30 {
		t.Errorf("PlaylistSongLimit = %d, want 30", cfg.PlaylistSongLimit)
	}
	if cfg.SongLengthLimit != 10*time.Minute {
		t.Errorf("SongLengthLimit = %v, want 10m", cfg.SongLengthLimit)
	}
	if cfg.IdleTimeout != 120*time.Second {
		t.Errorf("IdleTimeout = %v, want 2m", cfg.IdleTimeout)
	}
	if cfg.BotStatus != "online" {
		t.Errorf("BotStatus = %q", cfg.BotStatus)
	}
	if cfg.SpotifyEnabled() {
		t.Error("Spotify enabled without credentials")
	}
	if _, err := os.Stat(cfg.DataDir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("PLAYLIST_SONG_LIMIT", "5")
	t.Setenv("SONG_LENGTH_LIMIT", "90s")
	t.Setenv("IDLE_TIMEOUT", "1m")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("DEBUG", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PlaylistSongLimit != 5 || cfg.SongLengthLimit != 90*time.Second || cfg.IdleTimeout != time.Minute {
		t.Errorf("limits = %d, %v, %v", cfg.PlaylistSongLimit, cfg.SongLengthLimit, cfg.IdleTimeout)
	}
	if !cfg.SpotifyEnabled() || !cfg.Debug {
		t.Errorf("SpotifyEnabled = %v, Debug = %v", cfg.SpotifyEnabled(), cfg.Debug)
	}
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN")
	t.Setenv("DATA_DIR", dir)
	content := "DISCORD_TOKEN=from-file\nBOT_ACTIVITY=jazz\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("BOT_ACTIVITY") })

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DiscordToken != "from-file" || cfg.BotActivity != "jazz" {
		t.Errorf("token = %q, activity = %q", cfg.DiscordToken, cfg.BotActivity)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DiscordToken:   "t",
			DataDir:        "./data",
			IdleTimeout:    time.Minute,
			CommandTimeout: time.Minute,
			BotStatus:      "online",
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.DiscordToken = "" }},
		{"half spotify", func(c *Config) { c.SpotifyClientID = "id" }},
		{"negative playlist limit", func(c *Config) { c.PlaylistSongLimit = -1 }},
		{"zero idle", func(c *Config) { c.IdleTimeout = 0 }},
		{"negative rate", func(c *Config) { c.ResolveRate = -1 }},
		{"bad status", func(c *Config) { c.BotStatus = "busy" }},
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			var ce ErrConfig
			if err := c.Validate(); !errors.As(err, &ce) {
				t.Fatalf("Validate = %v, want ErrConfig", err)
			}
		})
	}
}
