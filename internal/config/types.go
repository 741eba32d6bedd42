package config

import "time"

type Config struct {
	DiscordToken        string `env:"DISCORD_TOKEN"`
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
	DataDir             string `env:"DATA_DIR" envDefault:"./data"`

	YouTubeCookiesPath string `env:"YOUTUBE_COOKIES_PATH"`
	YouTubePOToken     string `env:"YOUTUBE_PO_TOKEN"`

	// Defaults for guilds that have not changed their settings.
	PlaylistSongLimit int           `env:"PLAYLIST_SONG_LIMIT" envDefault:"30"`
	SongLengthLimit   time.Duration `env:"SONG_LENGTH_LIMIT" envDefault:"10m"`

	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ResolveRate     float64       `env:"RESOLVE_RATE" envDefault:"2"` // yt-dlp calls per second, 0 = unlimited
	ResolveCacheTTL time.Duration `env:"RESOLVE_CACHE_TTL" envDefault:"30m"`
	CommandTimeout  time.Duration `env:"COMMAND_TIMEOUT" envDefault:"10m"`

	BotStatus             string `env:"BOT_STATUS" envDefault:"online"` // online/dnd/idle/invisible
	BotActivity           string `env:"BOT_ACTIVITY" envDefault:"music"`
	RegisterCommandsOnBot bool   `env:"REGISTER_COMMANDS_ON_BOT" envDefault:"false"`

	MetricsAddr string `env:"METRICS_ADDR"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
}

func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}
