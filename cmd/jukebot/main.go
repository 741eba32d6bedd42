package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/jukebot/internal/cache"
	"github.com/sonroyaalmerol/jukebot/internal/config"
	"github.com/sonroyaalmerol/jukebot/internal/handlers"
	"github.com/sonroyaalmerol/jukebot/internal/logging"
	"github.com/sonroyaalmerol/jukebot/internal/metrics"
	"github.com/sonroyaalmerol/jukebot/internal/player"
	"github.com/sonroyaalmerol/jukebot/internal/repository"
	"github.com/sonroyaalmerol/jukebot/internal/spotify"
	"github.com/sonroyaalmerol/jukebot/internal/stream"
	"github.com/sonroyaalmerol/jukebot/internal/voice"
)

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Setup(false, os.Stderr)
		fatal("load config", err)
	}
	logging.Setup(cfg.Debug, os.Stderr)

	db, err := repository.OpenDB(cfg)
	if err != nil {
		fatal("open database", err)
	}
	defer db.Close()
	repo := repository.NewRepo(db)

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		fatal("create discord session", err)
	}

	yt := stream.NewYTDLP(cfg)
	resolver := cache.NewResolver(yt, cfg.ResolveCacheTTL)
	joiner := voice.NewJoiner(dg, yt, voice.DefaultBitrate)
	registry := player.NewRegistry(joiner, resolver, player.SessionOptions{IdleTimeout: cfg.IdleTimeout})

	var sp *spotify.Client
	if cfg.SpotifyEnabled() {
		sp = spotify.NewClientCredentials(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		slog.Info("spotify links enabled")
	}

	cmd := handlers.NewCommandHandler(cfg, repo, registry, yt, sp)
	bot := handlers.NewBot(cfg, dg, registry, cmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				slog.Error("metrics server", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
	}

	if err := bot.Run(ctx); err != nil {
		fatal("bot", err)
	}
}
