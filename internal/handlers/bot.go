package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/jukebot/internal/config"
	"github.com/sonroyaalmerol/jukebot/internal/player"
)

const shutdownTimeout = 10 * time.Second

type Bot struct {
	cfg      *config.Config
	dg       *discordgo.Session
	registry *player.Registry
	cmd      *CommandHandler
}

func NewBot(cfg *config.Config, dg *discordgo.Session, registry *player.Registry, cmd *CommandHandler) *Bot {
	return &Bot{cfg: cfg, dg: dg, registry: registry, cmd: cmd}
}

func (b *Bot) Run(ctx context.Context) error {
	dg := b.dg
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.cmd.HandleInteraction)
	dg.AddHandler(b.onVoiceStateUpdate)

	if err := dg.Open(); err != nil {
		return err
	}
	defer dg.Close()

	<-ctx.Done()
	slog.Info("shutting down", "sessions", b.registry.Len())

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return b.registry.Shutdown(sctx)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("connected", "user", s.State.User.Username)
	b.updateStatus(s)

	appID := s.State.User.ID
	if b.cfg.RegisterCommandsOnBot {
		if err := b.cmd.RegisterCommands(s, appID, ""); err == nil {
			slog.Info("registered global application commands")
		}
		return
	}

	var wg sync.WaitGroup
	for _, g := range r.Guilds {
		wg.Add(1)
		go func(guildID string) {
			defer wg.Done()
			_ = b.cmd.RegisterCommands(s, appID, guildID)
		}(g.ID)
	}
	wg.Wait()

	if _, err := s.ApplicationCommandBulkOverwrite(appID, "", []*discordgo.ApplicationCommand{}); err != nil {
		slog.Error("clear global commands", "err", err)
	}
	slog.Info("registered commands on all guilds", "guilds", len(r.Guilds))
}

// onGuildCreate registers commands on guilds joined after startup.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.cfg.RegisterCommandsOnBot || s.State.User == nil {
		return
	}
	_ = b.cmd.RegisterCommands(s, s.State.User.ID, g.ID)
}

func (b *Bot) updateStatus(s *discordgo.Session) {
	data := discordgo.UpdateStatusData{Status: b.cfg.BotStatus}
	if b.cfg.BotActivity != "" {
		data.Activities = []*discordgo.Activity{{Name: b.cfg.BotActivity, Type: discordgo.ActivityTypeListening}}
	}
	if err := s.UpdateStatusComplex(data); err != nil {
		slog.Warn("update status failed", "err", err)
	}
}

// onVoiceStateUpdate tears the session down when the bot is disconnected
// from voice by someone else.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || vs.UserID != s.State.User.ID || vs.ChannelID != "" {
		return
	}
	if _, ok := b.registry.Lookup(vs.GuildID); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := b.registry.Leave(ctx, vs.GuildID)
	switch {
	case err == nil:
		slog.Info("left voice after external disconnect", "guildID", vs.GuildID)
	case errors.Is(err, player.ErrNoActiveSession):
	default:
		slog.Warn("cleanup after external disconnect failed", "guildID", vs.GuildID, "err", err)
	}
}
