package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/jukebot/internal/config"
	"github.com/sonroyaalmerol/jukebot/internal/metrics"
	"github.com/sonroyaalmerol/jukebot/internal/player"
	"github.com/sonroyaalmerol/jukebot/internal/repository"
	"github.com/sonroyaalmerol/jukebot/internal/spotify"
	"github.com/sonroyaalmerol/jukebot/internal/ui"
)

type commandFunc func(s *discordgo.Session, i *discordgo.InteractionCreate) error

type CommandHandler struct {
	cfg       *config.Config
	repo      *repository.Repo
	registry  *player.Registry
	playlists player.PlaylistFetcher
	spotify   *spotify.Client // nil when Spotify is not configured

	commands map[string]commandFunc
}

func NewCommandHandler(cfg *config.Config, repo *repository.Repo, registry *player.Registry, playlists player.PlaylistFetcher, sp *spotify.Client) *CommandHandler {
	h := &CommandHandler{cfg: cfg, repo: repo, registry: registry, playlists: playlists, spotify: sp}
	h.commands = map[string]commandFunc{
		"play":   h.cmdPlay,
		"pause":  h.cmdPause,
		"resume": h.cmdResume,
		"skip":   h.cmdSkip,
		"stop":   h.cmdStop,
		"loop":   h.cmdLoop,
		"now":    h.cmdNow,
		"tracks": h.cmdTracks,
		"leave":  h.cmdLeave,
		"ping":   h.cmdPing,
		"config": h.cmdConfig,
	}
	return h
}

var minZero = 0.0
var minOne = 1.0

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a song or playlist (URL or search)",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "query", Description: "URL or search query", Type: discordgo.ApplicationCommandOptionString, Required: true},
			},
		},
		{Name: "pause", Description: "Pause the current song"},
		{Name: "resume", Description: "Resume playback"},
		{Name: "skip", Description: "Skip the current song"},
		{Name: "stop", Description: "Stop playback and clear the queue"},
		{
			Name:        "loop",
			Description: "Loop the current song",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "amount", Description: "times to repeat (omit to loop forever)", Type: discordgo.ApplicationCommandOptionInteger, MinValue: &minOne},
				{Name: "stop", Description: "stop looping", Type: discordgo.ApplicationCommandOptionBoolean},
			},
		},
		{Name: "now", Description: "Show the current song"},
		{Name: "tracks", Description: "List the queue"},
		{Name: "leave", Description: "Leave the voice channel"},
		{Name: "ping", Description: "Check that the bot is alive"},
		{
			Name:        "config",
			Description: "Configure bot settings",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "get", Description: "show settings"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-playlist-limit", Description: "max songs added from one playlist", Options: []*discordgo.ApplicationCommandOption{
					{Name: "limit", Description: "max songs (0 for unlimited)", Type: discordgo.ApplicationCommandOptionInteger, Required: true, MinValue: &minZero},
				}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "set-song-length-limit", Description: "max length of a playlist song", Options: []*discordgo.ApplicationCommandOption{
					{Name: "length", Description: "seconds, 1m30s or 4:30 (0 for unlimited)", Type: discordgo.ApplicationCommandOptionString, Required: true},
				}},
			},
		},
	}
}

func (h *CommandHandler) RegisterCommands(s *discordgo.Session, appID string, guildID string) error {
	start := time.Now()
	cmds := commandDefinitions()
	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds); err != nil {
		slog.Error("failed to register application commands", "guildID", guildID, "err", err)
		return err
	}
	slog.Info("registered commands", "guildID", guildID, "count", len(cmds), "took", time.Since(start))
	return nil
}

func (h *CommandHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		slog.Debug("interaction: ignored type", "type", i.Type, "guildID", i.GuildID)
		return
	}
	name := i.ApplicationCommandData().Name
	fn, ok := h.commands[name]
	if !ok {
		slog.Debug("unknown command", "name", name, "guildID", i.GuildID, "userID", userIDOf(i))
		return
	}
	if i.GuildID == "" {
		h.reply(s, i, ui.Failure("❌ **This command only works in a server**"), true)
		return
	}

	slog.Debug("interaction: application command", "guildID", i.GuildID, "userID", userIDOf(i), "command", name)
	start := time.Now()
	status := "ok"
	if err := fn(s, i); err != nil {
		status = "error"
		slog.Debug("command failed", "command", name, "guildID", i.GuildID, "err", err)
	}
	metrics.CommandsTotal.WithLabelValues(name, status).Inc()
	metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

func (h *CommandHandler) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.cfg.CommandTimeout)
}

func (h *CommandHandler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{e},
			Flags:  flags,
		},
	}); err != nil {
		slog.Warn("reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Warn("defer reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) editReply(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) {
	embeds := []*discordgo.MessageEmbed{e}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &embeds,
	}); err != nil {
		slog.Warn("edit reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

// fail replies with the message for err and hands err back for accounting.
func (h *CommandHandler) fail(s *discordgo.Session, i *discordgo.InteractionCreate, action string, err error) error {
	h.reply(s, i, ui.Failure(ui.ErrorMessage(action, err)), true)
	return err
}

// session returns the live session of the interaction's guild.
func (h *CommandHandler) session(i *discordgo.InteractionCreate) (*player.Session, error) {
	sess, ok := h.registry.Lookup(i.GuildID)
	if !ok {
		return nil, player.ErrNoActiveSession
	}
	return sess, nil
}

func userInVoice(s *discordgo.Session, guildID, userID string) (channelID string, ok bool) {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

func userIDOf(i *discordgo.InteractionCreate) string {
	switch {
	case i == nil:
		return ""
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	}
	return ""
}

func options(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}
