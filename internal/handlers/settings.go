package handlers

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/jukebot/internal/ui"
	"github.com/sonroyaalmerol/jukebot/internal/utils"
)

func (h *CommandHandler) cmdConfig(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return fmt.Errorf("config: missing subcommand")
	}
	sub := data.Options[0]
	opts := options(sub.Options)

	ctx, cancel := h.commandContext()
	defer cancel()

	switch sub.Name {
	case "get":
	case "set-playlist-limit":
		n := int(opts["limit"].IntValue())
		if n < 0 {
			h.reply(s, i, ui.Failure("❌ **Limit cannot be negative**"), true)
			return fmt.Errorf("config: negative playlist limit %d", n)
		}
		if err := h.repo.SetPlaylistLimit(ctx, i.GuildID, n); err != nil {
			slog.Error("set playlist limit failed", "guildID", i.GuildID, "err", err)
			h.reply(s, i, ui.Failure(ui.Internal), true)
			return err
		}
		slog.Info("cmd config", "guildID", i.GuildID, "userID", userIDOf(i), "playlistLimit", n)
	case "set-song-length-limit":
		raw := opts["length"].StringValue()
		d, err := utils.ParseDurationString(raw)
		if err != nil {
			h.reply(s, i, ui.Failure(fmt.Sprintf("❌ **Invalid length \"%s\"**\n\nUse seconds, `1m30s` or `4:30`.", raw)), true)
			return err
		}
		if err := h.repo.SetSongLengthLimit(ctx, i.GuildID, d); err != nil {
			slog.Error("set song length limit failed", "guildID", i.GuildID, "err", err)
			h.reply(s, i, ui.Failure(ui.Internal), true)
			return err
		}
		slog.Info("cmd config", "guildID", i.GuildID, "userID", userIDOf(i), "songLengthLimit", d)
	default:
		return fmt.Errorf("config: unknown subcommand %q", sub.Name)
	}

	h.reply(s, i, ui.Settings(h.limits(ctx, i.GuildID)), sub.Name == "get")
	return nil
}
