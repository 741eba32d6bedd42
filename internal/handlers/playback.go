package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/jukebot/internal/player"
	"github.com/sonroyaalmerol/jukebot/internal/stream"
	"github.com/sonroyaalmerol/jukebot/internal/ui"
)

var errSpotifyDisabled = errors.New("spotify is not configured")

func (h *CommandHandler) defaultLimits() player.IngestLimits {
	return player.IngestLimits{
		MaxItems:        h.cfg.PlaylistSongLimit,
		MaxItemDuration: h.cfg.SongLengthLimit,
	}
}

func (h *CommandHandler) limits(ctx context.Context, guildID string) player.IngestLimits {
	l, err := h.repo.IngestLimits(ctx, guildID, h.defaultLimits())
	if err != nil {
		slog.Warn("load ingest limits failed, using defaults", "guildID", guildID, "err", err)
		return h.defaultLimits()
	}
	return l
}

func (h *CommandHandler) cmdPlay(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	query := strings.TrimSpace(options(i.ApplicationCommandData().Options)["query"].StringValue())
	userID := userIDOf(i)

	chID, ok := userInVoice(s, i.GuildID, userID)
	if !ok {
		h.reply(s, i, ui.Failure(ui.NotInVoice), true)
		return errors.New("caller not in voice")
	}

	r := routeQuery(query)
	if (r == routeSpotifyCollection || r == routeSpotifyTrack) && h.spotify == nil {
		h.reply(s, i, ui.Failure("❌ **Spotify links are not enabled on this bot**"), true)
		return errSpotifyDisabled
	}

	// Resolution can outlive the three second interaction deadline.
	h.deferReply(s, i)

	ctx, cancel := h.commandContext()
	defer cancel()

	locator, direct := query, r == routeDirect
	if r == routeSpotifyTrack {
		q, err := h.spotify.TrackQuery(ctx, query)
		if err != nil {
			h.editReply(s, i, ui.Failure(ui.NotAdded))
			return err
		}
		locator, direct = q, true
	}

	slog.Info("cmd play", "guildID", i.GuildID, "userID", userID, "route", r, "query", query)
	var reply *discordgo.MessageEmbed
	_, err := h.registry.WithSession(ctx, i.GuildID, chID, func(sess *player.Session) error {
		var err error
		switch r {
		case routePlaylist:
			reply, err = h.ingest(ctx, sess, i.GuildID, userID, h.playlists, query)
		case routeSpotifyCollection:
			reply, err = h.ingest(ctx, sess, i.GuildID, userID, h.spotify, query)
		default:
			reply, err = h.add(ctx, sess, userID, query, locator, direct)
		}
		return err
	})

	var je *player.JoinError
	if errors.As(err, &je) || reply == nil {
		slog.Warn("voice join failed", "guildID", i.GuildID, "channelID", chID, "err", err)
		reply = ui.Failure(ui.ErrorMessage("play", err))
	}
	h.editReply(s, i, reply)
	return err
}

func (h *CommandHandler) add(ctx context.Context, sess *player.Session, userID, query, locator string, direct bool) (*discordgo.MessageEmbed, error) {
	_, err := sess.Current()
	idle := errors.Is(err, player.ErrNoCurrentTrack)

	t, err := sess.Add(ctx, locator, direct, userID)
	if err != nil {
		msg := ui.ErrorMessage("play", err)
		if errors.Is(err, stream.ErrNoResults) {
			msg = ui.NothingFound(query)
		}
		return ui.Failure(msg), err
	}
	return ui.TrackAdded(t, idle), nil
}

func (h *CommandHandler) ingest(ctx context.Context, sess *player.Session, guildID, userID string, fetcher player.PlaylistFetcher, locator string) (*discordgo.MessageEmbed, error) {
	limits := h.limits(ctx, guildID)
	res, err := sess.Ingest(ctx, fetcher, locator, limits, userID)
	for _, d := range res.Diagnostics {
		slog.Debug("playlist diagnostic", "guildID", guildID, "locator", locator, "detail", d)
	}
	// A cancelled ingestion still reports what made it into the queue.
	if err != nil && len(res.Accepted) == 0 {
		return ui.Failure(ui.ErrorMessage("play", err)), err
	}
	return ui.PlaylistAdded(res, limits), err
}

func (h *CommandHandler) cmdPause(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sess, err := h.session(i)
	if err == nil {
		err = sess.Pause()
	}
	if err != nil {
		return h.fail(s, i, "pause", err)
	}
	slog.Info("cmd pause", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, ui.Success(ui.Paused), false)
	return nil
}

func (h *CommandHandler) cmdResume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sess, err := h.session(i)
	if err == nil {
		err = sess.Resume()
	}
	if err != nil {
		return h.fail(s, i, "resume", err)
	}
	slog.Info("cmd resume", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, ui.Success(ui.Resumed), false)
	return nil
}

func (h *CommandHandler) cmdSkip(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sess, err := h.session(i)
	if err != nil {
		return h.fail(s, i, "skip", err)
	}
	t, err := sess.Skip()
	if err != nil {
		return h.fail(s, i, "skip", err)
	}
	slog.Info("cmd skip", "guildID", i.GuildID, "userID", userIDOf(i), "title", t.Title)
	h.reply(s, i, ui.Skipped(t), false)
	return nil
}

func (h *CommandHandler) cmdStop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sess, err := h.session(i)
	if err != nil {
		return h.fail(s, i, "stop", err)
	}
	n, err := sess.Stop()
	if err != nil {
		return h.fail(s, i, "stop", err)
	}
	slog.Info("cmd stop", "guildID", i.GuildID, "userID", userIDOf(i), "cleared", n)
	h.reply(s, i, ui.Stopped(n), false)
	return nil
}

// loopPolicy reads the /loop options: stop wins, then amount, then forever.
func loopPolicy(opts []*discordgo.ApplicationCommandInteractionDataOption) (player.LoopPolicy, error) {
	m := options(opts)
	if o, ok := m["stop"]; ok && o.BoolValue() {
		return player.LoopOff(), nil
	}
	if o, ok := m["amount"]; ok {
		return player.LoopTimes(int(o.IntValue()))
	}
	return player.LoopForever(), nil
}

func (h *CommandHandler) cmdLoop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	l, err := loopPolicy(i.ApplicationCommandData().Options)
	if err != nil {
		return h.fail(s, i, "loop", err)
	}
	sess, err := h.session(i)
	if err != nil {
		return h.fail(s, i, "loop", err)
	}
	t, err := sess.SetLoop(l)
	if err != nil {
		return h.fail(s, i, "loop", err)
	}
	slog.Info("cmd loop", "guildID", i.GuildID, "userID", userIDOf(i), "loop", l)
	h.reply(s, i, ui.LoopSet(l, t), false)
	return nil
}

func (h *CommandHandler) cmdNow(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sess, err := h.session(i)
	if err != nil {
		return h.fail(s, i, "", err)
	}
	t, err := sess.Current()
	if err != nil {
		return h.fail(s, i, "", err)
	}
	h.reply(s, i, ui.NowPlaying(t, sess.Paused()), false)
	return nil
}

func (h *CommandHandler) cmdTracks(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sess, err := h.session(i)
	if err != nil {
		return h.fail(s, i, "", err)
	}
	tracks, err := sess.Snapshot()
	if err != nil {
		return h.fail(s, i, "", err)
	}
	h.reply(s, i, ui.Tracks(tracks), false)
	return nil
}

func (h *CommandHandler) cmdLeave(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := h.commandContext()
	defer cancel()

	err := h.registry.Leave(ctx, i.GuildID)
	if errors.Is(err, player.ErrNoActiveSession) {
		return h.fail(s, i, "", err)
	}
	if err != nil {
		// The session is gone either way; only the disconnect misbehaved.
		slog.Warn("leave: disconnect failed", "guildID", i.GuildID, "err", err)
	}
	slog.Info("cmd leave", "guildID", i.GuildID, "userID", userIDOf(i))
	h.reply(s, i, ui.Success(ui.Left), false)
	return nil
}

func (h *CommandHandler) cmdPing(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	h.reply(s, i, ui.Pong(s.HeartbeatLatency()), false)
	return nil
}
