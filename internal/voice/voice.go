package voice

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/jukebot/internal/player"
)

// DefaultBitrate is the Opus target bitrate in bits per second.
const DefaultBitrate = 128_000

type discordLink struct {
	vc *discordgo.VoiceConnection
}

func (l discordLink) Ready() bool {
	l.vc.RLock()
	defer l.vc.RUnlock()
	return l.vc.Ready
}

func (l discordLink) Speaking(b bool) error { return l.vc.Speaking(b) }

func (l discordLink) Send() chan<- []byte { return l.vc.OpusSend }

func (l discordLink) Disconnect() error { return l.vc.Disconnect() }

// Joiner connects to voice channels through a discordgo session. It
// implements player.Joiner.
type Joiner struct {
	s       *discordgo.Session
	open    openFunc
	bitrate int64
}

func NewJoiner(s *discordgo.Session, media MediaLocator, bitrate int64) *Joiner {
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}
	return &Joiner{s: s, open: ffmpegOpener(media, bitrate), bitrate: bitrate}
}

func (j *Joiner) Join(ctx context.Context, guildID, channelID string) (player.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Self-deafened: the bot never listens.
	vc, err := j.s.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, err
	}
	slog.Debug("joined voice channel", "guildID", guildID, "channelID", channelID)
	return newConnection(discordLink{vc: vc}, channelID, j.open), nil
}
