package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

const (
	NoSession      = "❌ **No active voice session on the server**"
	NoTracks       = "❌ **No tracks in the queue**\n\nUse `/play` to add some music!"
	NoSong         = "❌ **No song is playing**"
	NotInVoice     = "❌ **You need to be in a voice channel**"
	Paused         = "⏸️ **Paused**"
	Resumed        = "▶️ **Resumed**"
	Left           = "👋 **Left the voice channel**"
	BadLoopAmount  = "❌ **Loop amount must be at least 1**"
	Unavailable    = "❌ **Video is unavailable!**\n\nThis video may be private, deleted, or region-restricted."
	NotAdded       = "❌ **Couldn't add audio source to the queue!**\n\nPlease check the URL or search query."
	PlaylistFailed = "❌ **Couldn't load the playlist!**\n\nPlease check the link and try again."
	JoinFailed     = "❌ **Couldn't join your voice channel**"
	TimedOut       = "⌛ **That took too long**\n\nPlease try again."
	Internal       = "❌ **Something went wrong**"
)

func NothingTo(action string) string {
	return fmt.Sprintf("❌ **Nothing to %s**", action)
}

func NothingFound(query string) string {
	return fmt.Sprintf("❌ **Nothing found for \"%s\"**", query)
}

// ErrorMessage maps an error from a session operation to a user reply.
// action names the command for the empty-queue case, e.g. "skip".
func ErrorMessage(action string, err error) string {
	var (
		re *player.ResolutionError
		fe *player.FetchError
		je *player.JoinError
	)
	switch {
	case errors.Is(err, player.ErrNoActiveSession):
		return NoSession
	case errors.Is(err, player.ErrQueueEmpty):
		if action != "" {
			return NothingTo(action)
		}
		return NoTracks
	case errors.Is(err, player.ErrNoCurrentTrack):
		return NoSong
	case errors.Is(err, player.ErrInvalidLoopCount):
		return BadLoopAmount
	case errors.As(err, &re):
		if re.Unavailable() {
			return Unavailable
		}
		return NotAdded
	case errors.As(err, &fe):
		return PlaylistFailed
	case errors.As(err, &je):
		return JoinFailed
	case errors.Is(err, context.DeadlineExceeded):
		return TimedOut
	}
	return Internal
}
