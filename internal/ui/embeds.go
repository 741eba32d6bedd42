package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sonroyaalmerol/jukebot/internal/player"
	"github.com/sonroyaalmerol/jukebot/internal/utils"
)

const (
	colorOK    = 0x006400
	colorInfo  = 0x2B6CB0
	colorError = 0x992222
)

// maxListed caps the tracks listed in one embed.
const maxListed = 15

func Success(desc string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: desc, Color: colorOK}
}

func Info(desc string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: desc, Color: colorInfo}
}

func Failure(desc string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: desc, Color: colorError}
}

func trackLink(t player.Track) string {
	title := utils.EscapeMd(t.DisplayTitle())
	if strings.HasPrefix(t.URL, "http") {
		return fmt.Sprintf("[%s](%s)", title, t.URL)
	}
	return title
}

func duration(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	return utils.PrettyDuration(d)
}

// TrackAdded confirms a single /play. started is true when the track went
// straight to the speaker.
func TrackAdded(t player.Track, started bool) *discordgo.MessageEmbed {
	var b strings.Builder
	fmt.Fprintf(&b, "🎵 **Title:** %s\n", utils.EscapeMd(t.DisplayTitle()))
	fmt.Fprintf(&b, "🔗 **Source:** %s\n", t.URL)
	fmt.Fprintf(&b, "⏱️ **Duration:** %s\n\n", duration(t.Duration))
	if started {
		b.WriteString("✅ **Added to queue and started playing!**")
	} else {
		b.WriteString("✅ **Added to queue!**")
	}
	return Success(b.String())
}

// PlaylistAdded summarises an ingestion.
func PlaylistAdded(res player.IngestResult, limits player.IngestLimits) *discordgo.MessageEmbed {
	var b strings.Builder
	if res.Title != "" {
		fmt.Fprintf(&b, "📃 **Playlist:** %s\n", utils.EscapeMd(res.Title))
	}
	fmt.Fprintf(&b, "✅ **Added %s to the queue**\n", utils.Plural(len(res.Accepted), "song"))
	if res.TotalDuration > 0 {
		fmt.Fprintf(&b, "⏱️ **Total Duration:** %s\n", utils.PrettyDuration(res.TotalDuration))
	}
	if res.SkippedByLimit > 0 {
		fmt.Fprintf(&b, "⚠️ **Skipped:** %s (exceeded limits)\n", utils.Plural(res.SkippedByLimit, "song"))
	}
	if res.SkippedUnavailable > 0 {
		fmt.Fprintf(&b, "🚫 **Unavailable:** %s (removed or restricted)\n", utils.Plural(res.SkippedUnavailable, "song"))
	}

	e := Success(strings.TrimRight(b.String(), "\n"))
	if len(res.Accepted) == 0 {
		e.Color = colorError
	}
	if f := limitsFooter(limits); f != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: f}
	}
	return e
}

func limitsFooter(l player.IngestLimits) string {
	var parts []string
	if l.MaxItems > 0 {
		parts = append(parts, utils.Plural(l.MaxItems, "song"))
	}
	if l.MaxItemDuration > 0 {
		parts = append(parts, fmt.Sprintf("%s per song", utils.PrettyDuration(l.MaxItemDuration)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Playlist limit: " + strings.Join(parts, ", ")
}

func loopLine(l player.LoopPolicy) string {
	switch l.Mode {
	case player.LoopInfinite:
		return "🔁 **Loop:** Infinite"
	case player.LoopFinite:
		return fmt.Sprintf("🔁 **Loop:** %d times remaining", l.Remaining)
	}
	return ""
}

func NowPlaying(t player.Track, paused bool) *discordgo.MessageEmbed {
	title := "🎧 Now Playing"
	if paused {
		title = "⏸️ Paused"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", trackLink(t))
	fmt.Fprintf(&b, "⏱️ **Duration:** %s", duration(t.Duration))
	if t.RequestedBy != "" {
		fmt.Fprintf(&b, "\nRequested by: <@%s>", t.RequestedBy)
	}
	if l := loopLine(t.Loop); l != "" {
		b.WriteString("\n" + l)
	}
	return &discordgo.MessageEmbed{Title: title, Description: b.String(), Color: colorOK}
}

// Tracks lists the queue, the head marked as playing.
func Tracks(tracks []player.Track) *discordgo.MessageEmbed {
	if len(tracks) == 0 {
		return Failure(NoTracks)
	}
	var (
		b     strings.Builder
		total time.Duration
	)
	for i, t := range tracks {
		total += t.Duration
		if i >= maxListed {
			continue
		}
		marker := fmt.Sprintf("`%d.`", i+1)
		if i == 0 {
			marker = "▶️"
		}
		fmt.Fprintf(&b, "%s %s `[ %s ]`\n", marker, trackLink(t), duration(t.Duration))
	}
	if extra := len(tracks) - maxListed; extra > 0 {
		fmt.Fprintf(&b, "… and %d more\n", extra)
	}
	fmt.Fprintf(&b, "\n📊 **Total Tracks:** %d", len(tracks))
	if total > 0 {
		fmt.Fprintf(&b, "\n⏱️ **Total Duration:** %s", utils.PrettyDuration(total))
	}
	return &discordgo.MessageEmbed{Title: "🎶 Queue", Description: b.String(), Color: colorInfo}
}

func LoopSet(l player.LoopPolicy, t player.Track) *discordgo.MessageEmbed {
	switch l.Mode {
	case player.LoopInfinite:
		return Success(fmt.Sprintf("🔁 **%s** will loop **infinitely**.", utils.EscapeMd(t.DisplayTitle())))
	case player.LoopFinite:
		return Success(fmt.Sprintf("🔁 **%s** will loop **%d** times.", utils.EscapeMd(t.DisplayTitle()), l.Remaining))
	}
	return Success("✅ **Loop Disabled**")
}

func Skipped(t player.Track) *discordgo.MessageEmbed {
	return Success(fmt.Sprintf("⏭️ **Skipped:** %s", utils.EscapeMd(t.DisplayTitle())))
}

func Stopped(cleared int) *discordgo.MessageEmbed {
	return Success(fmt.Sprintf("⏹️ **Stopped playback**\n\nCleared %s from the queue.", utils.Plural(cleared, "song")))
}

func Settings(l player.IngestLimits) *discordgo.MessageEmbed {
	items := "unlimited"
	if l.MaxItems > 0 {
		items = utils.Plural(l.MaxItems, "song")
	}
	length := "unlimited"
	if l.MaxItemDuration > 0 {
		length = utils.PrettyDuration(l.MaxItemDuration)
	}
	return &discordgo.MessageEmbed{
		Title: "⚙️ Settings",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Playlist limit", Value: items, Inline: true},
			{Name: "Song length limit", Value: length, Inline: true},
		},
	}
}

func Pong(latency time.Duration) *discordgo.MessageEmbed {
	return Info(fmt.Sprintf("🏓 **Pong!**\n\nGateway latency: %d ms", latency.Milliseconds()))
}
