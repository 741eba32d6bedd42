package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

const watchURL = "https://www.youtube.com/watch?v="

func isYouTube(u string) bool {
	return strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be")
}

// IsPlaylist reports whether locator points at a YouTube playlist rather
// than a single video.
func IsPlaylist(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil || !isYouTube(u.Host) {
		return false
	}
	return u.Query().Get("list") != ""
}

// Fetch lists a playlist without resolving its entries. Entries yt-dlp could
// not describe are reported as diagnostics instead of items.
func (y *YTDLP) Fetch(ctx context.Context, locator string) (player.Playlist, error) {
	in, err := y.run(ctx, y.command(locator).FlatPlaylist().DumpSingleJSON(), locator)
	if err != nil {
		if strings.Contains(err.Error(), "Sign in to confirm") {
			err = fmt.Errorf("%w (a PO token may be required)", err)
		}
		return player.Playlist{}, &player.FetchError{Locator: locator, Err: err}
	}

	pl := playlistFromInfo(in)
	slog.Debug("playlist listed", "locator", locator, "items", len(pl.Items), "diagnostics", len(pl.Diagnostics))
	return pl, nil
}

func playlistFromInfo(in *info) player.Playlist {
	pl := player.Playlist{Title: in.Title}
	for i, e := range in.Entries {
		pos := i + 1
		switch {
		case e == nil:
			pl.Diagnostics = append(pl.Diagnostics, fmt.Sprintf("entry %d: empty", pos))
		case e.Title == "[Deleted video]" || e.Title == "[Private video]":
			pl.Diagnostics = append(pl.Diagnostics, fmt.Sprintf("entry %d: %s", pos, strings.Trim(e.Title, "[]")))
		default:
			u := entryURL(e)
			if u == "" {
				pl.Diagnostics = append(pl.Diagnostics, fmt.Sprintf("entry %d: no id or url", pos))
				continue
			}
			pl.Items = append(pl.Items, player.PlaylistItem{URL: u, Duration: seconds(e.Duration)})
		}
	}
	return pl
}

func entryURL(e *info) string {
	switch {
	case strings.HasPrefix(e.URL, "http"):
		return e.URL
	case strings.HasPrefix(e.WebpageURL, "http"):
		return e.WebpageURL
	case e.ID != "":
		return watchURL + e.ID
	}
	return ""
}
