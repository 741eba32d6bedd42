package spotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/player"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// maxFetch caps how many tracks are listed from one collection; the
	// ingestion limits are applied later by the session.
	maxFetch = 500

	topTracksMarket = "US"
)

var ErrNotSpotify = errors.New("not a spotify link")

// Client lists Spotify collections as YouTube search locators, since
// Spotify audio cannot be streamed directly.
type Client struct {
	raw *spotify.Client
}

func NewClientCredentials(clientID, clientSecret string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(context.Background())
	return &Client{raw: spotify.New(httpClient, spotify.WithRetry(true))}
}

func IsSpotify(raw string) bool {
	_, _, err := ParseID(raw)
	return err == nil
}

// IsCollection reports whether raw names an album, playlist or artist.
func IsCollection(raw string) bool {
	typ, _, err := ParseID(raw)
	return err == nil && typ != "track"
}

func ParseID(raw string) (typ string, id spotify.ID, err error) {
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) != 3 || parts[2] == "" {
			return "", "", fmt.Errorf("%w: invalid URI", ErrNotSpotify)
		}
		typ, id = parts[1], spotify.ID(parts[2])
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrNotSpotify, err)
		}
		if u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com" {
			return "", "", ErrNotSpotify
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		// Localized links look like /intl-de/track/ID.
		if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
			parts = parts[1:]
		}
		if len(parts) < 2 || parts[1] == "" {
			return "", "", fmt.Errorf("%w: invalid path", ErrNotSpotify)
		}
		typ, id = parts[0], spotify.ID(parts[1])
	}

	switch typ {
	case "album", "playlist", "track", "artist":
		return typ, id, nil
	}
	return "", "", fmt.Errorf("%w: unsupported type %q", ErrNotSpotify, typ)
}

// searchLocator turns a Spotify track into a yt-dlp search that the
// resolver accepts as a direct locator.
func searchLocator(name string, artists []spotify.SimpleArtist) string {
	q := fmt.Sprintf("%q", name)
	if len(artists) > 0 {
		q += fmt.Sprintf(" %q", artists[0].Name)
	}
	return "ytsearch1:" + q
}

func item(t spotify.SimpleTrack) player.PlaylistItem {
	return player.PlaylistItem{
		URL:      searchLocator(t.Name, t.Artists),
		Duration: time.Duration(t.Duration) * time.Millisecond,
	}
}

// Fetch implements player.PlaylistFetcher for albums, playlists, artists
// (top tracks) and single tracks.
func (c *Client) Fetch(ctx context.Context, locator string) (player.Playlist, error) {
	typ, id, err := ParseID(locator)
	if err != nil {
		return player.Playlist{}, &player.FetchError{Locator: locator, Err: err}
	}

	var pl player.Playlist
	switch typ {
	case "album":
		pl, err = c.album(ctx, id)
	case "playlist":
		pl, err = c.playlist(ctx, id)
	case "artist":
		pl, err = c.artistTop(ctx, id)
	case "track":
		var t *spotify.FullTrack
		if t, err = c.raw.GetTrack(ctx, id); err == nil {
			pl = player.Playlist{Title: t.Name, Items: []player.PlaylistItem{item(t.SimpleTrack)}}
		}
	}
	if err != nil {
		return player.Playlist{}, &player.FetchError{Locator: locator, Err: err}
	}
	slog.Debug("spotify collection listed", "type", typ, "id", id, "items", len(pl.Items))
	return pl, nil
}

// TrackQuery returns the search locator for a single Spotify track.
func (c *Client) TrackQuery(ctx context.Context, locator string) (string, error) {
	typ, id, err := ParseID(locator)
	if err != nil {
		return "", err
	}
	if typ != "track" {
		return "", fmt.Errorf("spotify %s is not a track", typ)
	}
	t, err := c.raw.GetTrack(ctx, id)
	if err != nil {
		return "", fmt.Errorf("spotify track %s: %w", id, err)
	}
	return searchLocator(t.Name, t.Artists), nil
}

func (c *Client) album(ctx context.Context, id spotify.ID) (player.Playlist, error) {
	alb, err := c.raw.GetAlbum(ctx, id)
	if err != nil {
		return player.Playlist{}, err
	}
	page, err := c.raw.GetAlbumTracks(ctx, id)
	if err != nil {
		return player.Playlist{}, err
	}

	pl := player.Playlist{Title: alb.Name}
	for {
		for _, t := range page.Tracks {
			if len(pl.Items) >= maxFetch {
				return pl, nil
			}
			pl.Items = append(pl.Items, item(t))
		}
		if page.Next == "" {
			return pl, nil
		}
		if err := c.raw.NextPage(ctx, page); err != nil {
			pl.Diagnostics = append(pl.Diagnostics, fmt.Sprintf("stopped after %d tracks: %v", len(pl.Items), err))
			return pl, nil
		}
	}
}

func (c *Client) playlist(ctx context.Context, id spotify.ID) (player.Playlist, error) {
	meta, err := c.raw.GetPlaylist(ctx, id)
	if err != nil {
		return player.Playlist{}, err
	}
	page, err := c.raw.GetPlaylistItems(ctx, id)
	if err != nil {
		return player.Playlist{}, err
	}

	pl := player.Playlist{Title: meta.Name}
	pos := 0
	for {
		for _, it := range page.Items {
			pos++
			if len(pl.Items) >= maxFetch {
				return pl, nil
			}
			// Podcast episodes and removed tracks carry no track.
			if it.Track.Track == nil {
				pl.Diagnostics = append(pl.Diagnostics, fmt.Sprintf("entry %d: not a track", pos))
				continue
			}
			pl.Items = append(pl.Items, item(it.Track.Track.SimpleTrack))
		}
		if page.Next == "" {
			return pl, nil
		}
		if err := c.raw.NextPage(ctx, page); err != nil {
			pl.Diagnostics = append(pl.Diagnostics, fmt.Sprintf("stopped after %d entries: %v", pos, err))
			return pl, nil
		}
	}
}

func (c *Client) artistTop(ctx context.Context, id spotify.ID) (player.Playlist, error) {
	artist, err := c.raw.GetArtist(ctx, id)
	if err != nil {
		return player.Playlist{}, err
	}
	top, err := c.raw.GetArtistsTopTracks(ctx, id, topTracksMarket)
	if err != nil {
		return player.Playlist{}, err
	}
	pl := player.Playlist{Title: artist.Name + " top tracks"}
	for _, t := range top {
		pl.Items = append(pl.Items, item(t.SimpleTrack))
	}
	return pl, nil
}
