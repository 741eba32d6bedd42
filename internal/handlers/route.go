package handlers

import (
	"net/url"
	"strings"

	"github.com/sonroyaalmerol/jukebot/internal/spotify"
	"github.com/sonroyaalmerol/jukebot/internal/stream"
)

type route int

const (
	routeSearch route = iota
	routeDirect
	routePlaylist
	routeSpotifyCollection
	routeSpotifyTrack
)

func (r route) String() string {
	switch r {
	case routeDirect:
		return "direct"
	case routePlaylist:
		return "playlist"
	case routeSpotifyCollection:
		return "spotify-collection"
	case routeSpotifyTrack:
		return "spotify-track"
	}
	return "search"
}

func isURL(q string) bool {
	u, err := url.Parse(q)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// routeQuery decides how a /play query is turned into tracks.
func routeQuery(q string) route {
	q = strings.TrimSpace(q)
	switch {
	case spotify.IsCollection(q):
		return routeSpotifyCollection
	case spotify.IsSpotify(q):
		return routeSpotifyTrack
	case stream.IsPlaylist(q):
		return routePlaylist
	case isURL(q):
		return routeDirect
	}
	return routeSearch
}
