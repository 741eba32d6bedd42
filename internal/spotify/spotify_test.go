package spotify

import (
	"errors"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		typ     string
		id      spotify.ID
		wantErr bool
	}{
		{in: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", typ: "track", id: "4uLU6hMCjMI75M1A2tKUQC"},
		{in: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc", typ: "playlist", id: "37i9dQZF1DXcBWIGoYBM5M"},
		{in: "https://open.spotify.com/intl-de/album/1DFixLWuPkv3KT3TnV35m3", typ: "album", id: "1DFixLWuPkv3KT3TnV35m3"},
		{in: "spotify:artist:0OdUWJ0sBjDrqHygGUXeCF", typ: "artist", id: "0OdUWJ0sBjDrqHygGUXeCF"},
		{in: "spotify:track:", wantErr: true},
		{in: "https://open.spotify.com/show/abc", wantErr: true},
		{in: "https://open.spotify.com/track", wantErr: true},
		{in: "https://www.youtube.com/watch?v=abc", wantErr: true},
		{in: "some search words", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			typ, id, err := ParseID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrNotSpotify) {
					t.Fatalf("ParseID error = %v, want ErrNotSpotify", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID: %v", err)
			}
			if typ != tt.typ || id != tt.id {
				t.Errorf("ParseID = %q, %q; want %q, %q", typ, id, tt.typ, tt.id)
			}
		})
	}
}

func TestIsCollection(t *testing.T) {
	if !IsCollection("https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3") {
		t.Error("album should be a collection")
	}
	if IsCollection("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC") {
		t.Error("track should not be a collection")
	}
	if !IsSpotify("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC") {
		t.Error("track link should be recognized")
	}
}

func TestItem(t *testing.T) {
	got := item(spotify.SimpleTrack{
		Name:     "Bohemian Rhapsody",
		Artists:  []spotify.SimpleArtist{{Name: "Queen"}, {Name: "Someone"}},
		Duration: 354000,
	})
	if want := `ytsearch1:"Bohemian Rhapsody" "Queen"`; got.URL != want {
		t.Errorf("URL = %s, want %s", got.URL, want)
	}
	if got.Duration != 354*time.Second {
		t.Errorf("Duration = %v", got.Duration)
	}

	if got := searchLocator("Untitled", nil); got != `ytsearch1:"Untitled"` {
		t.Errorf("searchLocator = %s", got)
	}
}
