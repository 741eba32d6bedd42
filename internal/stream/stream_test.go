package stream

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want player.ResolveReason
	}{
		{"nil", nil, player.ReasonOther},
		{"no results", ErrNoResults, player.ReasonOther},
		{"network", errors.New("dial tcp: i/o timeout"), player.ReasonOther},
		{
			"unavailable in stderr",
			&runError{err: errors.New("exit status 1"), stderr: "WARNING: x\nERROR: [youtube] abc: Video unavailable\n"},
			player.ReasonUnavailable,
		},
		{
			"private",
			&runError{err: errors.New("exit status 1"), stderr: "ERROR: [youtube] abc: Private video. Sign in if you've been granted access"},
			player.ReasonUnavailable,
		},
		{
			"age gate wrapped",
			fmt.Errorf("lookup: %w", &runError{err: errors.New("exit status 1"), stderr: "ERROR: Sign in to confirm your age"}),
			player.ReasonUnavailable,
		},
		{
			"bot check is not unavailability",
			&runError{err: errors.New("exit status 1"), stderr: "ERROR: Sign in to confirm you're not a bot"},
			player.ReasonOther,
		},
		{"message only", errors.New("This video is not available"), player.ReasonUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRunErrorMessage(t *testing.T) {
	err := &runError{
		err:    errors.New("exit status 1"),
		stderr: "ERROR: first\nWARNING: noise\nERROR: [youtube] abc: Video unavailable\n",
	}
	want := "exit status 1: ERROR: [youtube] abc: Video unavailable"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &runError{err: errors.New("exit status 2"), stderr: "WARNING: only warnings"}
	if bare.Error() != "exit status 2" {
		t.Fatalf("Error() = %q", bare.Error())
	}
}

func TestPlaylistFromInfo(t *testing.T) {
	in := &info{
		Title: "Road trip",
		Entries: []*info{
			{ID: "aaa", Title: "One", Duration: 61, URL: "https://www.youtube.com/watch?v=aaa"},
			nil,
			{ID: "bbb", Title: "[Deleted video]"},
			{ID: "ccc", Title: "Three"},
			{Title: "Nameless"},
			{ID: "ddd", Title: "[Private video]"},
			{ID: "eee", Title: "Five", WebpageURL: "https://www.youtube.com/watch?v=eee", Duration: 0},
		},
	}

	pl := playlistFromInfo(in)
	if pl.Title != "Road trip" {
		t.Errorf("Title = %q", pl.Title)
	}

	want := []player.PlaylistItem{
		{URL: "https://www.youtube.com/watch?v=aaa", Duration: 61 * time.Second},
		{URL: "https://www.youtube.com/watch?v=ccc"},
		{URL: "https://www.youtube.com/watch?v=eee"},
	}
	if len(pl.Items) != len(want) {
		t.Fatalf("items = %+v, want %+v", pl.Items, want)
	}
	for i := range want {
		if pl.Items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, pl.Items[i], want[i])
		}
	}

	if len(pl.Diagnostics) != 4 {
		t.Fatalf("diagnostics = %q, want 4 entries", pl.Diagnostics)
	}
	if !strings.HasPrefix(pl.Diagnostics[0], "entry 2") {
		t.Errorf("first diagnostic = %q, want entry 2", pl.Diagnostics[0])
	}
	if !strings.Contains(pl.Diagnostics[1], "Deleted video") {
		t.Errorf("second diagnostic = %q", pl.Diagnostics[1])
	}
}

func TestIsPlaylist(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.youtube.com/playlist?list=PL123", true},
		{"https://www.youtube.com/watch?v=abc&list=PL123", true},
		{"https://music.youtube.com/playlist?list=OLAK5", true},
		{"https://www.youtube.com/watch?v=abc", false},
		{"https://youtu.be/abc", false},
		{"https://example.com/?list=1", false},
		{"never gonna give you up", false},
	}
	for _, tt := range tests {
		if got := IsPlaylist(tt.in); got != tt.want {
			t.Errorf("IsPlaylist(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInfoFirstAndMetadata(t *testing.T) {
	search := &info{Entries: []*info{nil, {Title: "Hit", Duration: 200.5, WebpageURL: "https://www.youtube.com/watch?v=hit"}}}
	got := search.first().metadata("")
	want := player.Metadata{Title: "Hit", SourceURL: "https://www.youtube.com/watch?v=hit", Duration: 200500 * time.Millisecond}
	if got != want {
		t.Fatalf("metadata = %+v, want %+v", got, want)
	}

	if (&info{Entries: []*info{nil}}).first() != nil {
		t.Fatal("first() of an all-nil container should be nil")
	}

	direct := &info{Title: "Live", Duration: -1}
	if m := direct.first().metadata("https://example.com/a.mp3"); m.SourceURL != "https://example.com/a.mp3" || m.Duration != 0 {
		t.Fatalf("metadata = %+v", m)
	}
}

func TestAudioURL(t *testing.T) {
	in := &info{
		URL:     "https://cdn.example/top",
		Formats: []string{"", "manifest", "https://cdn.example/requested"},
	}
	if got := in.audioURL(); got != "https://cdn.example/requested" {
		t.Fatalf("audioURL = %q", got)
	}
	in.Formats = nil
	if got := in.audioURL(); got != "https://cdn.example/top" {
		t.Fatalf("audioURL = %q", got)
	}
	in.URL = ""
	if got := in.audioURL(); got != "" {
		t.Fatalf("audioURL = %q, want empty", got)
	}
}

func TestFFmpegArgs(t *testing.T) {
	args := ffmpegArgs("https://cdn.example/a", map[string]string{"Referer": "https://www.youtube.com/"})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-headers", "-i https://cdn.example/a", "-f s16le pipe:1", "-ar 48000", "-ac 2"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}

	local := strings.Join(ffmpegArgs("/tmp/a.opus", nil), " ")
	if strings.Contains(local, "-headers") {
		t.Errorf("local input got headers: %s", local)
	}
}
