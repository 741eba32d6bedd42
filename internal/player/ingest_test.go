package player

import (
	"context"
	"errors"
	"testing"
	"time"
)

func staticFetcher(pl Playlist, err error) PlaylistFetcher {
	return FetcherFunc(func(context.Context, string) (Playlist, error) {
		return pl, err
	})
}

func items(durations ...time.Duration) []PlaylistItem {
	out := make([]PlaylistItem, len(durations))
	for i, d := range durations {
		out[i] = PlaylistItem{URL: string(rune('a' + i)), Duration: d}
	}
	return out
}

func TestIngestLimits(t *testing.T) {
	tests := []struct {
		name         string
		items        []PlaylistItem
		limits       IngestLimits
		wantAccepted []string
		wantLimited  int
		wantTotal    time.Duration
	}{
		{
			name:         "item cap",
			items:        items(time.Minute, time.Minute, time.Minute, time.Minute, time.Minute),
			limits:       IngestLimits{MaxItems: 2, MaxItemDuration: time.Hour},
			wantAccepted: []string{"a", "b"},
			wantLimited:  3,
			wantTotal:    2 * time.Minute,
		},
		{
			name:         "duration cap keeps unknown lengths",
			items:        items(time.Minute, 20*time.Minute, 0, 3*time.Minute),
			limits:       IngestLimits{MaxItems: 10, MaxItemDuration: 10 * time.Minute},
			wantAccepted: []string{"a", "c", "d"},
			wantLimited:  1,
			wantTotal:    4 * time.Minute,
		},
		{
			name:         "duration exactly at cap",
			items:        items(10 * time.Minute),
			limits:       IngestLimits{MaxItems: 10, MaxItemDuration: 10 * time.Minute},
			wantAccepted: []string{"a"},
			wantTotal:    10 * time.Minute,
		},
		{
			name:         "skipped long item does not use a slot",
			items:        items(time.Hour, time.Minute, time.Minute),
			limits:       IngestLimits{MaxItems: 2, MaxItemDuration: 10 * time.Minute},
			wantAccepted: []string{"b", "c"},
			wantLimited:  1,
			wantTotal:    2 * time.Minute,
		},
		{
			name:         "zero limits disable checks",
			items:        items(time.Hour, time.Hour, time.Hour),
			limits:       IngestLimits{},
			wantAccepted: []string{"a", "b", "c"},
			wantTotal:    3 * time.Hour,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(echoResolver(nil))
			res, err := s.Ingest(context.Background(), staticFetcher(Playlist{Title: "mix", Items: tt.items}, nil), "list", tt.limits, "user")
			if err != nil {
				t.Fatalf("Ingest: %v", err)
			}
			if got := urls(res.Accepted); !equalStrings(got, tt.wantAccepted) {
				t.Errorf("accepted = %v, want %v", got, tt.wantAccepted)
			}
			if res.SkippedByLimit != tt.wantLimited {
				t.Errorf("SkippedByLimit = %d, want %d", res.SkippedByLimit, tt.wantLimited)
			}
			if res.TotalDuration != tt.wantTotal {
				t.Errorf("TotalDuration = %v, want %v", res.TotalDuration, tt.wantTotal)
			}
			if res.Title != "mix" {
				t.Errorf("Title = %q, want mix", res.Title)
			}
		})
	}
}

func TestIngestSkipsUnavailableItems(t *testing.T) {
	s, conn := newTestSession(echoResolver(map[string]error{"b": errRemoved}))
	pl := Playlist{
		Items:       items(time.Minute, time.Minute, time.Minute, time.Minute, time.Minute),
		Diagnostics: []string{"entry 6: private video"},
	}

	res, err := s.Ingest(context.Background(), staticFetcher(pl, nil), "list", IngestLimits{MaxItems: 10}, "user")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if got := urls(res.Accepted); !equalStrings(got, []string{"a", "c", "d", "e"}) {
		t.Fatalf("accepted = %v", got)
	}
	if res.SkippedUnavailable != 1 {
		t.Errorf("SkippedUnavailable = %d, want 1", res.SkippedUnavailable)
	}
	if len(res.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %v, want the fetcher's entry", res.Diagnostics)
	}

	snap, _ := s.Snapshot()
	if got := urls(snap); !equalStrings(got, []string{"a", "c", "d", "e"}) {
		t.Fatalf("queue = %v", got)
	}
	if got := conn.playedURLs(); !equalStrings(got, []string{"a"}) {
		t.Fatalf("played = %v, want [a]", got)
	}
}

func TestIngestAppendsAfterExistingTracks(t *testing.T) {
	s, _ := newTestSession(echoResolver(nil))
	ctx := context.Background()
	s.Add(ctx, "first", true, "user")

	if _, err := s.Ingest(ctx, staticFetcher(Playlist{Items: items(0, 0)}, nil), "list", IngestLimits{}, "user"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	snap, _ := s.Snapshot()
	if got := urls(snap); !equalStrings(got, []string{"first", "a", "b"}) {
		t.Fatalf("queue = %v", got)
	}
}

func TestIngestFetchFailure(t *testing.T) {
	s, _ := newTestSession(echoResolver(nil))

	_, err := s.Ingest(context.Background(), staticFetcher(Playlist{}, errors.New("HTTP 404")), "list", IngestLimits{}, "user")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Ingest error = %v, want *FetchError", err)
	}
	if fe.Locator != "list" {
		t.Errorf("Locator = %q, want list", fe.Locator)
	}
	snap, _ := s.Snapshot()
	if len(snap) != 0 {
		t.Fatalf("queue = %v, want empty", urls(snap))
	}
}

func TestIngestCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	resolver := ResolverFunc(func(ctx context.Context, locator string, _ bool) (Metadata, error) {
		if err := ctx.Err(); err != nil {
			return Metadata{}, err
		}
		calls++
		if calls == 2 {
			cancel()
		}
		return Metadata{Title: locator, SourceURL: locator}, nil
	})
	s, _ := newTestSession(resolver)

	res, err := s.Ingest(ctx, staticFetcher(Playlist{Items: items(0, 0, 0, 0)}, nil), "list", IngestLimits{}, "user")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Ingest error = %v, want context.Canceled", err)
	}
	if got := urls(res.Accepted); !equalStrings(got, []string{"a", "b"}) {
		t.Fatalf("accepted = %v, want [a b]", got)
	}
	if res.SkippedUnavailable != 0 {
		t.Errorf("SkippedUnavailable = %d, want 0", res.SkippedUnavailable)
	}
}

func TestIngestAfterLeave(t *testing.T) {
	s, _ := newTestSession(echoResolver(nil))
	s.Leave(context.Background())

	_, err := s.Ingest(context.Background(), staticFetcher(Playlist{Items: items(0)}, nil), "list", IngestLimits{}, "user")
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Ingest after Leave = %v, want ErrNoActiveSession", err)
	}
}
