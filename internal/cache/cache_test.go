package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

type countingResolver struct {
	calls int
	fail  bool
}

func (r *countingResolver) Resolve(_ context.Context, locator string, direct bool) (player.Metadata, error) {
	r.calls++
	if r.fail {
		return player.Metadata{}, &player.ResolutionError{Locator: locator, Err: errors.New("boom")}
	}
	return player.Metadata{Title: fmt.Sprintf("%s/%v", locator, direct), SourceURL: locator}, nil
}

func newTestResolver(next player.Resolver, ttl time.Duration) (*Resolver, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewResolver(next, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestResolverCachesUntilExpiry(t *testing.T) {
	next := &countingResolver{}
	c, now := newTestResolver(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m, err := c.Resolve(ctx, "song", false)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if m.Title != "song/false" {
			t.Fatalf("Title = %q", m.Title)
		}
	}
	if next.calls != 1 {
		t.Fatalf("calls = %d, want 1", next.calls)
	}

	// Direct and search lookups of the same text are distinct.
	c.Resolve(ctx, "song", true)
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}

	*now = now.Add(time.Minute)
	c.Resolve(ctx, "song", false)
	if next.calls != 3 {
		t.Fatalf("calls after expiry = %d, want 3", next.calls)
	}
}

func TestResolverDoesNotCacheFailures(t *testing.T) {
	next := &countingResolver{fail: true}
	c, _ := newTestResolver(next, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := c.Resolve(context.Background(), "gone", true)
		var re *player.ResolutionError
		if !errors.As(err, &re) {
			t.Fatalf("Resolve error = %v, want *ResolutionError", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestResolverDisabled(t *testing.T) {
	next := &countingResolver{}
	c, _ := newTestResolver(next, 0)

	c.Resolve(context.Background(), "a", true)
	c.Resolve(context.Background(), "a", true)
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}
}

func TestSweepDropsExpired(t *testing.T) {
	next := &countingResolver{}
	c, now := newTestResolver(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < maxEntries; i++ {
		c.Resolve(ctx, fmt.Sprint(i), true)
	}
	*now = now.Add(2 * time.Minute)
	c.Resolve(ctx, "fresh", true)

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestCacheStaysBoundedWhileEntriesAreLive(t *testing.T) {
	next := &countingResolver{}
	c, now := newTestResolver(next, time.Hour)
	ctx := context.Background()

	for i := 0; i < maxEntries+50; i++ {
		*now = now.Add(time.Second)
		c.Resolve(ctx, fmt.Sprint(i), true)
	}
	if c.Len() != maxEntries {
		t.Fatalf("Len = %d, want %d", c.Len(), maxEntries)
	}

	// The oldest inserts were evicted, the newest are still served.
	calls := next.calls
	c.Resolve(ctx, fmt.Sprint(maxEntries+49), true)
	if next.calls != calls {
		t.Error("newest entry was evicted")
	}
	c.Resolve(ctx, "0", true)
	if next.calls != calls+1 {
		t.Error("oldest entry survived eviction")
	}
}

func TestHashKey(t *testing.T) {
	if HashKey("a", true) == HashKey("a", false) {
		t.Fatal("direct flag not part of key")
	}
	if len(HashKey("a", true)) != 64 {
		t.Fatal("key is not hex sha256")
	}
}
