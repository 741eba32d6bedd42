package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu       sync.Mutex
	channel  string
	played   []string
	done     func(error)
	pauses   int
	resumes  int
	stops    int
	closes   int
	closeErr error
	playErr  map[string]error
}

func (c *fakeConn) ChannelID() string { return c.channel }

func (c *fakeConn) Play(_ context.Context, t Track, done func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.playErr[t.URL]; err != nil {
		return err
	}
	c.played = append(c.played, t.URL)
	c.done = done
	return nil
}

func (c *fakeConn) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauses++
	return nil
}

func (c *fakeConn) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes++
	return nil
}

func (c *fakeConn) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.done = nil
	return nil
}

func (c *fakeConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.closeErr
}

// takeDone returns the pending end-of-track callback, if any.
func (c *fakeConn) takeDone() func(error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.done
	c.done = nil
	return d
}

// finish simulates the engine reaching the end of the current track.
func (c *fakeConn) finish(t *testing.T, err error) {
	t.Helper()
	d := c.takeDone()
	if d == nil {
		t.Fatal("no track is playing")
	}
	d(err)
}

func (c *fakeConn) playedURLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.played...)
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type fakeJoiner struct {
	mu       sync.Mutex
	joins    int
	delay    time.Duration
	err      error
	closeErr map[string]error
	conns    map[string]*fakeConn
}

func (j *fakeJoiner) Join(_ context.Context, guildID, channelID string) (Connection, error) {
	if j.delay > 0 {
		time.Sleep(j.delay)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.joins++
	if j.err != nil {
		return nil, j.err
	}
	c := &fakeConn{channel: channelID, closeErr: j.closeErr[guildID]}
	if j.conns == nil {
		j.conns = make(map[string]*fakeConn)
	}
	j.conns[guildID] = c
	return c, nil
}

func (j *fakeJoiner) joinCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.joins
}

func (j *fakeJoiner) conn(guildID string) *fakeConn {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.conns[guildID]
}

var errRemoved = &ResolutionError{Reason: ReasonUnavailable, Err: errors.New("Video unavailable")}

// echoResolver resolves every locator to itself unless listed in fail.
func echoResolver(fail map[string]error) Resolver {
	return ResolverFunc(func(ctx context.Context, locator string, _ bool) (Metadata, error) {
		if err := ctx.Err(); err != nil {
			return Metadata{}, err
		}
		if err, ok := fail[locator]; ok {
			return Metadata{}, err
		}
		return Metadata{Title: "title of " + locator, SourceURL: locator, Duration: 3 * time.Minute}, nil
	})
}

// newTestSession builds a session outside any registry with a watchdog
// interval long enough to stay out of the way.
func newTestSession(resolver Resolver) (*Session, *fakeConn) {
	conn := &fakeConn{channel: "voice-1"}
	s := newSession("guild-1", conn, resolver, SessionOptions{IdleTimeout: time.Hour}, nil)
	return s, conn
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func urls(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.URL
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
