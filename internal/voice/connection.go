package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

const (
	frameInterval = 20 * time.Millisecond
	sendTimeout   = 200 * time.Millisecond
	readyTimeout  = 5 * time.Second
)

var (
	errNotReady    = errors.New("voice connection not ready")
	errSendTimeout = errors.New("opus send timeout")
)

// link is the part of a discordgo voice connection the engine drives.
type link interface {
	Ready() bool
	Speaking(bool) error
	Send() chan<- []byte
	Disconnect() error
}

// gate blocks the sender while playback is paused.
type gate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func (g *gate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		g.resume = make(chan struct{})
	}
}

func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.paused = false
		close(g.resume)
	}
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	ch := g.resume
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connection is the playback engine of one voice connection. It implements
// player.Connection.
type Connection struct {
	link      link
	channelID string
	open      openFunc
	gate      gate

	mu       sync.Mutex
	cancel   context.CancelFunc
	finished chan struct{}
}

func newConnection(l link, channelID string, open openFunc) *Connection {
	return &Connection{link: l, channelID: channelID, open: open}
}

func (c *Connection) ChannelID() string { return c.channelID }

// Play replaces whatever is playing with t and returns immediately.
func (c *Connection) Play(ctx context.Context, t player.Track, done func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	pctx, cancel := context.WithCancel(ctx)
	finished := make(chan struct{})
	c.cancel, c.finished = cancel, finished
	c.gate.open()

	go func() {
		err := c.play(pctx, t)
		stopped := pctx.Err() != nil
		cancel()
		close(finished)
		if stopped {
			return
		}
		if err != nil {
			slog.Debug("playback ended with error", "channelID", c.channelID, "title", t.Title, "err", err)
		}
		done(err)
	}()
	return nil
}

func (c *Connection) play(ctx context.Context, t player.Track) error {
	src, err := c.open(ctx, t)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := c.waitReady(ctx); err != nil {
		return err
	}
	_ = c.link.Speaking(true)
	defer c.link.Speaking(false)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		if err := c.gate.wait(ctx); err != nil {
			return err
		}
		pkt, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case c.link.Send() <- pkt:
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sendTimeout):
			return errSendTimeout
		}
	}
}

func (c *Connection) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(readyTimeout)
	for !c.link.Ready() {
		if time.Now().After(deadline) {
			return errNotReady
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (c *Connection) Pause() error {
	c.gate.pause()
	return nil
}

func (c *Connection) Resume() error {
	c.gate.open()
	return nil
}

// Stop cancels the current playback and waits for its sender to exit. The
// done callback of a stopped track is not called.
func (c *Connection) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return nil
}

func (c *Connection) stopLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.gate.open()
	<-c.finished
	c.cancel, c.finished = nil, nil
}

func (c *Connection) Close(ctx context.Context) error {
	c.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- c.link.Disconnect() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
