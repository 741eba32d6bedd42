package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sonroyaalmerol/jukebot/internal/metrics"
)

const (
	DefaultIdleTimeout = 120 * time.Second

	disconnectTimeout = 5 * time.Second
)

type SessionOptions struct {
	// IdleTimeout is the watchdog interval; a tick that finds the queue
	// empty disconnects the session.
	IdleTimeout time.Duration
}

// Session is one guild's voice connection plus its queue. Every exported
// method takes the session lock for its whole duration, including the
// resolver and playlist calls made by Add and Ingest.
type Session struct {
	ID       string
	guildID  string
	conn     Connection
	resolver Resolver
	idle     time.Duration
	onClose  func(*Session)

	// playback context, cancelled on teardown
	ctx    context.Context
	cancel context.CancelFunc

	// written under mu, read without it by the registry
	closed atomic.Bool

	mu       sync.Mutex
	queue    Queue
	paused   bool
	playGen  uint64
	watchdog *watchdog
}

func newSession(guildID string, conn Connection, resolver Resolver, opts SessionOptions, onClose func(*Session)) *Session {
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       uuid.NewString(),
		guildID:  guildID,
		conn:     conn,
		resolver: resolver,
		idle:     idle,
		onClose:  onClose,
		ctx:      ctx,
		cancel:   cancel,
	}

	// A session whose first add fails must still leave on its own.
	s.mu.Lock()
	s.rearmLocked()
	s.mu.Unlock()
	return s
}

func (s *Session) GuildID() string { return s.guildID }

func (s *Session) ChannelID() string { return s.conn.ChannelID() }

// Add resolves locator, appends the track and starts playback if the queue
// was empty. On failure the queue is left untouched.
func (s *Session) Add(ctx context.Context, locator string, direct bool, requestedBy string) (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return Track{}, ErrNoActiveSession
	}

	t, err := s.addLocked(ctx, locator, direct, requestedBy)
	if err != nil {
		return Track{}, err
	}
	s.rearmLocked()
	return t, nil
}

func (s *Session) addLocked(ctx context.Context, locator string, direct bool, requestedBy string) (Track, error) {
	meta, err := s.resolver.Resolve(ctx, locator, direct)
	if err != nil {
		re := asResolutionError(locator, err)
		metrics.ResolveFailures.WithLabelValues(re.Reason.String()).Inc()
		slog.Debug("resolve failed", "guildID", s.guildID, "locator", locator, "reason", re.Reason, "err", re.Err)
		return Track{}, re
	}

	url := meta.SourceURL
	if url == "" {
		url = locator
	}
	t := &Track{
		Title:       meta.Title,
		URL:         url,
		Duration:    meta.Duration,
		Loop:        LoopOff(),
		RequestedBy: requestedBy,
	}

	wasEmpty := s.queue.IsEmpty()
	s.queue.Push(t)
	metrics.TracksEnqueued.Inc()
	slog.Debug("enqueued track", "guildID", s.guildID, "title", t.Title, "queueLen", s.queue.Len())

	if wasEmpty {
		s.startLocked()
	}
	return *t, nil
}

// startLocked hands the head of the queue to the engine. Tracks the engine
// refuses outright are dropped so the queue never stalls on them.
func (s *Session) startLocked() {
	for {
		cur := s.queue.Current()
		if cur == nil {
			s.paused = false
			return
		}

		s.playGen++
		gen := s.playGen
		err := s.conn.Play(s.ctx, *cur, func(err error) { s.trackEnded(gen, err) })
		if err == nil {
			s.paused = false
			return
		}

		slog.Warn("playback start failed, skipping track", "guildID", s.guildID, "title", cur.Title, "err", err)
		s.queue.Pop()
	}
}

func (s *Session) trackEnded(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || gen != s.playGen {
		return
	}
	cur := s.queue.Current()
	if cur == nil {
		return
	}

	if err != nil {
		slog.Warn("playback failed", "guildID", s.guildID, "title", cur.Title, "err", err)
	} else if next, again := cur.Loop.consume(); again {
		cur.Loop = next
		slog.Debug("looping track", "guildID", s.guildID, "title", cur.Title, "loop", next)
		s.startLocked()
		return
	}

	s.queue.Pop()
	s.startLocked()
}

// Pause is a no-op when playback is already paused.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrNoActiveSession
	}
	if s.queue.IsEmpty() {
		return ErrQueueEmpty
	}
	if s.paused {
		return nil
	}
	if err := s.conn.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	s.paused = true
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrNoActiveSession
	}
	if s.queue.IsEmpty() {
		return ErrQueueEmpty
	}
	if !s.paused {
		return nil
	}
	if err := s.conn.Resume(); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	s.paused = false
	return nil
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Skip drops the current track, loop policy notwithstanding, and starts the
// next one.
func (s *Session) Skip() (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return Track{}, ErrNoActiveSession
	}
	if s.queue.IsEmpty() {
		return Track{}, ErrQueueEmpty
	}

	s.playGen++
	if err := s.conn.Stop(); err != nil {
		slog.Warn("engine stop failed", "guildID", s.guildID, "err", err)
	}
	skipped, _ := s.queue.Pop()
	s.startLocked()
	return *skipped, nil
}

// Stop clears the queue and halts playback, returning how many tracks were
// dropped.
func (s *Session) Stop() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return 0, ErrNoActiveSession
	}
	if s.queue.IsEmpty() {
		return 0, ErrQueueEmpty
	}

	s.playGen++
	if err := s.conn.Stop(); err != nil {
		slog.Warn("engine stop failed", "guildID", s.guildID, "err", err)
	}
	n := s.queue.Clear()
	s.paused = false
	return n, nil
}

func (s *Session) SetLoop(l LoopPolicy) (Track, error) {
	if !l.valid() {
		return Track{}, ErrInvalidLoopCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return Track{}, ErrNoActiveSession
	}
	cur := s.queue.Current()
	if cur == nil {
		return Track{}, ErrNoCurrentTrack
	}
	cur.Loop = l
	return *cur, nil
}

func (s *Session) Current() (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return Track{}, ErrNoActiveSession
	}
	cur := s.queue.Current()
	if cur == nil {
		return Track{}, ErrNoCurrentTrack
	}
	return *cur, nil
}

// Snapshot returns a copy of the whole queue, current track first.
func (s *Session) Snapshot() ([]Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return nil, ErrNoActiveSession
	}
	return s.queue.Snapshot(), nil
}

// Leave disconnects the session and removes it from its registry.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return ErrNoActiveSession
	}
	s.teardownLocked()
	s.mu.Unlock()

	slog.Info("left voice session", "guildID", s.guildID, "session", s.ID)
	return s.finish(ctx)
}

func (s *Session) teardownLocked() {
	s.closed.Store(true)
	s.playGen++
	if s.watchdog != nil {
		s.watchdog.cancel()
		s.watchdog = nil
	}
	if err := s.conn.Stop(); err != nil {
		slog.Warn("engine stop failed", "guildID", s.guildID, "err", err)
	}
	s.queue.Clear()
	s.paused = false
	s.cancel()
}

// finish does the network side of teardown without holding the lock.
func (s *Session) finish(ctx context.Context) error {
	err := s.conn.Close(ctx)
	if s.onClose != nil {
		s.onClose(s)
	}
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
