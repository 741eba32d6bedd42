package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sonroyaalmerol/jukebot/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Registry maps guild IDs to their live voice session. There is at most one
// session per guild; concurrent joins for the same guild share one attempt.
type Registry struct {
	joiner   Joiner
	resolver Resolver
	opts     SessionOptions

	joins singleflight.Group

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(joiner Joiner, resolver Resolver, opts SessionOptions) *Registry {
	return &Registry{
		joiner:   joiner,
		resolver: resolver,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Lookup returns the live session for guildID. It never blocks on a busy
// session.
func (r *Registry) Lookup(guildID string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[guildID]
	r.mu.RUnlock()
	if !ok || s.closed.Load() {
		return nil, false
	}
	return s, true
}

// GetOrJoin returns the guild's session, joining channelID first if there is
// none. An existing session is returned as is even if it sits in another
// channel.
func (r *Registry) GetOrJoin(ctx context.Context, guildID, channelID string) (*Session, error) {
	if s, ok := r.Lookup(guildID); ok {
		return s, nil
	}

	v, err, _ := r.joins.Do(guildID, func() (any, error) {
		if s, ok := r.Lookup(guildID); ok {
			return s, nil
		}

		conn, err := r.joiner.Join(ctx, guildID, channelID)
		if err != nil {
			var je *JoinError
			if errors.As(err, &je) {
				return nil, je
			}
			return nil, &JoinError{GuildID: guildID, ChannelID: channelID, Err: err}
		}

		s := newSession(guildID, conn, r.resolver, r.opts, r.forget)
		r.mu.Lock()
		r.sessions[guildID] = s
		metrics.SessionsActive.Set(float64(len(r.sessions)))
		r.mu.Unlock()

		slog.Info("voice session created", "guildID", guildID, "channelID", channelID, "session", s.ID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// WithSession runs fn on the guild's session, joining channelID if needed.
// If the session was torn down between the lookup and fn taking its lock,
// fn reports ErrNoActiveSession and is retried once on a fresh session.
func (r *Registry) WithSession(ctx context.Context, guildID, channelID string, fn func(*Session) error) (*Session, error) {
	var (
		s   *Session
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		s, err = r.GetOrJoin(ctx, guildID, channelID)
		if err != nil {
			return nil, err
		}
		err = fn(s)
		if !errors.Is(err, ErrNoActiveSession) {
			return s, err
		}
		slog.Debug("session closed under caller, rejoining", "guildID", guildID, "session", s.ID)
	}
	return s, err
}

// Remove forgets the guild's entry without disconnecting it. Sessions remove
// themselves on teardown; use Leave to disconnect.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
	metrics.SessionsActive.Set(float64(len(r.sessions)))
}

// forget drops s only if it is still the guild's entry, so a stale session
// finishing late cannot evict its replacement.
func (r *Registry) forget(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.guildID]; ok && cur == s {
		delete(r.sessions, s.guildID)
	}
	metrics.SessionsActive.Set(float64(len(r.sessions)))
}

func (r *Registry) Leave(ctx context.Context, guildID string) error {
	s, ok := r.Lookup(guildID)
	if !ok {
		return ErrNoActiveSession
	}
	return s.Leave(ctx)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if !s.closed.Load() {
			n++
		}
	}
	return n
}

// Shutdown disconnects every session and reports all failures together.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	var result *multierror.Error
	for _, s := range all {
		if err := s.Leave(ctx); err != nil && !errors.Is(err, ErrNoActiveSession) {
			result = multierror.Append(result, fmt.Errorf("guild %s: %w", s.guildID, err))
		}
	}
	return result.ErrorOrNil()
}
