package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/metrics"
)

// watchdog is one registration of the idle check. A session owns at most
// one live registration; rearming cancels the old one before starting the
// next, so timers never stack.
type watchdog struct {
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
}

func (w *watchdog) cancel() {
	w.once.Do(func() { close(w.stopCh) })
}

// rearmLocked restarts the idle window. Caller must hold s.mu.
func (s *Session) rearmLocked() {
	if s.watchdog != nil {
		s.watchdog.cancel()
	}
	w := &watchdog{interval: s.idle, stopCh: make(chan struct{})}
	s.watchdog = w
	go s.watch(w)
}

func (s *Session) watch(w *watchdog) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if s.idleCheck(w) {
				return
			}
		}
	}
}

// idleCheck runs one tick and reports whether w is finished. A tick that
// lost the lock race to an add sees the new track, or sees that it has been
// replaced, and abstains.
func (s *Session) idleCheck(w *watchdog) bool {
	s.mu.Lock()
	if s.closed.Load() || s.watchdog != w {
		s.mu.Unlock()
		return true
	}
	if !s.queue.IsEmpty() {
		s.mu.Unlock()
		return false
	}

	slog.Info("leaving idle voice session", "guildID", s.guildID, "session", s.ID, "idle", s.idle)
	s.teardownLocked()
	s.mu.Unlock()

	metrics.WatchdogDisconnects.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := s.finish(ctx); err != nil {
		slog.Warn("idle disconnect failed", "guildID", s.guildID, "err", err)
	}
	return true
}
