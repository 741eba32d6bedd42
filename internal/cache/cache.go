package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

// maxEntries bounds the cache. Going over it sweeps expired entries, then
// evicts the ones closest to expiry.
const maxEntries = 1024

type entry struct {
	meta    player.Metadata
	expires time.Time
}

// Resolver remembers successful resolutions for a while so replays and
// repeated requests skip yt-dlp. Failures are never cached.
type Resolver struct {
	next player.Resolver
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewResolver wraps next. A non-positive ttl disables caching.
func NewResolver(next player.Resolver, ttl time.Duration) *Resolver {
	return &Resolver{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func HashKey(locator string, direct bool) string {
	sum := sha256.Sum256([]byte(strconv.FormatBool(direct) + "\x00" + locator))
	return hex.EncodeToString(sum[:])
}

func (c *Resolver) Resolve(ctx context.Context, locator string, direct bool) (player.Metadata, error) {
	if c.ttl <= 0 {
		return c.next.Resolve(ctx, locator, direct)
	}

	key := HashKey(locator, direct)
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Before(e.expires) {
		slog.Debug("resolve cache hit", "locator", locator)
		return e.meta, nil
	}

	meta, err := c.next.Resolve(ctx, locator, direct)
	if err != nil {
		return player.Metadata{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{meta: meta, expires: c.now().Add(c.ttl)}
	if len(c.entries) > maxEntries {
		c.sweepLocked()
	}
	return meta, nil
}

func (c *Resolver) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Resolver) sweepLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) <= maxEntries {
		return
	}

	// Every entry shares one ttl, so the earliest expiry is the oldest insert.
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.entries[a].expires.Compare(c.entries[b].expires)
	})
	for _, k := range keys[:len(keys)-maxEntries] {
		delete(c.entries, k)
	}
}
