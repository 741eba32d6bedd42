package player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/metrics"
)

// IngestLimits bounds a playlist ingestion. A zero or negative field
// disables that limit. Items of unknown (zero) duration always pass the
// duration check.
type IngestLimits struct {
	MaxItems        int
	MaxItemDuration time.Duration
}

func (l IngestLimits) admits(accepted int, d time.Duration) bool {
	if l.MaxItems > 0 && accepted >= l.MaxItems {
		return false
	}
	if l.MaxItemDuration > 0 && d > l.MaxItemDuration {
		return false
	}
	return true
}

type IngestResult struct {
	Title              string
	Accepted           []Track
	SkippedByLimit     int
	SkippedUnavailable int
	// TotalDuration sums the playlist-reported durations of accepted items.
	TotalDuration time.Duration
	Diagnostics   []string
}

// Ingest fetches a playlist and adds its items in order, skipping items over
// the limits and items that fail to resolve. A failed fetch aborts with a
// *FetchError; item failures never abort. If ctx is cancelled midway the
// partial result is returned together with ctx.Err().
func (s *Session) Ingest(ctx context.Context, fetcher PlaylistFetcher, locator string, limits IngestLimits, requestedBy string) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return IngestResult{}, ErrNoActiveSession
	}

	pl, err := fetcher.Fetch(ctx, locator)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = &FetchError{Locator: locator, Err: err}
		}
		return IngestResult{}, fe
	}

	res := IngestResult{Title: pl.Title, Diagnostics: pl.Diagnostics}
	for _, d := range pl.Diagnostics {
		slog.Debug("playlist entry dropped by fetcher", "guildID", s.guildID, "playlist", locator, "detail", d)
	}

	var ctxErr error
	for _, item := range pl.Items {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		if !limits.admits(len(res.Accepted), item.Duration) {
			res.SkippedByLimit++
			metrics.IngestItems.WithLabelValues("limit").Inc()
			continue
		}

		t, err := s.addLocked(ctx, item.URL, true, requestedBy)
		if err != nil {
			if ctx.Err() != nil {
				ctxErr = ctx.Err()
				break
			}
			res.SkippedUnavailable++
			metrics.IngestItems.WithLabelValues("unavailable").Inc()
			continue
		}
		res.Accepted = append(res.Accepted, t)
		res.TotalDuration += item.Duration
		metrics.IngestItems.WithLabelValues("accepted").Inc()
	}

	if len(res.Accepted) > 0 {
		s.rearmLocked()
	}
	slog.Info("playlist ingested",
		"guildID", s.guildID,
		"playlist", locator,
		"accepted", len(res.Accepted),
		"skippedLimit", res.SkippedByLimit,
		"skippedUnavailable", res.SkippedUnavailable,
	)
	return res, ctxErr
}
