package stream

import (
	"errors"
	"strings"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

// ErrNoResults means a search ran but matched nothing.
var ErrNoResults = errors.New("no results")

// runError carries yt-dlp's stderr alongside the exit error.
type runError struct {
	err    error
	stderr string
}

func (e *runError) Error() string {
	if line := lastErrorLine(e.stderr); line != "" {
		return e.err.Error() + ": " + line
	}
	return e.err.Error()
}

func (e *runError) Unwrap() error { return e.err }

func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); strings.HasPrefix(l, "ERROR:") {
			return l
		}
	}
	return ""
}

// Messages yt-dlp prints when a source exists but cannot be played.
var unavailableMarkers = []string{
	"video unavailable",
	"private video",
	"has been removed",
	"members-only",
	"sign in to confirm your age",
	"is not available",
	"account associated with this video has been terminated",
}

// classify decides whether a failed lookup means the source is gone or
// withheld, as opposed to a network, tooling or search failure.
func classify(err error) player.ResolveReason {
	if err == nil {
		return player.ReasonOther
	}
	text := err.Error()
	var re *runError
	if errors.As(err, &re) {
		text += "\n" + re.stderr
	}
	text = strings.ToLower(text)
	for _, m := range unavailableMarkers {
		if strings.Contains(text, m) {
			return player.ReasonUnavailable
		}
	}
	return player.ReasonOther
}
