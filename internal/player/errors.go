package player

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveSession  = errors.New("no active voice session")
	ErrQueueEmpty       = errors.New("no tracks in queue")
	ErrNoCurrentTrack   = errors.New("no track is currently playing")
	ErrInvalidLoopCount = errors.New("loop count must be at least 1")
)

// JoinError reports that the bot could not enter a voice channel.
type JoinError struct {
	GuildID   string
	ChannelID string
	Err       error
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join voice channel %s in guild %s: %v", e.ChannelID, e.GuildID, e.Err)
}

func (e *JoinError) Unwrap() error { return e.Err }

type ResolveReason int

const (
	ReasonOther ResolveReason = iota
	ReasonUnavailable
)

func (r ResolveReason) String() string {
	if r == ReasonUnavailable {
		return "unavailable"
	}
	return "other"
}

// ResolutionError is returned by resolvers and by Session.Add when a source
// cannot be turned into playable audio. Reason is decided by the resolver.
type ResolutionError struct {
	Locator string
	Reason  ResolveReason
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve %q: %s", e.Locator, e.Reason)
	}
	return fmt.Sprintf("resolve %q (%s): %v", e.Locator, e.Reason, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Unavailable reports whether the source was removed, private or otherwise
// withheld, as opposed to a generic failure.
func (e *ResolutionError) Unavailable() bool { return e.Reason == ReasonUnavailable }

// FetchError aborts a whole playlist ingestion.
type FetchError struct {
	Locator string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch playlist %q: %v", e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func asResolutionError(locator string, err error) *ResolutionError {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re
	}
	return &ResolutionError{Locator: locator, Reason: ReasonOther, Err: err}
}
