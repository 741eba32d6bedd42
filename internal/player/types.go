package player

import (
	"fmt"
	"time"
)

type LoopMode int

const (
	LoopDisabled LoopMode = iota
	LoopFinite
	LoopInfinite
)

func (m LoopMode) String() string {
	switch m {
	case LoopFinite:
		return "finite"
	case LoopInfinite:
		return "infinite"
	default:
		return "disabled"
	}
}

// LoopPolicy controls how often a track replays once it ends naturally.
// Remaining is only meaningful for LoopFinite and is always > 0 there.
type LoopPolicy struct {
	Mode      LoopMode
	Remaining int
}

func LoopOff() LoopPolicy { return LoopPolicy{Mode: LoopDisabled} }

func LoopForever() LoopPolicy { return LoopPolicy{Mode: LoopInfinite} }

func LoopTimes(n int) (LoopPolicy, error) {
	if n <= 0 {
		return LoopPolicy{}, ErrInvalidLoopCount
	}
	return LoopPolicy{Mode: LoopFinite, Remaining: n}, nil
}

func (l LoopPolicy) valid() bool {
	switch l.Mode {
	case LoopDisabled, LoopInfinite:
		return true
	case LoopFinite:
		return l.Remaining > 0
	}
	return false
}

// consume is applied when the track ends naturally. It reports whether the
// track plays again and returns the policy to keep for the replay.
func (l LoopPolicy) consume() (LoopPolicy, bool) {
	switch l.Mode {
	case LoopInfinite:
		return l, true
	case LoopFinite:
		if l.Remaining <= 1 {
			return LoopOff(), true
		}
		return LoopPolicy{Mode: LoopFinite, Remaining: l.Remaining - 1}, true
	}
	return l, false
}

func (l LoopPolicy) String() string {
	switch l.Mode {
	case LoopInfinite:
		return "infinite"
	case LoopFinite:
		return fmt.Sprintf("%d more", l.Remaining)
	default:
		return "off"
	}
}

// Track is one playable item. Everything except Loop is fixed once the
// source has been resolved.
type Track struct {
	Title       string        // empty when the source reported none
	URL         string        // source locator handed to the playback engine
	Duration    time.Duration // zero when unknown
	Loop        LoopPolicy
	RequestedBy string
}

func (t Track) DisplayTitle() string {
	if t.Title == "" {
		return "Unknown Title"
	}
	return t.Title
}

// Metadata is what a Resolver returns for one source.
type Metadata struct {
	Title     string
	SourceURL string
	Duration  time.Duration
}

type PlaylistItem struct {
	URL      string
	Duration time.Duration
}

// Playlist is the item list of an external playlist. Diagnostics carry
// non-fatal parse problems and are forwarded unchanged to the caller.
type Playlist struct {
	Title       string
	Items       []PlaylistItem
	Diagnostics []string
}
