package player

import "context"

// Joiner enters a voice channel and hands back the connection that owns
// the playback engine for it.
type Joiner interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
}

// Connection is the playback engine of one voice connection. It plays a
// single track at a time; the queue itself is kept by the Session.
//
// Play must not block on network work. When playback of t ends on its own
// (end of stream or failure) the engine calls done exactly once from a
// goroutine of its own; playback cut short by Stop or a later Play may
// skip the call.
type Connection interface {
	ChannelID() string
	Play(ctx context.Context, t Track, done func(error)) error
	Pause() error
	Resume() error
	Stop() error
	Close(ctx context.Context) error
}

// Resolver turns a URL or search query into track metadata. Failures should
// be *ResolutionError so callers can tell removed sources apart.
type Resolver interface {
	Resolve(ctx context.Context, locator string, direct bool) (Metadata, error)
}

type PlaylistFetcher interface {
	Fetch(ctx context.Context, locator string) (Playlist, error)
}

type ResolverFunc func(ctx context.Context, locator string, direct bool) (Metadata, error)

func (f ResolverFunc) Resolve(ctx context.Context, locator string, direct bool) (Metadata, error) {
	return f(ctx, locator, direct)
}

type FetcherFunc func(ctx context.Context, locator string) (Playlist, error)

func (f FetcherFunc) Fetch(ctx context.Context, locator string) (Playlist, error) {
	return f(ctx, locator)
}
