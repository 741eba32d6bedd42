package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"
	"github.com/sonroyaalmerol/jukebot/internal/config"
	"github.com/sonroyaalmerol/jukebot/internal/player"
	"golang.org/x/time/rate"
)

const (
	audioFormat  = "ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best"
	searchPrefix = "ytsearch1:"
)

var installOnce sync.Once

// YTDLP resolves tracks, fetches playlists and looks up media URLs through
// yt-dlp. All invocations share one rate limiter.
type YTDLP struct {
	cfg     *config.Config
	limiter *rate.Limiter
}

func NewYTDLP(cfg *config.Config) *YTDLP {
	limit := rate.Inf
	if cfg.ResolveRate > 0 {
		limit = rate.Limit(cfg.ResolveRate)
	}
	return &YTDLP{cfg: cfg, limiter: rate.NewLimiter(limit, 1)}
}

// info is the subset of yt-dlp's JSON the bot cares about.
type info struct {
	ID         string
	Title      string
	Duration   float64
	WebpageURL string
	URL        string
	Formats    []string // requested formats first, then the rest
	Entries    []*info
}

func str(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func num(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}

func toInfo(e *ytdlp.ExtractedInfo) *info {
	if e == nil {
		return nil
	}
	out := &info{
		ID:         e.ID,
		Title:      str(e.Title),
		Duration:   num(e.Duration),
		WebpageURL: str(e.WebpageURL),
		URL:        str(e.URL),
	}
	for _, f := range e.RequestedFormats {
		if f != nil {
			out.Formats = append(out.Formats, f.URL)
		}
	}
	for _, f := range e.Formats {
		if f != nil {
			out.Formats = append(out.Formats, f.URL)
		}
	}
	if len(e.Entries) > 0 {
		out.Entries = make([]*info, len(e.Entries))
		for i, child := range e.Entries {
			out.Entries[i] = toInfo(child)
		}
	}
	return out
}

// first returns the item itself, or the first entry of a search container.
func (i *info) first() *info {
	if len(i.Entries) == 0 {
		return i
	}
	for _, e := range i.Entries {
		if e != nil {
			return e
		}
	}
	return nil
}

func (i *info) metadata(fallback string) player.Metadata {
	src := i.WebpageURL
	if src == "" {
		src = fallback
	}
	return player.Metadata{
		Title:     i.Title,
		SourceURL: src,
		Duration:  seconds(i.Duration),
	}
}

// audioURL picks the first direct http(s) URL, preferring requested formats.
func (i *info) audioURL() string {
	for _, u := range i.Formats {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	if strings.HasPrefix(i.URL, "http") {
		return i.URL
	}
	return ""
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// command builds the shared base invocation: cookies and the YouTube
// extractor arguments.
func (y *YTDLP) command(target string) *ytdlp.Command {
	cmd := ytdlp.New().NoCheckCertificates()
	if y.cfg.YouTubeCookiesPath != "" {
		cmd = cmd.Cookies(y.cfg.YouTubeCookiesPath)
	}
	if isYouTube(target) || strings.HasPrefix(target, searchPrefix) {
		extractorArgs := "youtube:player-client=default,mweb"
		if y.cfg.YouTubePOToken != "" {
			extractorArgs += ";po_token=" + y.cfg.YouTubePOToken
		}
		cmd = cmd.ExtractorArgs(extractorArgs)
	}
	return cmd
}

func (y *YTDLP) run(ctx context.Context, cmd *ytdlp.Command, target string) (*info, error) {
	installOnce.Do(func() {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			slog.Warn("yt-dlp install check failed", "err", err)
		}
	})
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	slog.Debug("running yt-dlp", "target", target)
	res, err := cmd.Run(ctx, target)
	if err != nil {
		re := &runError{err: err}
		if res != nil {
			re.stderr = res.Stderr
		}
		return nil, re
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, ErrNoResults
	}
	return toInfo(infos[0]), nil
}

// Resolve looks up metadata for a URL, or for the first search hit when
// direct is false.
func (y *YTDLP) Resolve(ctx context.Context, locator string, direct bool) (player.Metadata, error) {
	target := locator
	if !direct {
		target = searchPrefix + locator
	}

	in, err := y.run(ctx, y.command(target).Format(audioFormat).NoPlaylist().DumpJSON(), target)
	if err == nil {
		if in = in.first(); in == nil {
			err = ErrNoResults
		}
	}
	if err != nil {
		return player.Metadata{}, &player.ResolutionError{Locator: locator, Reason: classify(err), Err: err}
	}

	fallback := ""
	if direct {
		fallback = locator
	}
	return in.metadata(fallback), nil
}

// MediaURL returns a direct audio URL for a resolved source, plus the HTTP
// headers the host expects.
func (y *YTDLP) MediaURL(ctx context.Context, source string) (string, map[string]string, error) {
	in, err := y.run(ctx, y.command(source).Format(audioFormat).NoPlaylist().DumpJSON(), source)
	if err != nil {
		return "", nil, &player.ResolutionError{Locator: source, Reason: classify(err), Err: err}
	}
	if in = in.first(); in == nil {
		return "", nil, &player.ResolutionError{Locator: source, Err: ErrNoResults}
	}
	u := in.audioURL()
	if u == "" {
		return "", nil, &player.ResolutionError{Locator: source, Err: fmt.Errorf("no playable audio format")}
	}

	headers := map[string]string{}
	if isYouTube(source) {
		headers["Referer"] = "https://www.youtube.com/"
		headers["Origin"] = "https://www.youtube.com"
	}
	return u, headers, nil
}
