package utils

import (
	"fmt"
	"math/rand/v2"
	"net/textproto"
	"slices"
	"strings"
)

// Chrome major versions a desktop user agent is drawn from.
const (
	minChromeMajor = 132
	maxChromeMajor = 138
)

func RandomUserAgent() string {
	major := minChromeMajor + rand.IntN(maxChromeMajor-minChromeMajor+1)
	return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", major)
}

var defaultMediaHeaders = map[string]func() string{
	"User-Agent":      RandomUserAgent,
	"Accept":          func() string { return "*/*" },
	"Accept-Language": func() string { return "en-US,en;q=0.9" },
}

// BuildFFmpegHeaders renders the request headers yt-dlp reported for a
// media URL as ffmpeg's -headers value: canonical keys, sorted, each line
// CRLF terminated. Missing browser defaults are filled in. Nil or empty
// input yields "".
func BuildFFmpegHeaders(base map[string]string) string {
	if len(base) == 0 {
		return ""
	}
	h := make(map[string]string, len(base)+len(defaultMediaHeaders))
	for k, v := range base {
		k = textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		h[k] = strings.TrimSpace(v)
	}
	for k, def := range defaultMediaHeaders {
		if _, ok := h[k]; !ok {
			h[k] = def()
		}
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, h[k])
	}
	return b.String()
}
