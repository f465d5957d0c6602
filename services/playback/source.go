package playback

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// SourceKind classifies how a candidate source URL is played.
type SourceKind string

const (
	SourceHLS   SourceKind = "hls"
	SourceEmbed SourceKind = "embed"
	SourceNone  SourceKind = "none"
)

// hlsSuffixPattern matches a .m3u8 suffix, optionally followed by a query
// string or fragment. Classification is suffix-only; content types are never
// sniffed.
var hlsSuffixPattern = regexp.MustCompile(`(?i)\.m3u8($|[?#])`)

// NormalizeSourceURL strips whitespace from a source URL (templating and
// copy/paste artifacts show up in upstream data), resolves protocol-relative
// URLs to https, and upgrades plain http. Manifests are never fetched over
// unencrypted transport.
func NormalizeSourceURL(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(cleaned, "//"):
		cleaned = "https:" + cleaned
	case strings.HasPrefix(strings.ToLower(cleaned), "http://"):
		cleaned = "https://" + cleaned[len("http://"):]
	}
	return cleaned
}

// IsHLSURL reports whether the URL names an HLS manifest.
func IsHLSURL(raw string) bool {
	return hlsSuffixPattern.MatchString(NormalizeSourceURL(raw))
}

func containsHost(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Contains(rawURL, host)
	}
	h := u.Hostname()
	return h == host || strings.HasSuffix(h, "."+host)
}
