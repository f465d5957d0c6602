package playback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrBadManifest means the fetched document is not an HLS playlist.
	ErrBadManifest = errors.New("not an hls manifest")

	// ErrLoaderDestroyed means Load was called after Destroy.
	ErrLoaderDestroyed = errors.New("manifest loader destroyed")
)

// Level is one quality variant advertised by a master playlist. Levels are
// ordered ascending by bandwidth, so the highest index is the best quality.
type Level struct {
	Index     int    `json:"index"`
	Bandwidth int    `json:"bandwidth"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	URL       string `json:"url"`
}

// Label renders a level the way players list it, preferring resolution over
// raw bandwidth.
func (l Level) Label() string {
	if l.Height > 0 {
		return fmt.Sprintf("%dp", l.Height)
	}
	if l.Bandwidth > 0 {
		return fmt.Sprintf("%d kbps", l.Bandwidth/1000)
	}
	return "default"
}

// ManifestLoader fetches and parses an HLS manifest and tracks the selected
// quality level. A loader instance is owned by exactly one playback attempt
// and must be destroyed, not just dropped, before the next attempt creates a
// new one.
type ManifestLoader interface {
	Load(ctx context.Context, manifestURL string) ([]Level, error)
	SetLevel(index int)
	Destroy()
}

// LoaderFactory builds a fresh loader per attach attempt.
type LoaderFactory func() ManifestLoader

// httpLoader is the default ManifestLoader: a plain HTTP fetch plus a master
// playlist parser.
type httpLoader struct {
	httpc     *http.Client
	destroyed bool
	level     int
}

// NewHTTPLoaderFactory returns a factory producing loaders backed by the
// given HTTP client (http.DefaultClient when nil).
func NewHTTPLoaderFactory(httpc *http.Client) LoaderFactory {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return func() ManifestLoader {
		return &httpLoader{httpc: httpc, level: -1}
	}
}

func (l *httpLoader) Load(ctx context.Context, manifestURL string) ([]Level, error) {
	if l.destroyed {
		return nil, ErrLoaderDestroyed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}
	resp, err := l.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: unexpected status %d", resp.StatusCode)
	}

	levels, err := parseMasterPlaylist(resp.Body, manifestURL)
	if err != nil {
		return nil, err
	}
	return levels, nil
}

func (l *httpLoader) SetLevel(index int) {
	if l.destroyed {
		return
	}
	l.level = index
}

func (l *httpLoader) Destroy() {
	l.destroyed = true
}

// parseMasterPlaylist extracts quality variants from a master playlist. A
// media playlist (no #EXT-X-STREAM-INF tags) yields a single level pointing
// at the playlist itself.
func parseMasterPlaylist(r io.Reader, manifestURL string) ([]Level, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		sawHeader bool
		pending   *Level
		levels    []Level
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !sawHeader {
			if !strings.HasPrefix(line, "#EXTM3U") {
				return nil, ErrBadManifest
			}
			sawHeader = true
			continue
		}

		if strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			lvl := parseStreamInf(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			pending = &lvl
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if pending != nil {
			pending.URL = resolveVariantURL(manifestURL, line)
			levels = append(levels, *pending)
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if !sawHeader {
		return nil, ErrBadManifest
	}

	if len(levels) == 0 {
		return []Level{{Index: 0, URL: manifestURL}}, nil
	}

	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Bandwidth < levels[j].Bandwidth
	})
	for i := range levels {
		levels[i].Index = i
	}
	return levels, nil
}

func parseStreamInf(attrs string) Level {
	var lvl Level
	for _, attr := range splitAttributes(attrs) {
		key, value, ok := strings.Cut(attr, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "BANDWIDTH":
			lvl.Bandwidth, _ = strconv.Atoi(value)
		case "RESOLUTION":
			if w, h, ok := strings.Cut(value, "x"); ok {
				lvl.Width, _ = strconv.Atoi(w)
				lvl.Height, _ = strconv.Atoi(h)
			}
		}
	}
	return lvl
}

// splitAttributes splits a playlist attribute list on commas outside quotes
// (CODECS values contain commas).
func splitAttributes(s string) []string {
	var (
		parts    []string
		start    int
		inQuotes bool
	)
	for i, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func resolveVariantURL(manifestURL, variant string) string {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return variant
	}
	ref, err := url.Parse(variant)
	if err != nil {
		return variant
	}
	return base.ResolveReference(ref).String()
}
