package playback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=2000000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2"
720/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080
https://cdn.example/abs/1080/index.m3u8
`

func TestParseMasterPlaylistSortsAscendingByBandwidth(t *testing.T) {
	levels, err := parseMasterPlaylist(strings.NewReader(masterPlaylist), "https://cdn.example/v/index.m3u8")
	require.NoError(t, err)
	require.Len(t, levels, 3)

	assert.Equal(t, []int{800000, 2000000, 5000000}, []int{levels[0].Bandwidth, levels[1].Bandwidth, levels[2].Bandwidth})
	assert.Equal(t, []int{0, 1, 2}, []int{levels[0].Index, levels[1].Index, levels[2].Index})

	// Highest index is the best quality.
	assert.Equal(t, 1080, levels[2].Height)
	assert.Equal(t, "1080p", levels[2].Label())

	// Relative variant URIs resolve against the manifest URL.
	assert.Equal(t, "https://cdn.example/v/360/index.m3u8", levels[0].URL)
	assert.Equal(t, "https://cdn.example/abs/1080/index.m3u8", levels[2].URL)
}

func TestParseMediaPlaylistYieldsSingleLevel(t *testing.T) {
	media := "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:6.0,\nseg0.ts\n"
	levels, err := parseMasterPlaylist(strings.NewReader(media), "https://cdn.example/v/index.m3u8")
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "https://cdn.example/v/index.m3u8", levels[0].URL)
	assert.Equal(t, "default", levels[0].Label())
}

func TestParseRejectsNonManifest(t *testing.T) {
	_, err := parseMasterPlaylist(strings.NewReader("<html>not a playlist</html>"), "https://cdn.example/x")
	require.ErrorIs(t, err, ErrBadManifest)
}

func TestHTTPLoaderFetchesAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(masterPlaylist))
	}))
	defer srv.Close()

	loader := NewHTTPLoaderFactory(srv.Client())()
	levels, err := loader.Load(context.Background(), srv.URL+"/v/index.m3u8")
	require.NoError(t, err)
	assert.Len(t, levels, 3)

	loader.Destroy()
	_, err = loader.Load(context.Background(), srv.URL+"/v/index.m3u8")
	require.ErrorIs(t, err, ErrLoaderDestroyed)
}

func TestHTTPLoaderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	loader := NewHTTPLoaderFactory(srv.Client())()
	_, err := loader.Load(context.Background(), srv.URL+"/v/index.m3u8")
	require.Error(t, err)
}
