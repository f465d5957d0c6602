package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phimtoc/models"
)

// fakeLoader is a scriptable ManifestLoader; tests assert on destroy and
// level calls to check teardown discipline.
type fakeLoader struct {
	mu        sync.Mutex
	levels    []Level
	errs      []error
	loadCalls int
	setLevels []int
	destroyed bool
}

func (f *fakeLoader) Load(_ context.Context, _ string) ([]Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.levels, nil
}

func (f *fakeLoader) SetLevel(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLevels = append(f.setLevels, index)
}

func (f *fakeLoader) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
}

// loaderSpy hands out fakeLoaders in sequence and remembers them.
type loaderSpy struct {
	mu      sync.Mutex
	scripts []*fakeLoader
	handed  []*fakeLoader
}

func (s *loaderSpy) factory() ManifestLoader {
	s.mu.Lock()
	defer s.mu.Unlock()
	var l *fakeLoader
	if len(s.scripts) > 0 {
		l = s.scripts[0]
		s.scripts = s.scripts[1:]
	} else {
		l = &fakeLoader{}
	}
	s.handed = append(s.handed, l)
	return l
}

func hlsDetail(hlsURL string) models.CatalogDetail {
	return models.CatalogDetail{
		CatalogItem: models.CatalogItem{ID: "phim-mot", Title: "Phim Một"},
		Servers: []models.Server{{
			Name:     "Server 1",
			Episodes: []models.Episode{{Label: "Tập 01", HLSURL: hlsURL}},
		}},
	}
}

func threeLevels() []Level {
	return []Level{
		{Index: 0, Bandwidth: 800_000, Height: 360},
		{Index: 1, Bandwidth: 2_000_000, Height: 720},
		{Index: 2, Bandwidth: 5_000_000, Height: 1080},
	}
}

func TestSourceClassification(t *testing.T) {
	cases := []struct {
		name     string
		episode  models.Episode
		wantKind SourceKind
	}{
		{"plain m3u8", models.Episode{HLSURL: "https://cdn.example/x/index.m3u8"}, SourceHLS},
		{"m3u8 with query", models.Episode{HLSURL: "https://cdn.example/x/index.m3u8?token=abc"}, SourceHLS},
		{"m3u8 with fragment", models.Episode{HLSURL: "https://cdn.example/x/index.m3u8#frag"}, SourceHLS},
		{"uppercase suffix", models.Episode{HLSURL: "https://cdn.example/x/INDEX.M3U8"}, SourceHLS},
		{"protocol relative", models.Episode{HLSURL: "//cdn.example/x/index.m3u8"}, SourceHLS},
		{"embedded whitespace", models.Episode{HLSURL: " https://cdn.example/x/ index.m3u8 "}, SourceHLS},
		{"mp4 is not hls", models.Episode{HLSURL: "https://cdn.example/x/video.mp4"}, SourceNone},
		{"embed host is not hls", models.Episode{EmbedURL: "https://www.youtube.com/embed/abc"}, SourceEmbed},
		{"mp4 hls falls through to embed", models.Episode{HLSURL: "https://cdn.example/v.mp4", EmbedURL: "https://player.example/e/abc"}, SourceEmbed},
		{"hls preferred over embed", models.Episode{HLSURL: "https://cdn.example/i.m3u8", EmbedURL: "https://player.example/e/abc"}, SourceHLS},
		{"neither", models.Episode{}, SourceNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, url := classifyEpisode(tc.episode)
			assert.Equal(t, tc.wantKind, kind)
			if tc.wantKind == SourceHLS {
				assert.True(t, IsHLSURL(url))
				assert.NotContains(t, url, " ")
			}
		})
	}
}

func TestSourcelessEpisodeIsUnplayableWithoutAttaching(t *testing.T) {
	detail := models.CatalogDetail{
		CatalogItem: models.CatalogItem{ID: "phim-mot"},
		Servers: []models.Server{{
			Name:     "Server 1",
			Episodes: []models.Episode{{Label: "Tập 01"}},
		}},
	}
	spy := &loaderSpy{}
	r := NewResolver(detail, Options{Loaders: spy.factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	assert.Equal(t, StateUnplayable, r.State())

	// Starting from the unplayable terminal is rejected and never attaches.
	require.Error(t, r.Start(context.Background()))
	assert.Equal(t, StateUnplayable, r.State())
	assert.Empty(t, spy.handed)
}

func TestAttachDefaultsToHighestLevel(t *testing.T) {
	spy := &loaderSpy{scripts: []*fakeLoader{{levels: threeLevels()}}}
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: spy.factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))

	snap := r.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, SourceHLS, snap.Kind)
	assert.Equal(t, 2, snap.Selection.CurrentLevel)
	require.Len(t, spy.handed, 1)
	assert.Equal(t, []int{2}, spy.handed[0].setLevels)
}

func TestNativeHLSPlaysOptimistically(t *testing.T) {
	spy := &loaderSpy{}
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: spy.factory, NativeHLS: true})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))

	assert.Equal(t, StatePlaying, r.State())
	assert.Empty(t, spy.handed, "native support must not touch the manifest loader")
}

func TestManifestLoadRetriesOnceAtAutomaticQuality(t *testing.T) {
	boom := errors.New("manifest fetch failed")
	spy := &loaderSpy{scripts: []*fakeLoader{
		{errs: []error{boom}},
		{levels: threeLevels()},
	}}
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: spy.factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))

	snap := r.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	// The retry runs degraded: automatic quality, no explicit level push.
	assert.Equal(t, -1, snap.Selection.CurrentLevel)
	require.Len(t, spy.handed, 2)
	assert.True(t, spy.handed[0].destroyed)
	assert.Empty(t, spy.handed[1].setLevels)
}

func TestManifestLoadFailsAfterSingleRetry(t *testing.T) {
	boom := errors.New("manifest fetch failed")
	spy := &loaderSpy{scripts: []*fakeLoader{
		{errs: []error{boom}},
		{errs: []error{boom}},
	}}
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: spy.factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	err := r.Start(context.Background())
	require.ErrorIs(t, err, boom)

	snap := r.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.NotEmpty(t, snap.Error)
	assert.Len(t, spy.handed, 2, "exactly one retry, not an unbounded loop")
	assert.True(t, spy.handed[0].destroyed)
	assert.True(t, spy.handed[1].destroyed)
}

func TestFatalErrorDegradesThenFails(t *testing.T) {
	spy := &loaderSpy{scripts: []*fakeLoader{{levels: threeLevels()}}}
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: spy.factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))

	r.OnFatalError(errors.New("buffer stalled"))
	snap := r.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, -1, snap.Selection.CurrentLevel)
	assert.Equal(t, []int{2, -1}, spy.handed[0].setLevels)

	r.OnFatalError(errors.New("buffer stalled again"))
	assert.Equal(t, StateFailed, r.State())
}

func TestEmbedWatchdogFailsWithExternalEscapeHatch(t *testing.T) {
	detail := models.CatalogDetail{
		CatalogItem: models.CatalogItem{ID: "phim-mot"},
		Servers: []models.Server{{
			Name: "Server 1",
			Episodes: []models.Episode{{
				Label:    "Tập 01",
				EmbedURL: "https://www.youtube.com/watch?v=abc123",
			}},
		}},
	}
	r := NewResolver(detail, Options{EmbedTimeout: 20 * time.Millisecond})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, StatePlaying, r.State())

	require.Eventually(t, func() bool { return r.State() == StateFailed }, time.Second, 5*time.Millisecond)

	snap := r.Snapshot()
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", snap.ExternalURL)
	assert.Empty(t, snap.Alternates, "sole source has no alternates")
}

func TestEmbedLoadedDisarmsWatchdog(t *testing.T) {
	detail := models.CatalogDetail{
		Servers: []models.Server{{
			Episodes: []models.Episode{{EmbedURL: "https://player.example/e/abc"}},
		}},
	}
	r := NewResolver(detail, Options{EmbedTimeout: 20 * time.Millisecond})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))
	r.EmbedLoaded()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, StatePlaying, r.State())
}

func TestSwitchKindTearsDownLoader(t *testing.T) {
	detail := models.CatalogDetail{
		Servers: []models.Server{{
			Episodes: []models.Episode{{
				HLSURL:   "https://cdn.example/x/index.m3u8",
				EmbedURL: "https://player.example/e/abc",
			}},
		}},
	}
	spy := &loaderSpy{scripts: []*fakeLoader{{levels: threeLevels()}}}
	r := NewResolver(detail, Options{Loaders: spy.factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))
	require.Len(t, spy.handed, 1)

	require.NoError(t, r.SwitchKind())
	assert.True(t, spy.handed[0].destroyed, "loader must be destroyed, not leaked, on switch")

	snap := r.Snapshot()
	assert.Equal(t, StateSourceChosen, snap.State)
	assert.Equal(t, SourceEmbed, snap.Kind)
	assert.Empty(t, snap.Levels)
}

func TestSwitchKindWithoutAlternateSourceErrors(t *testing.T) {
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: (&loaderSpy{}).factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.ErrorIs(t, r.SwitchKind(), ErrNoAlternateSource)
}

func TestSelectOutOfRangeFallsBackToFirstPair(t *testing.T) {
	detail := models.CatalogDetail{
		Servers: []models.Server{
			{Episodes: []models.Episode{{HLSURL: "https://cdn.example/a.m3u8"}}},
			{Episodes: []models.Episode{{HLSURL: "https://cdn.example/b.m3u8"}}},
		},
	}
	r := NewResolver(detail, Options{Loaders: (&loaderSpy{}).factory})
	defer r.Close()

	require.NoError(t, r.Select(9, 9))
	snap := r.Snapshot()
	assert.Equal(t, 0, snap.Selection.ServerIndex)
	assert.Equal(t, 0, snap.Selection.EpisodeIndex)
	assert.Equal(t, StateSourceChosen, snap.State)
}

func TestAlternativesListOtherPlayablePairs(t *testing.T) {
	detail := models.CatalogDetail{
		Servers: []models.Server{
			{Episodes: []models.Episode{
				{HLSURL: "https://cdn.example/a.m3u8"},
				{}, // source-less, excluded
			}},
			{Episodes: []models.Episode{
				{EmbedURL: "https://player.example/e/x"},
			}},
		},
	}
	r := NewResolver(detail, Options{Loaders: (&loaderSpy{}).factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	alts := r.Alternatives()
	require.Len(t, alts, 1)
	assert.Equal(t, 1, alts[0].ServerIndex)
	assert.Equal(t, 0, alts[0].EpisodeIndex)
}

func TestRetryFromFailedRearmsSamePair(t *testing.T) {
	boom := errors.New("down")
	spy := &loaderSpy{scripts: []*fakeLoader{
		{errs: []error{boom}},
		{errs: []error{boom}},
		{levels: threeLevels()},
	}}
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: spy.factory})
	defer r.Close()

	require.NoError(t, r.Select(0, 0))
	require.Error(t, r.Start(context.Background()))
	require.Equal(t, StateFailed, r.State())

	require.NoError(t, r.Retry())
	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, StatePlaying, r.State())
}

func TestCloseDestroysActiveLoader(t *testing.T) {
	spy := &loaderSpy{scripts: []*fakeLoader{{levels: threeLevels()}}}
	r := NewResolver(hlsDetail("https://cdn.example/x/index.m3u8"), Options{Loaders: spy.factory})

	require.NoError(t, r.Select(0, 0))
	require.NoError(t, r.Start(context.Background()))
	r.Close()

	assert.True(t, spy.handed[0].destroyed)
	assert.Equal(t, StateIdle, r.State())
}
