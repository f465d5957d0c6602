package trailers

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phimtoc/internal/localstore"
)

func newTestService(t *testing.T, fsys afero.Fs) *Service {
	t.Helper()
	store, err := localstore.Open(fsys, "/data")
	require.NoError(t, err)
	return NewService(store)
}

func TestLookupKnownTitle(t *testing.T) {
	svc := newTestService(t, afero.NewMemMapFs())

	id, ok := svc.Lookup("The Batman", "2022")
	require.True(t, ok)
	assert.Equal(t, "mqqft2x_Aa4", id)
}

func TestLookupMatchesAccentedTitles(t *testing.T) {
	svc := newTestService(t, afero.NewMemMapFs())

	id, ok := svc.Lookup("Thám Tử Lừng Danh Conan", "2024")
	require.True(t, ok)
	assert.Equal(t, "qW3_w8zQqQs", id)

	// Franchise fallback for titles not in the curated table.
	id, ok = svc.Lookup("Conan: Một Tập Phim Nào Đó", "2025")
	require.True(t, ok)
	assert.Equal(t, "qW3_w8zQqQs", id)
}

func TestLookupUnknownTitleIsNegativelyCached(t *testing.T) {
	svc := newTestService(t, afero.NewMemMapFs())

	_, ok := svc.Lookup("Some Obscure Film", "1999")
	assert.False(t, ok)

	cache := localstore.Read(svc.store, cacheKey, map[string]string{})
	cached, hit := cache["some obscure film_1999"]
	require.True(t, hit, "miss must be cached to avoid repeat searches")
	assert.Empty(t, cached)
}

func TestLookupCacheSurvivesReload(t *testing.T) {
	fsys := afero.NewMemMapFs()

	svc := newTestService(t, fsys)
	id, ok := svc.Lookup("Dune", "2021")
	require.True(t, ok)

	reloaded := newTestService(t, fsys)
	again, ok := reloaded.Lookup("Dune", "2021")
	require.True(t, ok)
	assert.Equal(t, id, again)
}

func TestURLBuilders(t *testing.T) {
	svc := newTestService(t, afero.NewMemMapFs())
	assert.Equal(t, "https://www.youtube.com/embed/abc?autoplay=0&rel=0&modestbranding=1", svc.EmbedURL("abc"))
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", svc.WatchURL("abc"))
}
