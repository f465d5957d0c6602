package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeImageURL(t *testing.T) {
	client := NewClient("https://phimapi.com", nil)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "host relative path resolves against image host and proxies",
			in:   "/upload/vod/poster.jpg",
			want: "https://phimapi.com/image.php?url=" + "https%3A%2F%2Fphimimg.com%2Fupload%2Fvod%2Fposter.jpg",
		},
		{
			name: "bare relative path",
			in:   "upload/vod/poster.jpg",
			want: "https://phimapi.com/image.php?url=" + "https%3A%2F%2Fphimimg.com%2Fupload%2Fvod%2Fposter.jpg",
		},
		{
			name: "protocol relative third-party host left unproxied",
			in:   "//cdn.example.com/a.jpg",
			want: "https://cdn.example.com/a.jpg",
		},
		{
			name: "absolute catalog host gets proxied",
			in:   "https://phimimg.com/a.jpg",
			want: "https://phimapi.com/image.php?url=https%3A%2F%2Fphimimg.com%2Fa.jpg",
		},
		{
			name: "absolute third-party host untouched",
			in:   "https://image.tmdb.org/t/p/w500/x.jpg",
			want: "https://image.tmdb.org/t/p/w500/x.jpg",
		},
		{
			name: "whitespace trimmed",
			in:   "  https://cdn.example.com/a.jpg  ",
			want: "https://cdn.example.com/a.jpg",
		},
		{
			name: "empty stays empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, client.NormalizeImageURL(tc.in))
		})
	}
}

func TestNormalizeImageURLIdempotent(t *testing.T) {
	client := NewClient("https://phimapi.com", nil)

	inputs := []string{
		"/upload/vod/poster.jpg",
		"upload/vod/poster.jpg",
		"//phimimg.com/a.jpg",
		"https://phimimg.com/a.jpg",
		"https://image.tmdb.org/t/p/w500/x.jpg",
		"not a url at all %%%",
		"",
	}
	for _, in := range inputs {
		once := client.NormalizeImageURL(in)
		twice := client.NormalizeImageURL(once)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestNormalizeImageURLMalformedInputDoesNotPanic(t *testing.T) {
	client := NewClient("https://phimapi.com", nil)
	assert.NotPanics(t, func() {
		_ = client.NormalizeImageURL("http://exa mple.com/%zz")
		_ = client.NormalizeImageURL("://nope")
	})
}
