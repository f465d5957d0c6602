package models

import "strings"

// CatalogItem is one normalized movie/show record as shown in a browsing list.
// It is built once at the API boundary; downstream code never sees raw
// response shapes.
type CatalogItem struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"originalTitle,omitempty"`
	PosterURL     string   `json:"posterUrl,omitempty"`
	BackdropURL   string   `json:"backdropUrl,omitempty"`
	Year          string   `json:"year,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	CountryTags   []string `json:"countryTags,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
}

// CatalogDetail extends CatalogItem with the fields only the detail endpoint
// returns, including the server/episode source tree used for playback.
type CatalogDetail struct {
	CatalogItem
	Description   string   `json:"description,omitempty"`
	Cast          []string `json:"cast,omitempty"`
	Director      string   `json:"director,omitempty"`
	DurationLabel string   `json:"durationLabel,omitempty"`
	QualityLabel  string   `json:"qualityLabel,omitempty"`
	Servers       []Server `json:"servers"`
}

// Server is a named grouping of alternate source links for an item
// (a "mirror" or provider).
type Server struct {
	Name     string    `json:"name"`
	Episodes []Episode `json:"episodes"`
}

// Episode is one playable unit within a server. A single-movie item has
// exactly one episode. An episode with neither URL is source-less and must
// surface as unplayable rather than fail silently.
type Episode struct {
	Label    string `json:"label"`
	EmbedURL string `json:"embedUrl,omitempty"`
	HLSURL   string `json:"hlsUrl,omitempty"`
}

// Playable reports whether the episode carries at least one candidate source.
func (e Episode) Playable() bool {
	return strings.TrimSpace(e.EmbedURL) != "" || strings.TrimSpace(e.HLSURL) != ""
}

// Genre is one entry of the remote genre taxonomy.
type Genre struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Country is one entry of the remote country taxonomy.
type Country struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
