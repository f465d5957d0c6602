package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"phimtoc/models"
)

// The remote API returns at least three structurally different list shapes:
// items at the top level (v2/v3 endpoints), items nested under data (v1
// endpoints), and the bare taxonomy arrays. listEnvelope accepts all of them
// so the skew is absorbed here once.
type listEnvelope struct {
	Items []wireItem `json:"items"`
	Data  *struct {
		Items      []wireItem `json:"items"`
		Pagination *struct {
			TotalItems  int `json:"totalItems"`
			TotalPages  int `json:"totalPages"`
			CurrentPage int `json:"currentPage"`
		} `json:"pagination"`
	} `json:"data"`
}

func (e listEnvelope) allItems() []wireItem {
	if e.Data != nil && len(e.Data.Items) > 0 {
		return e.Data.Items
	}
	return e.Items
}

type detailEnvelope struct {
	Status   bool         `json:"status"`
	Msg      string       `json:"msg"`
	Movie    *wireMovie   `json:"movie"`
	Episodes []wireServer `json:"episodes"`
}

type wireTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type wireItem struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	OriginName string    `json:"origin_name"`
	Year       flexValue `json:"year"`
	PosterURL  string    `json:"poster_url"`
	ThumbURL   string    `json:"thumb_url"`
	Category   []wireTag `json:"category"`
	Country    []wireTag `json:"country"`
	TMDB       *struct {
		VoteAverage float64 `json:"vote_average"`
	} `json:"tmdb"`
}

type wireMovie struct {
	wireItem
	Content  string      `json:"content"`
	Actor    []string    `json:"actor"`
	Director flexStrings `json:"director"`
	Time     string      `json:"time"`
	Quality  string      `json:"quality"`
	CoverURL string      `json:"cover_url"`
}

type wireServer struct {
	ServerName string        `json:"server_name"`
	ServerData []wireEpisode `json:"server_data"`
}

type wireEpisode struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	LinkEmbed string `json:"link_embed"`
	LinkM3U8  string `json:"link_m3u8"`
}

// flexValue tolerates fields the API serves as either a string or a number
// (year, notably).
type flexValue string

func (f *flexValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Unknown shape; degrade to empty rather than failing the whole
		// response.
		*f = ""
		return nil
	}
	*f = flexValue(n.String())
	return nil
}

// flexStrings tolerates fields served as either a string or a string array.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*f = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if strings.TrimSpace(one) == "" {
			*f = nil
			return nil
		}
		*f = []string{one}
		return nil
	}
	*f = nil
	return nil
}

func tagNames(tags []wireTag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

func (c *Client) mapItem(w wireItem) models.CatalogItem {
	id := strings.TrimSpace(w.Slug)
	if id == "" {
		id = strings.TrimSpace(w.ID)
	}

	item := models.CatalogItem{
		ID:            id,
		Title:         strings.TrimSpace(w.Name),
		OriginalTitle: strings.TrimSpace(w.OriginName),
		Year:          string(w.Year),
		Genres:        tagNames(w.Category),
		CountryTags:   dedupe(tagNames(w.Country)),
	}

	poster := w.PosterURL
	if strings.TrimSpace(poster) == "" {
		poster = w.ThumbURL
	}
	item.PosterURL = c.NormalizeImageURL(poster)
	item.BackdropURL = c.NormalizeImageURL(w.ThumbURL)

	if w.TMDB != nil {
		item.Rating = w.TMDB.VoteAverage
	}
	return item
}

func (c *Client) mapItems(items []wireItem) []models.CatalogItem {
	if len(items) == 0 {
		return nil
	}
	mapped := make([]models.CatalogItem, len(items))
	for i, w := range items {
		mapped[i] = c.mapItem(w)
	}
	return mapped
}

func (c *Client) mapDetail(payload detailEnvelope) *models.CatalogDetail {
	m := payload.Movie
	detail := &models.CatalogDetail{
		CatalogItem:   c.mapItem(m.wireItem),
		Description:   strings.TrimSpace(m.Content),
		Cast:          cleanNames(m.Actor),
		DurationLabel: strings.TrimSpace(m.Time),
		QualityLabel:  strings.TrimSpace(m.Quality),
	}
	if directors := cleanNames(m.Director); len(directors) > 0 {
		detail.Director = strings.Join(directors, ", ")
	}

	detail.Servers = make([]models.Server, 0, len(payload.Episodes))
	for i, srv := range payload.Episodes {
		name := strings.TrimSpace(srv.ServerName)
		if name == "" {
			name = fmt.Sprintf("Server %d", i+1)
		}
		server := models.Server{Name: name, Episodes: make([]models.Episode, 0, len(srv.ServerData))}
		for _, ep := range srv.ServerData {
			label := strings.TrimSpace(ep.Name)
			if label == "" {
				label = "Tập " + strings.TrimSpace(ep.Slug)
			}
			server.Episodes = append(server.Episodes, models.Episode{
				Label:    label,
				EmbedURL: strings.TrimSpace(ep.LinkEmbed),
				HLSURL:   strings.TrimSpace(ep.LinkM3U8),
			})
		}
		detail.Servers = append(detail.Servers, server)
	}
	return detail
}

func cleanNames(values []string) []string {
	names := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
