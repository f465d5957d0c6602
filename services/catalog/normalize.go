package catalog

import (
	"net/url"
	"strings"
)

const (
	// imageHostURL is where the catalog's own artwork lives; host-relative
	// image paths in responses resolve against it.
	imageHostURL = "https://phimimg.com"

	// imageProxyPath converts catalog-hosted artwork to a smaller
	// browser-friendly encoding. Third-party artwork is left untouched.
	imageProxyPath = "/image.php"
)

// NormalizeImageURL resolves protocol-relative and host-relative image paths
// to absolute URLs and routes catalog-hosted images through the conversion
// proxy. It is pure and total: malformed input degrades to the best-effort
// absolute URL, and applying it twice is a no-op beyond the first
// application.
func (c *Client) NormalizeImageURL(raw string) string {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(normalized, "//"):
		normalized = "https:" + normalized
	case strings.HasPrefix(normalized, "/"):
		normalized = imageHostURL + normalized
	case !hasHTTPScheme(normalized):
		// Bare relative path like "upload/vod/...".
		normalized = imageHostURL + "/" + normalized
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	if strings.Contains(u.Hostname(), "phimimg") {
		return c.toProxy(u.String())
	}
	return u.String()
}

func (c *Client) toProxy(imageURL string) string {
	return c.baseURL + imageProxyPath + "?url=" + url.QueryEscape(imageURL)
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
