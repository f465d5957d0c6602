package playback

import "regexp"

var (
	driveFileIDPattern  = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	driveQueryIDPattern = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	drivePathIDPattern  = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	youtubeIDPattern    = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&?#/]+)`)
	youtubeEmbedPattern = regexp.MustCompile(`/embed/([^?&#/]+)`)
)

// CanonicalEmbedURL converts the video URLs upstream hands out into the
// iframe-embeddable form the player actually wants. Google Drive share links
// become preview links, YouTube watch/short links become embed links, and
// anything unrecognized passes through unchanged.
func CanonicalEmbedURL(raw string) string {
	u := NormalizeSourceURL(raw)
	if u == "" {
		return ""
	}

	if containsHost(u, "drive.google.com") {
		if m := driveFileIDPattern.FindStringSubmatch(u); m != nil {
			return "https://drive.google.com/file/d/" + m[1] + "/preview"
		}
		if m := driveQueryIDPattern.FindStringSubmatch(u); m != nil {
			return "https://drive.google.com/file/d/" + m[1] + "/preview"
		}
		return u
	}

	if containsHost(u, "youtube.com") || containsHost(u, "youtu.be") {
		if youtubeEmbedPattern.MatchString(u) {
			return u
		}
		if m := youtubeIDPattern.FindStringSubmatch(u); m != nil {
			return "https://www.youtube.com/embed/" + m[1] + "?autoplay=1&rel=0&modestbranding=1"
		}
	}

	return u
}

// DirectURL converts an embed URL back to the page a user can open in a new
// tab when embedded playback fails. Drive previews become viewer links,
// YouTube embeds become watch links; everything else passes through.
func DirectURL(embedURL string) string {
	u := NormalizeSourceURL(embedURL)
	if u == "" {
		return ""
	}

	if containsHost(u, "drive.google.com") {
		if m := drivePathIDPattern.FindStringSubmatch(u); m != nil {
			return "https://drive.google.com/file/d/" + m[1] + "/view"
		}
		return u
	}

	if m := youtubeEmbedPattern.FindStringSubmatch(u); m != nil {
		return "https://www.youtube.com/watch?v=" + m[1]
	}

	return u
}
