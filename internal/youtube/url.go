package youtube

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractVideoID pulls the video id out of a YouTube URL. Supports the
// youtu.be short form and youtube.com/watch?v=... links.
func ExtractVideoID(raw string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())

	if strings.Contains(host, "youtu.be") {
		id := strings.Trim(parsed.Path, "/")
		if id == "" {
			return "", false
		}
		return id, true
	}

	if strings.Contains(host, "youtube.com") {
		if id := parsed.Query().Get("v"); id != "" {
			return id, true
		}
	}

	return "", false
}

// WatchURL returns the canonical watch URL for a video id. All schedule
// entries store this form so the dedup guard can compare exactly.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", url.QueryEscape(videoID))
}
