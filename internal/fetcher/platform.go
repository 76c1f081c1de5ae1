package fetcher

import (
	"regexp"
	"strings"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

var youTubeID = regexp.MustCompile(`(?:v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// DetectPlatform guesses the source platform from substrings of the URL.
func DetectPlatform(rawURL string) domain.SourceType {
	switch {
	case strings.Contains(rawURL, "instagram.com"):
		return domain.SourceInstagram
	case strings.Contains(rawURL, "twitter.com"), strings.Contains(rawURL, "x.com"):
		return domain.SourceTwitter
	case isYouTube(rawURL):
		return domain.SourceYouTube
	case strings.Contains(rawURL, "whatsapp.com"):
		return domain.SourceWhatsApp
	default:
		return domain.SourceLink
	}
}

func isYouTube(rawURL string) bool {
	return strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be")
}

// YouTubeThumbnail returns the high resolution thumbnail for a video URL,
// or "" when no video id is present.
func YouTubeThumbnail(rawURL string) string {
	if !isYouTube(rawURL) {
		return ""
	}
	m := youTubeID.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return "https://img.youtube.com/vi/" + m[1] + "/maxresdefault.jpg"
}
