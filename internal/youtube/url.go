package youtube

import (
	"errors"
	"regexp"
)

// ErrInvalidURL is returned for links that do not point at a single video.
var ErrInvalidURL = errors.New("invalid YouTube URL")

var videoURLPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`)

// ExtractVideoID returns the video id of a watch or youtu.be short link.
func ExtractVideoID(rawURL string) (string, error) {
	m := videoURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", ErrInvalidURL
	}
	return m[1], nil
}
