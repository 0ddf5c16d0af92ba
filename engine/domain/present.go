package domain

import (
	"fmt"
	"strings"
	"time"
)

// Preview classifies how a post's link should be presented.
type Preview string

const (
	PreviewText  Preview = "text"
	PreviewLink  Preview = "link"
	PreviewMedia Preview = "media"
)

var mediaExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webm", ".mp4"}

// Preview reports whether the post is a self post, a link, or a direct media link.
func (p Post) Preview() Preview {
	if p.URL == nil {
		return PreviewText
	}
	u := strings.ToLower(*p.URL)
	for _, ext := range mediaExtensions {
		if strings.HasSuffix(u, ext) {
			return PreviewMedia
		}
	}
	return PreviewLink
}

const (
	secondsPerMonth = 2629746
	secondsPerYear  = 31556952
	week            = 7 * 24 * time.Hour
)

// Age formats the time elapsed between t and now as a compact label such as
// "45s", "3h" or "2mo".
func Age(now, t time.Time) string {
	d := now.Sub(t)
	secs := int64(d / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	case secs < 86400:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	case secs < secondsPerMonth:
		return fmt.Sprintf("%dd", int64(d/(24*time.Hour)))
	case secs < secondsPerYear:
		return fmt.Sprintf("%dmo", int64(d/week)/4)
	default:
		return fmt.Sprintf("%dy", int64(d/week)/52)
	}
}
