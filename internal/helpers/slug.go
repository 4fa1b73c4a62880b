package helpers

import (
	"regexp"
	"strings"
)

var (
	slugDropPattern  = regexp.MustCompile(`[^a-z0-9\- ]+`)
	slugSpacePattern = regexp.MustCompile(`\s+`)
)

// Slugify derives a URL-safe filename component from a title: lowercase,
// characters outside [a-z0-9- ] removed, whitespace runs collapsed to
// single hyphens, leading/trailing hyphens trimmed, capped at 80
// characters. An empty result falls back to "post".
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		s = "post"
	}
	s = slugDropPattern.ReplaceAllString(s, "")
	s = slugSpacePattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		return "post"
	}
	return s
}
