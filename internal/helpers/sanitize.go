package helpers

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

func strict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// SafeText strips every HTML element and attribute from s and returns the
// trimmed remainder, entity-escaped for direct embedding in markup. Titles
// recovered from the archive pass through here before they are rendered
// into a document.
func SafeText(s string) string {
	return strings.TrimSpace(strict().Sanitize(s))
}
