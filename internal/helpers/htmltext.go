package helpers

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// StripTags removes every <...> span from html and returns the remaining
// text. It is deliberately not an HTML parser: entities are left alone and
// malformed markup is not validated. Sizing decisions for generated bodies
// are made on this stripped form.
func StripTags(html string) string {
	return tagPattern.ReplaceAllString(html, "")
}

// PlainLen is the character count of html after tag stripping.
func PlainLen(html string) int {
	return utf8.RuneCountInString(StripTags(html))
}

// TruncateRunes cuts s to at most limit characters.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// TrimPartialSentence drops a trailing sentence fragment, cutting after the
// last '.', '!' or '?' in s. When no boundary exists the input is returned
// unchanged rather than discarded.
func TrimPartialSentence(s string) string {
	idx := strings.LastIndexAny(s, ".!?")
	if idx == -1 {
		return s
	}
	return strings.TrimRight(s[:idx+1], " \t\n")
}
