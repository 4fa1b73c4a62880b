package helpers

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ExtractJSON returns the first JSON object or array embedded in s.
// Model responses frequently arrive wrapped in Markdown code fences or
// surrounded by prose; this unwraps a leading fence if present, then scans
// for a balanced {...} or [...] while ignoring braces inside strings.
func ExtractJSON(s string) (string, error) {
	s = trimBOM(strings.TrimSpace(s))

	if inner, ok := stripLeadingFence(s); ok {
		s = strings.TrimSpace(inner)
	}

	// Quick path: content already starts with JSON.
	if len(s) > 0 && (s[0] == '{' || s[0] == '[') {
		if out, ok := balancedJSONAt(s, 0); ok {
			return out, nil
		}
	}

	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			if out, ok := balancedJSONAt(s, i); ok {
				return out, nil
			}
		}
	}

	return "", errors.New("no balanced JSON object/array found")
}

// StripCodeFence unwraps s when it arrives as a fenced code block
// (```html ... ``` and the like) and returns it untouched otherwise.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if inner, ok := stripLeadingFence(s); ok {
		return strings.TrimSpace(inner)
	}
	return s
}

// stripLeadingFence unwraps the first fenced code block when s starts with
// ``` or ~~~, tolerating an optional language tag such as ```json.
func stripLeadingFence(s string) (inner string, ok bool) {
	trim := strings.TrimLeft(s, "\n\r\t ")
	fence := ""
	switch {
	case strings.HasPrefix(trim, "```"):
		fence = "```"
	case strings.HasPrefix(trim, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	rest := trim[len(fence):]
	idx := strings.IndexByte(rest, '\n')
	if idx == -1 {
		return "", false
	}
	rest = rest[idx+1:]
	if end := strings.Index(rest, fence); end != -1 {
		return rest[:end], true
	}
	return "", false
}

// balancedJSONAt extracts a balanced JSON value starting at startIdx,
// handling nested containers, strings and escape sequences.
func balancedJSONAt(s string, startIdx int) (string, bool) {
	if startIdx < 0 || startIdx >= len(s) {
		return "", false
	}
	open := s[startIdx]
	if open != '{' && open != '[' {
		return "", false
	}

	var (
		stack    []byte
		inString bool
		escape   bool
	)
	stack = append(stack, open)

	for i := startIdx + 1; i < len(s); i++ {
		c := s[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			top := stack[len(stack)-1]
			if (top == '{' && c != '}') || (top == '[' && c != ']') {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[startIdx : i+1], true
			}
		}
	}

	return "", false
}

// trimBOM removes an optional UTF-8 byte order mark.
func trimBOM(s string) string {
	if strings.HasPrefix(s, "\uFEFF") {
		return strings.TrimPrefix(s, "\uFEFF")
	}
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF && utf8.ValidString(s[3:]) {
		return s[3:]
	}
	return s
}
