package rendering

import (
	"strings"
	"unicode/utf8"
)

// EscapeXML escapes text for use inside OOXML element content and attribute
// values. Characters that XML 1.0 cannot carry are dropped.
func EscapeXML(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) + len(text)/8)

	for _, r := range text {
		switch r {
		case '&':
			result.WriteString("&amp;")
		case '<':
			result.WriteString("&lt;")
		case '>':
			result.WriteString("&gt;")
		case '"':
			result.WriteString("&quot;")
		case '\'':
			result.WriteString("&apos;")
		default:
			if !validXMLRune(r) {
				continue
			}
			result.WriteRune(r)
		}
	}

	return result.String()
}

func validXMLRune(r rune) bool {
	switch {
	case r == utf8.RuneError:
		return false
	case r == '\t', r == '\n', r == '\r':
		return true
	case r < 0x20:
		return false
	case r >= 0xD800 && r <= 0xDFFF:
		return false
	case r == 0xFFFE, r == 0xFFFF:
		return false
	}
	return true
}
