package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims input, drops control characters other than newlines
// and caps the result at maxRunes runes. The cap counts runes so it agrees
// with the validator's max tag.
func SanitizeString(input string, maxRunes int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (unicode.IsControl(r) && r != '\n') {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	cleaned = strings.TrimSpace(cleaned)
	if maxRunes <= 0 || utf8.RuneCountInString(cleaned) <= maxRunes {
		return cleaned
	}
	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:maxRunes]))
}
