// Package flagparse holds small parsing helpers for command-line flag values.
package flagparse

import "strings"

// ParseExcludeList parses a comma-separated list of exclusion patterns.
// Items may be wrapped in single (') or double (") quotes to allow patterns
// containing commas or leading/trailing spaces. Empty items are dropped.
func ParseExcludeList(s string) []string {
	var list []string
	var current strings.Builder
	var quoteChar rune

	appendItem := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			list = append(list, trimmed)
		}
		current.Reset()
	}

	for _, r := range s {
		switch {
		case r == '\'' || r == '"':
			if quoteChar == 0 { // Start of a new quoted section.
				quoteChar = r
			} else if quoteChar == r { // End of the current quoted section.
				quoteChar = 0
			} else { // A different quote character inside a quoted section.
				current.WriteRune(r)
			}
		case r == ',' && quoteChar == 0: // Comma outside of any quotes.
			appendItem()
		default:
			current.WriteRune(r)
		}
	}
	appendItem()
	return list
}
