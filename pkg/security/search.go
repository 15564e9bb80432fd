package security

import (
	"strings"
	"unicode"
)

const (
	// MaxSearchQueryLength defines the maximum number of runes sent as a search query
	MaxSearchQueryLength = 100
)

// NormalizeSearchQuery prepares free text typed into a search box for the
// q parameter: control characters are dropped, runs of whitespace collapse
// to one space, the ends are trimmed and the result is capped at
// MaxSearchQueryLength runes. An all-blank query becomes "" so it is
// omitted from the request.
func NormalizeSearchQuery(query string) string {
	if query == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(query))

	count := 0
	pendingSpace := false
	for _, r := range query {
		if unicode.IsSpace(r) {
			pendingSpace = count > 0
			continue
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			continue
		}
		if pendingSpace {
			if count+1 >= MaxSearchQueryLength {
				break
			}
			b.WriteByte(' ')
			count++
			pendingSpace = false
		}
		if count >= MaxSearchQueryLength {
			break
		}
		b.WriteRune(r)
		count++
	}

	return b.String()
}
