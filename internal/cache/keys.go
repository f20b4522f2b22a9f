// Package cache stores rendered search responses in Redis, keyed by the
// canonical filter encoding. Because the codec is deterministic, every
// spelling of the same filter state lands on the same key.
package cache

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// KeyPrefix namespaces every response key so invalidation can purge the
// whole space with one scan.
const KeyPrefix = "search:"

// Key builds the cache key for one search page. route distinguishes the
// plain directory from certification landing pages, canonical is the
// canonical filter query string, cursorToken the opaque page cursor.
func Key(route, canonical, cursorToken string, pageSize int) string {
	if route == "" {
		route = "directory"
	}
	safe := sanitizeForKey(canonical)

	const maxFilterTextLen = 160
	if len(safe) > maxFilterTextLen {
		safe = safe[:maxFilterTextLen]
	}

	sum := xxhash.Sum64String(canonical)
	cur := "-"
	if cursorToken != "" {
		cur = fmt.Sprintf("%016x", xxhash.Sum64String(cursorToken))
	}

	return fmt.Sprintf("%s%s:ps=%d:cur=%s:filters=%s:f=%016x",
		KeyPrefix, sanitizeForKey(route), pageSize, cur, safe, sum)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '=' || r == '&':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
