package normalize

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// PhoneticKey returns the Soundex key for one token, or "" for tokens with
// no phonetic content (numerals, single symbols).
func PhoneticKey(token string) string {
	if !hasLetter(token) {
		return ""
	}
	return matchr.Soundex(token)
}

// PhoneticKeys encodes each token, skipping unencodable ones. The result
// preserves token order so positional overlap can be graded.
func PhoneticKeys(tokens []string) []string {
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if k := PhoneticKey(t); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func hasLetter(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
	})
}
