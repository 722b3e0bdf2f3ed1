// Package textmatch finds vocabulary keywords in free text.
package textmatch

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it into words. Hyphens stay inside
// words so "multi-tenant" is one token.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// Match returns the keywords present in tokens, in keyword order.
// Multi-word keywords match consecutive tokens.
func Match(tokens []string, keywords []string) []string {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	joined := " " + strings.Join(tokens, " ") + " "

	hits := []string{}
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(joined, " "+kw+" ") {
				hits = append(hits, kw)
			}
			continue
		}
		if set[kw] {
			hits = append(hits, kw)
		}
	}
	return hits
}
