package chat

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes, strips combining marks, lowercases, turns
// punctuation into spaces and collapses whitespace. "Niño's" becomes "nino s".
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var stopWords = map[string]bool{
	// English
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true, "be": true,
	"i": true, "me": true, "my": true, "we": true, "you": true, "your": true, "it": true,
	"do": true, "does": true, "did": true, "can": true, "could": true, "would": true, "should": true,
	"how": true, "what": true, "where": true, "when": true, "who": true, "which": true, "why": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "for": true, "from": true, "with": true,
	"and": true, "or": true, "if": true, "about": true, "there": true, "any": true, "get": true,
	"please": true, "pls": true, "hi": true, "hello": true, "this": true, "that": true,
	// Filipino
	"ang": true, "ng": true, "sa": true, "mga": true, "po": true, "ba": true, "ko": true,
	"ako": true, "ano": true, "paano": true, "saan": true, "kailan": true, "sino": true,
	"na": true, "ay": true, "yung": true, "nang": true, "si": true, "ni": true,
}

// SignificantWords drops stop-words from a normalized string.
func SignificantWords(normalized string) []string {
	var out []string
	for _, w := range strings.Fields(normalized) {
		if !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// containsPhrase matches whole words only, so "id" does not hit "idea".
func containsPhrase(normalized, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+normalized+" ", " "+phrase+" ")
}
