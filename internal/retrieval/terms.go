package retrieval

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTermLength is the shortest token that counts as a search term
const minTermLength = 3

// stopwords are dropped from questions before field relevance is scored
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "who": {}, "where": {}, "when": {}, "how": {}, "which": {},
	"this": {}, "that": {}, "of": {}, "in": {}, "on": {}, "for": {}, "to": {},
	"from": {}, "with": {}, "by": {},
}

type termSet map[string]struct{}

// Terms returns the set of lower-cased word tokens in s that are at least
// minLen runes long. Word runes are letters, digits and underscore.
func Terms(s string, minLen int) map[string]struct{} {
	return terms(s, minLen)
}

func terms(s string, minLen int) termSet {
	out := make(termSet)
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), isNotWordRune) {
		if utf8.RuneCountInString(tok) >= minLen {
			out[tok] = struct{}{}
		}
	}
	return out
}

func isNotWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

// questionTerms are all word tokens of a question minus stopwords
func questionTerms(question string) termSet {
	out := terms(question, 1)
	for w := range stopwords {
		delete(out, w)
	}
	return out
}

func (t termSet) overlap(other termSet) int {
	small, large := t, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for term := range small {
		if _, ok := large[term]; ok {
			n++
		}
	}
	return n
}

// Truncate returns at most n runes of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
