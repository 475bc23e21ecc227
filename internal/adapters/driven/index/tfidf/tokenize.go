package tfidf

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// nonTerm matches everything that is not a lower-case ASCII letter, digit,
// CJK unified ideograph or whitespace.
var nonTerm = regexp.MustCompile(`[^a-z0-9\x{4e00}-\x{9fa5}\s]`)

// Tokenize lower-cases text, strips punctuation and returns its terms.
// Terms of a single rune are dropped. A term longer than three runes ending
// in a single "s" loses it, so "refunds" and "refund" index the same term.
func Tokenize(text string) []string {
	cleaned := nonTerm.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)

	terms := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= 1 {
			continue
		}
		terms = append(terms, foldPlural(f))
	}
	return terms
}

func foldPlural(term string) string {
	if utf8.RuneCountInString(term) > 3 && strings.HasSuffix(term, "s") && !strings.HasSuffix(term, "ss") {
		return term[:len(term)-1]
	}
	return term
}

// termFrequency counts terms and returns the counts with their total.
func termFrequency(terms []string) (map[string]int, int) {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf, len(terms)
}
