package search

import (
	"strings"
	"unicode"
)

// Tokenize splits text into normalized tokens: lowercase runs of letters,
// digits and underscores at least two runes long, with English stop words
// removed.
func Tokenize(text string) []string {
	f := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c) && c != '_'
	}
	fields := strings.FieldsFunc(text, f)
	var tokens []string
	for _, field := range fields {
		if len([]rune(field)) < 2 {
			continue
		}
		token := strings.ToLower(field)
		if IsStopWord(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
