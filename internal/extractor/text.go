package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokens splits on runs of whitespace and commas.
func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// longTokens returns the tokens with more than two runes.
func longTokens(text string) []string {
	var out []string
	for _, tok := range tokens(text) {
		if utf8.RuneCountInString(tok) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(word string) string {
	if word == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}

// titleWords capitalizes every space-separated word.
func titleWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}
