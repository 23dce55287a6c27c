package extractor

import (
	"strings"
	"unicode/utf8"
)

var districtStopWords = map[string]bool{
	"district": true,
	"state":    true,
	"from":     true,
	"in":       true,
	"at":       true,
}

// ExtractLocation finds a known state by substring and guesses the district
// as the longest remaining token. District names are unbounded, so length
// stands in for a gazetteer.
func ExtractLocation(text string) LocationResult {
	lower := strings.ToLower(text)

	state := Unknown
	for _, name := range indianStates {
		if strings.Contains(lower, name) {
			state = titleWords(name)
			break
		}
	}

	district := ""
	districtLen := 0
	for _, tok := range longTokens(text) {
		word := strings.ToLower(tok)
		if districtStopWords[word] || isStateFragment(word) {
			continue
		}
		// Strictly longer only: ties keep the first occurrence.
		if n := utf8.RuneCountInString(tok); district == "" || n > districtLen {
			district = capitalize(tok)
			districtLen = n
		}
	}
	if district == "" {
		district = Unknown
	}

	return LocationResult{District: district, State: state}
}

func isStateFragment(word string) bool {
	for _, name := range indianStates {
		if name == word || strings.Contains(name, word) {
			return true
		}
	}
	return false
}
