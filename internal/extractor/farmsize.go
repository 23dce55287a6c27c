package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ExtractFarmSize returns the first number in the text, then the first
// number word, then 0. Callers treat 0 as "no answer".
func ExtractFarmSize(text string) float64 {
	if m := numberPattern.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}

	lower := strings.ToLower(text)
	for _, nw := range numberWords {
		if strings.Contains(lower, nw.word) {
			return nw.value
		}
	}
	return 0
}
