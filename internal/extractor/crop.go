package extractor

import "strings"

// ExtractCropType matches a known crop, otherwise returns the first long
// token stripped to ASCII letters as a best guess.
func ExtractCropType(text string) string {
	lower := strings.ToLower(text)
	for _, crop := range commonCrops {
		if strings.Contains(lower, crop) {
			return capitalize(crop)
		}
	}

	words := longTokens(text)
	if len(words) == 0 {
		return Unknown
	}
	clean := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, words[0])
	if clean == "" {
		return Unknown
	}
	return capitalize(clean)
}
