package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const monthAlternation = `(january|february|march|april|may|june|july|august|september|october|november|december)`

var (
	yearFirstNumeric = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	dayFirstNumeric  = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
	dayMonthYear     = regexp.MustCompile(`(?i)(\d{1,2})\s+` + monthAlternation + `\s+(\d{4})`)
	yearMonthDay     = regexp.MustCompile(`(?i)(\d{4})\s+` + monthAlternation + `\s+(\d{1,2})`)
	anyYear          = regexp.MustCompile(`\d{4}`)
	standaloneDay    = regexp.MustCompile(`\b(\d{1,2})\b`)
)

// ExtractSowingDate resolves the text to a YYYY-MM-DD date relative to the
// current time.
func ExtractSowingDate(text string) string {
	return SowingDateAt(text, time.Now())
}

// SowingDateAt resolves the text to a YYYY-MM-DD date. Rules are tried in
// order: numeric dates, "15 June 2024" style dates, a bare month name,
// relative terms, season names, and finally now itself.
func SowingDateAt(text string, now time.Time) string {
	if m := yearFirstNumeric.FindStringSubmatch(text); m != nil {
		return joinDate(m[1], m[2], m[3])
	}
	if m := dayFirstNumeric.FindStringSubmatch(text); m != nil {
		return joinDate(m[3], m[2], m[1])
	}
	if m := dayMonthYear.FindStringSubmatch(text); m != nil {
		return joinDate(m[3], monthNumber(m[2]), m[1])
	}
	if m := yearMonthDay.FindStringSubmatch(text); m != nil {
		return joinDate(m[1], monthNumber(m[2]), m[3])
	}

	lower := strings.ToLower(text)
	for i, month := range monthNames {
		if !strings.Contains(lower, month) {
			continue
		}
		year := strconv.Itoa(now.Year())
		if y := anyYear.FindString(text); y != "" {
			year = y
		}
		day := "15"
		if d := standaloneDay.FindStringSubmatch(text); d != nil {
			day = d[1]
		}
		return joinDate(year, strconv.Itoa(i+1), day)
	}

	for _, rt := range relativeTerms {
		if strings.Contains(lower, rt.term) {
			return now.AddDate(0, 0, rt.days).Format(dateLayout)
		}
	}

	for _, s := range seasons {
		if strings.Contains(lower, s.term) {
			return fmt.Sprintf("%d-%s", now.Year(), s.monthDay)
		}
	}

	return now.Format(dateLayout)
}

func monthNumber(name string) string {
	lower := strings.ToLower(name)
	for i, month := range monthNames {
		if month == lower {
			return strconv.Itoa(i + 1)
		}
	}
	return "0"
}

func joinDate(year, month, day string) string {
	return year + "-" + pad2(month) + "-" + pad2(day)
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
