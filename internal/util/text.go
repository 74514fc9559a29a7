package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reNonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]+`)
	reSpaces   = regexp.MustCompile(`\s+`)
	reUnsafe   = regexp.MustCompile(`[\\/:*?"<>|]`)
)

// NormalizeName reduces a column or template-header label to a comparable
// form: non-alphanumerics become single spaces, whitespace collapses,
// everything lowercases. "QR  code!!" and "QR Code" normalize equal.
func NormalizeName(input string) string {
	s := reNonAlnum.ReplaceAllString(input, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// SafeFilename substitutes characters that are unsafe in file names.
func SafeFilename(input string) string {
	return strings.TrimSpace(reUnsafe.ReplaceAllString(input, "_"))
}

// SpaceNumber returns the first whitespace-delimited token of a space label.
func SpaceNumber(input string) string {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// FormatYearToDate normalizes a free-text manufacture year to a first-of-year
// date string. A trailing ".0" decimal artifact is stripped first. A 4-digit
// year strictly inside (1900, 2100) is used as-is; a 2-digit year pivots at
// the current two-digit year, values above it mapping to 19xx. Anything else
// passes through unchanged.
func FormatYearToDate(now time.Time, input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return input
	}
	s = strings.TrimSuffix(s, ".0")

	for _, r := range s {
		if r < '0' || r > '9' {
			return input
		}
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return input
	}

	var year int
	switch len(s) {
	case 4:
		if val <= 1900 || val >= 2100 {
			return input
		}
		year = val
	case 2:
		if val > now.Year()%100 {
			year = 1900 + val
		} else {
			year = 2000 + val
		}
	default:
		return input
	}

	return fmt.Sprintf("01/01/%d", year)
}
