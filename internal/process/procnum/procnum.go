// Package procnum canonicalizes process numbers. Court process numbers show
// up in several textual shapes: the formatted CNJ mask
// ("0425144-44.2016.8.19.0001"), bare digit runs, and scientific-notation
// artifacts produced when a spreadsheet coerces the number to a float
// ("1.01779912E+18"). Matching across sources requires one digit-only form.
package procnum

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	scientificRe = regexp.MustCompile(`^\d+(\.\d+)?[eE]\+\d+$`)
	nonDigitRe   = regexp.MustCompile(`\D`)
)

// minCanonicalLen is the shortest plausible canonical process number. A full
// CNJ number has 20 digits; anything under 15 is a truncated or garbage id.
const minCanonicalLen = 15

// Normalize returns the digit-only canonical form of a process number.
// Scientific-notation input is parsed as a float, truncated to an integer
// and re-rendered before stripping. Idempotent: a canonical digit string is
// returned unchanged. Empty or whitespace-only input yields "".
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if scientificRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			// Truncate to an integer and re-render without the exponent.
			// FormatFloat keeps this exact for integral values of any
			// magnitude, where an int64 conversion could overflow.
			asInt := strconv.FormatFloat(math.Trunc(f), 'f', -1, 64)
			return nonDigitRe.ReplaceAllString(asInt, "")
		}
	}
	return nonDigitRe.ReplaceAllString(s, "")
}

// IsValid reports whether a canonical number is long enough to be a real
// process id. Callers exclude invalid numbers before ingestion.
func IsValid(canonical string) bool {
	return len(canonical) >= minCanonicalLen
}
