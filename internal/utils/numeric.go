package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// Property values exported from viewers mix locales: "120.5 m²", "80,25",
// "1.234,56 m2". The first decimal number is taken; comma is accepted as a
// decimal separator.
var decimalRe = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// ExtractDecimal returns the first decimal number found in s. The second
// return value is false when s holds no extractable number; malformed input
// never panics.
func ExtractDecimal(s string) (float64, bool) {
	match := decimalRe.FindString(s)
	if match == "" {
		return 0, false
	}

	normalized := strings.ReplaceAll(match, ",", ".")
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
