// Package numeric parses the numeric literal forms accepted by the
// value-number script driver: decimal, hex (0x), octal (0o), and binary
// (0b) integers, and decimal/scientific floats, all with optional
// underscore separators.
package numeric

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Regex pattern components for the literal forms.
const (
	hexDigits = `[0-9a-fA-F]`
	hexNumber = `0[xX]` + hexDigits + `(?:` + hexDigits + `|_` + hexDigits + `)*`

	octDigits = `[0-7]`
	octNumber = `0[oO]` + octDigits + `(?:` + octDigits + `|_` + octDigits + `)*`

	binDigits = `[01]`
	binNumber = `0[bB]` + binDigits + `(?:` + binDigits + `|_` + binDigits + `)*`

	decDigits = `[0-9]`
	decNumber = decDigits + `(?:` + decDigits + `|_` + decDigits + `)*`

	floatFrac = `\.` + decDigits + `(?:` + decDigits + `|_` + decDigits + `)*`
	floatExp  = `[eE][+-]?` + decDigits + `(?:` + decDigits + `|_` + decDigits + `)*`
)

var (
	hexRegex = regexp.MustCompile(`^-?` + hexNumber + `$`)
	octRegex = regexp.MustCompile(`^-?` + octNumber + `$`)
	binRegex = regexp.MustCompile(`^-?` + binNumber + `$`)
	intRegex = regexp.MustCompile(`^-?` + decNumber + `$`)

	floatRegex = regexp.MustCompile(`^-?` + decNumber + `(?:` + floatFrac + `)?(?:` + floatExp + `)?$`)
)

// IsInteger reports whether s is a valid integer literal in any base.
func IsInteger(s string) bool {
	return intRegex.MatchString(s) || hexRegex.MatchString(s) ||
		octRegex.MatchString(s) || binRegex.MatchString(s)
}

// IsFloat reports whether s is a valid float literal (decimal point or
// scientific notation; a plain integer also parses as a float).
func IsFloat(s string) bool {
	return floatRegex.MatchString(s)
}

// ParseInt parses an integer literal of any base into an int64. Hex,
// octal, and binary literals wider than 63 bits are accepted as bit
// patterns.
func ParseInt(s string) (int64, error) {
	clean := strings.ReplaceAll(s, "_", "")
	neg := strings.HasPrefix(clean, "-")
	if neg {
		clean = clean[1:]
	}

	base := 10
	switch {
	case hexRegex.MatchString(clean):
		base, clean = 16, clean[2:]
	case octRegex.MatchString(clean):
		base, clean = 8, clean[2:]
	case binRegex.MatchString(clean):
		base, clean = 2, clean[2:]
	}

	if base != 10 {
		// Bit patterns: 0xFFFFFFFFFFFFFFFF is -1, not an overflow.
		u, err := strconv.ParseUint(clean, base, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer literal %q: %w", s, err)
		}
		v := int64(u)
		if neg {
			v = -v
		}
		return v, nil
	}

	if neg {
		clean = "-" + clean
	}
	v, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q: %w", s, err)
	}
	return v, nil
}

// ParseFloat parses a float literal, handling decimal and scientific
// notation.
func ParseFloat(s string) (float64, error) {
	clean := strings.ReplaceAll(s, "_", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float literal %q: %w", s, err)
	}
	return v, nil
}
