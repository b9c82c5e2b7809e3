package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// epsilon counteracts binary representation error before rounding, so that
// e.g. 1234.565 lands on 1234.57 instead of 1234.56.
const epsilon = 2.220446049250313e-16

// ParseNumber coerces a spreadsheet cell into a float64. Numeric values pass
// through; strings are stripped down to digits, sign, dot and comma (comma
// treated as a decimal point) before parsing. Anything unparsable yields 0.
// Handles free-text quirks like "5,5 kg" and "$ 1.200".
func ParseNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return parseNumericString(n)
	default:
		return parseNumericString(fmt.Sprint(v))
	}
}

func parseNumericString(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			b.WriteByte('.')
		}
	}
	parsed, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return parsed
}

// Round2 rounds a monetary value to two decimals, half away from zero, with
// an epsilon correction so exported figures match the spreadsheet to the cent.
func Round2(v float64) float64 {
	return math.Round((v+epsilon)*100) / 100
}
