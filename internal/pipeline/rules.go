package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mlsync/internal"
)

var percentPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)%`)

// ExtractPercent finds a "<number>%" pattern inside a free-text cell and
// returns it as a fraction. Numeric cells pass through unchanged (they are
// already fractions in the source reports). Anything else yields 0.
func ExtractPercent(v any) float64 {
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
	}

	s, ok := v.(string)
	if !ok {
		return 0
	}
	m := percentPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return parseDecimal(m[1]) / 100
}

// ParseMarketplaceFee parses a compound fee expression such as "9.5% + 180"
// into its percentage and fixed components. The grammar is
// `<pct>? ('+' <fixed>)?` in any order. Among several non-percent segments
// the last one wins.
func ParseMarketplaceFee(v any) internal.FeeComponents {
	var out internal.FeeComponents
	if v == nil {
		return out
	}
	s := fmt.Sprint(v)
	if strings.TrimSpace(s) == "" {
		return out
	}

	if m := percentPattern.FindStringSubmatch(s); m != nil {
		out.Percent = parseDecimal(m[1]) / 100
	}

	for _, part := range strings.Split(s, "+") {
		if strings.Contains(part, "%") {
			continue
		}
		cleaned := stripToDigitsAndDot(part)
		if cleaned == "" {
			continue
		}
		if fixed, err := strconv.ParseFloat(cleaned, 64); err == nil {
			out.Fixed = fixed
		}
	}

	return out
}

func parseDecimal(s string) float64 {
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return parsed
}

func stripToDigitsAndDot(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
