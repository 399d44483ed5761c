// Package quantity reconciles the free-form quantity strings carried by
// ingredients and shopping items. Quantities are either numeric ("2",
// "1.5") or text ("大さじ1", "適量"); only numeric pairs are summed.
package quantity

import (
	"strconv"
	"strings"
)

// Merge combines two quantity values.
//
// An empty or whitespace-only operand yields the other operand unchanged.
// If both operands trim to canonical decimal literals, the result is the
// canonical form of their sum. Anything else concatenates as "a+b" —
// including identical strings, which are deliberately not collapsed.
func Merge(a, b string) string {
	if strings.TrimSpace(a) == "" {
		return b
	}
	if strings.TrimSpace(b) == "" {
		return a
	}

	na, okA := parseCanonical(a)
	nb, okB := parseCanonical(b)
	if okA && okB {
		return formatCanonical(na + nb)
	}

	return a + "+" + b
}

// parseCanonical accepts only strings whose trimmed form round-trips
// exactly to the canonical decimal representation, so "01", "1.50" and
// "1e2" all count as text.
func parseCanonical(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	if formatCanonical(f) != trimmed {
		return 0, false
	}
	return f, true
}

func formatCanonical(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
