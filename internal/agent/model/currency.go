package model

import (
	"fmt"
	"strings"
)

// FormatAmount renders an amount stored in integer minor currency units
// (cents) as a major-unit string with standard punctuation, e.g.
// -1500 -> "-$15.00", 123456789 -> "$1,234,567.89".
func FormatAmount(minorUnits int64) string {
	sign := ""
	if minorUnits < 0 {
		sign = "-"
		minorUnits = -minorUnits
	}
	major := minorUnits / 100
	cents := minorUnits % 100
	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(major), cents)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
