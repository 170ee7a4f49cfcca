package service

import (
	"strconv"
	"strings"
)

// NormalizePrice descarta todo lo que no sea digito o punto y exige un valor positivo.
func NormalizePrice(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
