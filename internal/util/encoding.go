package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeInput folds chat input to a canonical form: NFKC turns full-width
// digits and letters typed through CJK input methods into ASCII, and
// surrounding whitespace is dropped.
func NormalizeInput(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
