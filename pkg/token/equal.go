package token

import (
	"crypto/subtle"
	"strings"
)

// Equal compares two keys ignoring surrounding whitespace and letter case.
// The comparison takes the same time for any two keys of equal length.
func Equal(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
