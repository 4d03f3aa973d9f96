package utils

import "strings"

// NormalizePhone normalizes a caller-provided phone number to the 10-digit
// national form used as the contacts natural key.
// - Strips spaces, "+", "-", and any other non-digit characters.
// - Collapses 12-digit numbers with the "91" country prefix to 10 digits.
//
// Numbers that do not match either shape are returned digits-only, unchanged
// beyond stripping; semantic validation belongs to the caller.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 12 && strings.HasPrefix(d, "91") {
		d = d[2:]
	}
	return d
}
