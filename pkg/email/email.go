// Package email derives presentation defaults from email addresses.
package email

import (
	"strings"
	"unicode"
)

// DeriveName builds a display name from the local part of an address, e.g.
// "maria.lopez@hospital.org" -> "Maria Lopez". Falls back to "User".
func DeriveName(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		local = address[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}

	names := make([]string, 0, 2)
	names = append(names, capitalize(parts[0]))
	if len(parts) > 1 {
		names = append(names, capitalize(parts[len(parts)-1]))
	}
	return strings.Join(names, " ")
}

// Normalize lowercases and trims an address for lookups.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
