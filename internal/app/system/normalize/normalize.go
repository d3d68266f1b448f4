// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address for storage and lookup.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role string so comparisons are uniform
// (session values and documents both store roles lowercased).
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status string.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DioceseCode uppercases and trims a diocese code ("dakar" -> "DAKAR").
// Diocese codes are stored uppercased, matching the seeded set.
func DioceseCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
