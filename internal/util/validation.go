package util

import (
	"regexp"
	"unicode/utf8"
)

var (
	uuidRegex  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsValidUsername enforces the 3-30 character username contract. Lengths
// are counted in runes so multibyte names are measured like any other.
func IsValidUsername(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 3 && n <= 30
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
