package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 bytes")
	ErrPasswordCommon   = errors.New("password is too common, please choose a stronger one")
)

var commonPasswordFragments = []string{
	"password", "passwort", "123456", "qwerty", "admin", "letmein",
	"welcome", "sommer", "winter", "syfte", "sparen",
}

// ValidatePassword enforces a 12 character minimum and the 72 byte bcrypt
// limit, and rejects well-known fragments.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 12 {
		return ErrPasswordTooShort
	}

	// bcrypt silently truncates after 72 bytes
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	lower := strings.ToLower(password)
	for _, fragment := range commonPasswordFragments {
		if strings.Contains(lower, fragment) {
			return ErrPasswordCommon
		}
	}

	return nil
}
