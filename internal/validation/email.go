package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lower-cases an address before lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates format and length using net/mail (RFC 5322).
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	// RFC 5321 total limit
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address format")
	}

	return nil
}
