package auth

import (
	"errors"
	"unicode"
)

// Password policy failures. Each carries the user-facing reason; these are
// pre-authentication input errors and safe to return verbatim.
var (
	ErrPasswordLength  = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	ErrPasswordUpper   = errors.New("password must contain an uppercase letter")
	ErrPasswordLower   = errors.New("password must contain a lowercase letter")
	ErrPasswordDigit   = errors.New("password must contain a digit")
	ErrPasswordSpecial = errors.New("password must contain a punctuation or symbol character")
)

// ValidatePassword checks the password policy and returns the first unmet
// rule. It runs before every hash, on registration and password change.
// The 72-byte upper bound is bcrypt's input limit.
func ValidatePassword(pw string) error {
	if len([]rune(pw)) < 8 {
		return ErrPasswordLength
	}
	if len(pw) > 72 {
		return ErrPasswordTooLong
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return ErrPasswordUpper
	case !hasLower:
		return ErrPasswordLower
	case !hasDigit:
		return ErrPasswordDigit
	case !hasSpecial:
		return ErrPasswordSpecial
	}
	return nil
}
