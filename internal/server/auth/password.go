package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordMinLength = 8
	// PasswordMaxBytes is bcrypt's input limit.
	PasswordMaxBytes = 72
)

const specialChars = "!@#$%^&*()-_=+[]{}|;:'\",.<>?/`~"

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength lists the rules password breaks. An empty result
// means the password is acceptable.
func ValidatePasswordStrength(password string) []string {
	var violations []string

	if len([]rune(password)) < PasswordMinLength {
		violations = append(violations, "at least 8 characters")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		violations = append(violations, "an uppercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		violations = append(violations, "a lowercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		violations = append(violations, "a digit")
	}
	if !strings.ContainsAny(password, specialChars) {
		violations = append(violations, "a special character")
	}
	if len(password) > PasswordMaxBytes {
		violations = append(violations, "at most 72 bytes")
	}

	return violations
}
