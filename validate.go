package authflow

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nameMinLen     = 2
	nameMaxLen     = 50
	passwordMinLen = 6
)

// Deliberately permissive: real deliverability is proven by the verification
// mail, not the regexp.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// normalizeEmail lowercases and trims an address. Uniqueness and lookups are
// always performed on the normalized form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= nameMinLen && n <= nameMaxLen
}

func checkEmail(ve *ValidationError, email string) {
	if email == "" {
		ve.add("email", "Email is required")
		return
	}
	if !emailPattern.MatchString(email) {
		ve.add("email", "Please provide a valid email")
	}
}

// checkPassword enforces the registration policy: at least 6 characters with
// one upper, one lower, and one digit.
func checkPassword(ve *ValidationError, password string) {
	if len(password) < passwordMinLen {
		ve.add("password", "Password must be at least 6 characters long")
		return
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		ve.add("password", "Password must contain uppercase, lowercase, and number")
	}
}

func validateRegistration(in RegisterInput) error {
	ve := &ValidationError{}
	if !validName(in.FirstName) {
		ve.add("firstName", "First name must be 2-50 characters")
	}
	if !validName(in.LastName) {
		ve.add("lastName", "Last name must be 2-50 characters")
	}
	checkEmail(ve, normalizeEmail(in.Email))
	checkPassword(ve, in.Password)
	return ve.orNil()
}

func validateNewPassword(password string) error {
	ve := &ValidationError{}
	checkPassword(ve, password)
	return ve.orNil()
}

func validateEmailOnly(email string) error {
	ve := &ValidationError{}
	checkEmail(ve, email)
	return ve.orNil()
}
