// Package validation checks customer details before a booking leaves the wizard.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidName is returned for names shorter than two characters.
	ErrInvalidName = errors.New("vul je naam in (minimaal 2 tekens)")

	// ErrInvalidPhone is returned for numbers that are not Dutch.
	ErrInvalidPhone = errors.New("vul een geldig Nederlands telefoonnummer in")

	// ErrInvalidEmail is returned when an email is given but malformed.
	ErrInvalidEmail = errors.New("vul een geldig e-mailadres in")
)

var (
	// National 0XXXXXXXXX (mobile 06XXXXXXXX is a subset) or international 31XXXXXXXXX.
	dutchPhonePattern = regexp.MustCompile(`^(0\d{9}|31\d{9})$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneSeparators   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// Details is the customer-entered part of a booking.
type Details struct {
	Name  string
	Phone string
	Email string
}

// ValidateName requires at least two characters after trimming.
func ValidateName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= 2
}

// ValidatePhone accepts 0612345678, 0201234567, 31612345678, +31 6 1234 5678 and 0031...
func ValidatePhone(phone string) bool {
	return dutchPhonePattern.MatchString(NormalizePhone(phone))
}

// ValidateEmail accepts an empty value; otherwise requires local@domain.tld.
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return true
	}
	return emailPattern.MatchString(email)
}

// NormalizePhone strips separators and the international prefix markers.
func NormalizePhone(phone string) string {
	digits := phoneSeparators.Replace(strings.TrimSpace(phone))
	digits = strings.TrimPrefix(digits, "+")
	if strings.HasPrefix(digits, "0031") {
		digits = digits[2:]
	}
	return digits
}

// E164 converts a valid Dutch number into +31XXXXXXXXX for SMS providers.
func E164(phone string) string {
	digits := NormalizePhone(phone)
	switch {
	case strings.HasPrefix(digits, "31"):
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+31" + digits[1:]
	default:
		return ""
	}
}

// Validate returns the first failing rule, or nil.
func (d Details) Validate() error {
	if !ValidateName(d.Name) {
		return ErrInvalidName
	}
	if !ValidatePhone(d.Phone) {
		return ErrInvalidPhone
	}
	if !ValidateEmail(d.Email) {
		return ErrInvalidEmail
	}
	return nil
}
