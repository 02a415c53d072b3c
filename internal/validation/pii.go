package validation

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+31|0031|0)[\s\-]?[1-9](?:[\s\-]?[0-9]){8}`)
)

// HashPhone returns the hex SHA-256 of the E.164 form, so log lines can be
// correlated without exposing the number. Unparseable input is hashed as-is.
func HashPhone(phone string) string {
	key := E164(phone)
	if key == "" {
		key = strings.TrimSpace(phone)
	}
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// MaskPhone keeps the country prefix and last four digits: +316****5678.
func MaskPhone(phone string) string {
	if !ValidatePhone(phone) {
		return "[PHONE]"
	}
	e := E164(phone)
	return e[:4] + strings.Repeat("*", len(e)-8) + e[len(e)-4:]
}

// ScrubPII replaces emails with [EMAIL] and Dutch phone numbers with [PHONE].
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}
