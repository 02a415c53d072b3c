package tenancy

import (
	"context"
	"regexp"
)

type ctxKey string

const salonKey ctxKey = "salonbooker.salon_id"

var salonIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// ValidSalonID reports whether id is a well-formed salon slug or uuid.
func ValidSalonID(id string) bool {
	return salonIDPattern.MatchString(id)
}

// WithSalonID stores the salon id in context.
func WithSalonID(ctx context.Context, salonID string) context.Context {
	return context.WithValue(ctx, salonKey, salonID)
}

// SalonIDFromContext extracts the salon id if present.
func SalonIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(salonKey)
	if val == nil {
		return "", false
	}
	salonID, ok := val.(string)
	return salonID, ok && salonID != ""
}
