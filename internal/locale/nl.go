// Package locale formats dates, times and prices the way Dutch customers read them.
package locale

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var weekdays = [...]string{"zondag", "maandag", "dinsdag", "woensdag", "donderdag", "vrijdag", "zaterdag"}

var months = [...]string{"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"}

// Weekday returns the lowercase Dutch weekday name.
func Weekday(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return weekdays[d]
}

// Month returns the lowercase Dutch month name.
func Month(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

// FormatDate renders "dinsdag 13 oktober 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", Weekday(t.Weekday()), t.Day(), Month(t.Month()), t.Year())
}

// FormatShortDate renders "di 13 okt".
func FormatShortDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s", Weekday(t.Weekday())[:2], t.Day(), Month(t.Month())[:3])
}

// FormatDateTime renders "dinsdag 13 oktober 2026 om 14:30".
func FormatDateTime(t time.Time) string {
	return fmt.Sprintf("%s om %s", FormatDate(t), t.Format("15:04"))
}

// FormatPrice renders a euro amount as "€ 1.234,50".
func FormatPrice(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("€ %s%s,%s", sign, grouped.String(), cents)
}
