package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for booking dates.
const DateLayout = "2006-01-02"

// CandidateSlots returns every bookable "HH:MM" slot for date in ascending order.
// Closed days yield an empty slice.
func CandidateSlots(date time.Time, rules Rules) []string {
	day := rules.ForDay(date.Weekday())
	slots := []string{}
	if !day.Open {
		return slots
	}

	step := rules.slotMinutes()
	start := int(day.StartHour * 60)
	end := int(day.EndHour * 60)
	for minute := start; minute < end; minute += step {
		decimal := float64(minute) / 60
		if day.inLunch(decimal) {
			continue
		}
		if !day.inWindow(decimal) {
			continue
		}
		slots = append(slots, FormatSlot(minute/60, minute%60))
	}
	return slots
}

func (d DayHours) inLunch(decimal float64) bool {
	return d.LunchEnd > d.LunchStart && decimal >= d.LunchStart && decimal < d.LunchEnd
}

func (d DayHours) inWindow(decimal float64) bool {
	if d.WindowEnd <= d.WindowStart {
		return true
	}
	return decimal >= d.WindowStart && decimal < d.WindowEnd
}

// DateSelectable reports whether date can be booked: between today and
// today+maxBookingDays (inclusive, in now's location) and on an open weekday.
func DateSelectable(date, now time.Time, maxBookingDays int, rules Rules) bool {
	today := DateOnly(now)
	day := DateOnly(date.In(now.Location()))
	if day.Before(today) {
		return false
	}
	if day.After(today.AddDate(0, 0, maxBookingDays)) {
		return false
	}
	return rules.ForDay(day.Weekday()).Open
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("hours: parse date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatSlot renders hour and minute as "HH:MM".
func FormatSlot(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseSlot parses "HH:MM" (seconds, as returned by SQL time columns, are ignored).
func ParseSlot(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("hours: invalid slot %q", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hours: invalid slot hour %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("hours: invalid slot minute %q", value)
	}
	return hour, minute, nil
}

// NormalizeSlot converts a slot-like value to canonical "HH:MM".
func NormalizeSlot(value string) (string, bool) {
	hour, minute, err := ParseSlot(value)
	if err != nil {
		return "", false
	}
	return FormatSlot(hour, minute), true
}

// At returns the instant at slot "HH:MM" on date, in date's location.
func At(date time.Time, slot string) (time.Time, error) {
	hour, minute, err := ParseSlot(slot)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location()), nil
}
