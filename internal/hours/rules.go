// Package hours turns a salon's opening-hours rules into bookable time-of-day slots.
package hours

import (
	"errors"
	"fmt"
	"time"
)

// NoDay disables a weekday exception (late closing or short day).
const NoDay time.Weekday = -1

// DefaultSlotMinutes is the slot granularity used when rules leave it unset.
const DefaultSlotMinutes = 30

var (
	// ErrInvalidRules is returned when opening-hours rules are inconsistent.
	ErrInvalidRules = errors.New("hours: invalid rules")
)

// DayHours is the resolved opening window for a single weekday. Hours are
// decimal (12.5 is 12:30). A zero WindowEnd means no extra truncation.
type DayHours struct {
	Open        bool    `json:"open"`
	StartHour   float64 `json:"start_hour"`
	EndHour     float64 `json:"end_hour"`
	LunchStart  float64 `json:"lunch_start,omitempty"`
	LunchEnd    float64 `json:"lunch_end,omitempty"`
	WindowStart float64 `json:"window_start,omitempty"`
	WindowEnd   float64 `json:"window_end,omitempty"`
}

// Rules describes opening hours as a base day plus named weekday exceptions.
// Overrides, usually loaded from storage, replace the resolved day entirely.
type Rules struct {
	StartHour   float64        `json:"start_hour"`
	EndHour     float64        `json:"end_hour"`
	LunchStart  float64        `json:"lunch_start"`
	LunchEnd    float64        `json:"lunch_end"`
	SlotMinutes int            `json:"slot_minutes"`
	ClosedDays  []time.Weekday `json:"closed_days"`

	// LateDay closes at LateEndHour instead of EndHour.
	LateDay     time.Weekday `json:"late_day"`
	LateEndHour float64      `json:"late_end_hour"`

	// ShortDay keeps only the [ShortDayStart, ShortDayEnd) part of its slots.
	ShortDay      time.Weekday `json:"short_day"`
	ShortDayStart float64      `json:"short_day_start"`
	ShortDayEnd   float64      `json:"short_day_end"`

	Overrides map[time.Weekday]DayHours `json:"overrides,omitempty"`
}

// DefaultRules returns the standard salon week: Tuesday to Saturday 09:00-18:00
// with a lunch break at noon, Thursday late until 20:00, Saturday 09:00-16:00.
func DefaultRules() Rules {
	return Rules{
		StartHour:     9,
		EndHour:       18,
		LunchStart:    12,
		LunchEnd:      13,
		SlotMinutes:   DefaultSlotMinutes,
		ClosedDays:    []time.Weekday{time.Sunday, time.Monday},
		LateDay:       time.Thursday,
		LateEndHour:   20,
		ShortDay:      time.Saturday,
		ShortDayStart: 9,
		ShortDayEnd:   16,
	}
}

// ForDay resolves the opening window for weekday.
func (r Rules) ForDay(weekday time.Weekday) DayHours {
	if override, ok := r.Overrides[weekday]; ok {
		return override
	}
	if r.IsClosedDay(weekday) {
		return DayHours{Open: false}
	}
	day := DayHours{
		Open:       true,
		StartHour:  r.StartHour,
		EndHour:    r.EndHour,
		LunchStart: r.LunchStart,
		LunchEnd:   r.LunchEnd,
	}
	if r.LateDay != NoDay && weekday == r.LateDay && r.LateEndHour > 0 {
		day.EndHour = r.LateEndHour
	}
	if r.ShortDay != NoDay && weekday == r.ShortDay && r.ShortDayEnd > r.ShortDayStart {
		day.WindowStart = r.ShortDayStart
		day.WindowEnd = r.ShortDayEnd
	}
	return day
}

// IsClosedDay reports whether weekday is in the closed set.
func (r Rules) IsClosedDay(weekday time.Weekday) bool {
	for _, closed := range r.ClosedDays {
		if closed == weekday {
			return true
		}
	}
	return false
}

func (r Rules) slotMinutes() int {
	if r.SlotMinutes <= 0 {
		return DefaultSlotMinutes
	}
	return r.SlotMinutes
}

// Validate checks that the rules can produce a sensible schedule.
func (r Rules) Validate() error {
	if r.SlotMinutes < 0 || (r.SlotMinutes > 0 && 60%r.SlotMinutes != 0 && r.SlotMinutes%60 != 0) {
		return fmt.Errorf("%w: slot_minutes %d must divide an hour", ErrInvalidRules, r.SlotMinutes)
	}
	if err := validateWindow(r.StartHour, r.EndHour); err != nil {
		return err
	}
	if r.LunchEnd < r.LunchStart {
		return fmt.Errorf("%w: lunch ends before it starts", ErrInvalidRules)
	}
	if r.LateDay != NoDay && r.LateEndHour != 0 {
		if err := validateWindow(r.StartHour, r.LateEndHour); err != nil {
			return err
		}
	}
	for weekday, day := range r.Overrides {
		if weekday < time.Sunday || weekday > time.Saturday {
			return fmt.Errorf("%w: unknown weekday %d", ErrInvalidRules, weekday)
		}
		if !day.Open {
			continue
		}
		if err := validateWindow(day.StartHour, day.EndHour); err != nil {
			return fmt.Errorf("%s: %w", weekday, err)
		}
	}
	return nil
}

func validateWindow(start, end float64) error {
	if start < 0 || end > 24 || start >= end {
		return fmt.Errorf("%w: window [%v, %v) out of range", ErrInvalidRules, start, end)
	}
	return nil
}
