// Package availability combines candidate slots with notice rules and booked
// times into the list a customer picks from.
package availability

import (
	"time"

	"github.com/salonbooker/salonbooker/internal/hours"
)

// TimeSlot is a time of day and whether it can still be booked.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AvailableSlots marks every candidate available unless it is booked or, when
// date is today, starts before now+minNotice. bookedTimes may be unsorted and
// may contain values that are not slots; those are ignored.
func AvailableSlots(date time.Time, candidates, bookedTimes []string, now time.Time, minNotice time.Duration) []TimeSlot {
	booked := bookedSet(bookedTimes)
	today := hours.SameDay(now, date)
	cutoff := now.Add(minNotice)
	day := hours.DateOnly(date.In(now.Location()))

	slots := make([]TimeSlot, 0, len(candidates))
	for _, candidate := range candidates {
		slot, ok := hours.NormalizeSlot(candidate)
		if !ok {
			continue
		}
		available := !booked[slot]
		if available && today {
			at, err := hours.At(day, slot)
			available = err == nil && !at.Before(cutoff)
		}
		slots = append(slots, TimeSlot{Time: slot, Available: available})
	}
	return slots
}

// AllAvailable is the degraded result used when booked times cannot be read.
// Same-day notice still applies.
func AllAvailable(date time.Time, candidates []string, now time.Time, minNotice time.Duration) []TimeSlot {
	return AvailableSlots(date, candidates, nil, now, minNotice)
}

// CountAvailable returns how many slots are bookable.
func CountAvailable(slots []TimeSlot) int {
	n := 0
	for _, s := range slots {
		if s.Available {
			n++
		}
	}
	return n
}

func bookedSet(bookedTimes []string) map[string]bool {
	set := make(map[string]bool, len(bookedTimes))
	for _, raw := range bookedTimes {
		if slot, ok := hours.NormalizeSlot(raw); ok {
			set[slot] = true
		}
	}
	return set
}
