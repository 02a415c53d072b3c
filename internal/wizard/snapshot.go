package wizard

import (
	"errors"

	"github.com/salonbooker/salonbooker/internal/availability"
)

// Snapshot is the serializable state of a wizard between requests.
type Snapshot struct {
	State     State                   `json:"state"`
	Draft     Draft                   `json:"draft"`
	SlotsDate string                  `json:"slots_date,omitempty"`
	Slots     []availability.TimeSlot `json:"slots,omitempty"`
	Degraded  bool                    `json:"degraded,omitempty"`
	LastError string                  `json:"last_error,omitempty"`
	Key       string                  `json:"key,omitempty"`
	Completed *Result                 `json:"completed,omitempty"`
}

// Snapshot captures the wizard. A wizard caught mid-submit is saved as
// AwaitingConfirmation so a restored copy can submit again with the same key.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := w.state
	if state == Submitting {
		state = AwaitingConfirmation
	}
	s := Snapshot{
		State:     state,
		Draft:     w.draft,
		SlotsDate: w.slotsDate,
		Slots:     append([]availability.TimeSlot(nil), w.slots...),
		Degraded:  w.degraded,
		Key:       w.key,
		Completed: w.completed,
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}

// Restore replaces the wizard's state with s.
func (w *Wizard) Restore(s Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := s.State
	switch state {
	case Submitting, Failed:
		state = EnteringDetails
	}
	if state < SelectingService || state > Failed {
		state = SelectingService
	}
	w.state = state
	w.draft = s.Draft
	w.slotsDate = s.SlotsDate
	w.slots = append([]availability.TimeSlot(nil), s.Slots...)
	w.degraded = s.Degraded
	w.key = s.Key
	w.completed = s.Completed
	w.lastErr = nil
	if s.LastError != "" {
		w.lastErr = errors.New(s.LastError)
	}
}
