// Package wizard implements the four-step booking flow: service, date and
// time, customer details, confirmation.
package wizard

import "errors"

// State is a step of the booking flow.
type State int

const (
	SelectingService State = iota
	SelectingDateTime
	EnteringDetails
	AwaitingConfirmation
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case SelectingService:
		return "selecting_service"
	case SelectingDateTime:
		return "selecting_datetime"
	case EnteringDetails:
		return "entering_details"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is the 1-based step number shown in the progress bar.
func (s State) Step() int {
	switch s {
	case SelectingService:
		return 1
	case SelectingDateTime:
		return 2
	case EnteringDetails, Failed:
		return 3
	default:
		return 4
	}
}

var (
	// ErrInvalidTransition is returned for actions the current step does not allow.
	ErrInvalidTransition = errors.New("wizard: invalid transition")

	// ErrServiceRequired blocks leaving the service step without a selection.
	ErrServiceRequired = errors.New("kies eerst een behandeling")

	// ErrUnknownService is returned when the selected id is not on the menu.
	ErrUnknownService = errors.New("deze behandeling bestaat niet")

	// ErrDateRequired blocks leaving the date step without a date.
	ErrDateRequired = errors.New("kies een datum")

	// ErrTimeRequired blocks leaving the date step without a time.
	ErrTimeRequired = errors.New("kies een tijdstip")

	// ErrTimeUnavailable is returned when the time is not an available slot.
	ErrTimeUnavailable = errors.New("dit tijdstip is niet beschikbaar")

	// ErrSubmissionInFlight is returned for submit or reset while a submit runs.
	ErrSubmissionInFlight = errors.New("wizard: submission in flight")
)
