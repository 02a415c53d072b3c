package submission

import (
	"errors"
	"fmt"
)

// ErrInFlight is returned when the same draft is submitted while an earlier
// submit for it has not finished.
var ErrInFlight = errors.New("submission: already in flight")

// Kind classifies a failed submission.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindServer
	KindRateLimited
	KindValidation
	KindConflict
	KindClient
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindRateLimited:
		return "rate_limited"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindClient:
		return "client"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether another attempt may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer, KindRateLimited:
		return true
	default:
		return false
	}
}

// Error is returned by Client.Submit for every failed submission.
type Error struct {
	Kind       Kind
	StatusCode int
	Attempts   int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission: %s (status %d, %d attempts): %s", e.Kind, e.StatusCode, e.Attempts, msg)
	}
	return fmt.Sprintf("submission: %s (%d attempts): %s", e.Kind, e.Attempts, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the final failure was of a retryable kind, i.e.
// the attempt budget ran out rather than the server rejecting the booking.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// UserMessage is the Dutch text shown in the booking form.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		return "Controleer je gegevens en probeer het opnieuw."
	case KindConflict:
		return "Dit tijdstip is helaas net geboekt. Kies een ander tijdstip."
	case KindCanceled:
		return "Het versturen is afgebroken."
	case KindClient:
		return "Je boeking kon niet worden verwerkt."
	default:
		return "Er ging iets mis bij het versturen. Probeer het later opnieuw."
	}
}
