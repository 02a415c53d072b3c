// Package widget is the host side of the embeddable booking widget: it builds
// the booking iframe, checks postMessage origins and dispatches the child
// frame's messages.
package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Message types sent by the booking frame.
const (
	TypeBookingSubmitted = "BOOKING_SUBMITTED"
	TypeResize           = "WIDGET_RESIZE"
	TypeError            = "WIDGET_ERROR"
)

// ErrMalformedMessage is returned for payloads that are not a typed JSON object
// or carry invalid fields for a known type.
var ErrMalformedMessage = errors.New("widget: malformed message")

// Message is one frame-to-host message. The concrete types are
// BookingSubmitted, Resize, WidgetError and Unknown.
type Message interface {
	MessageType() string
	isMessage()
}

// BookingSubmitted carries the finalized booking.
type BookingSubmitted struct {
	Data json.RawMessage
}

// Resize asks the host to set the frame height in pixels.
type Resize struct {
	Height int
}

// WidgetError reports a failure inside the frame.
type WidgetError struct {
	Reason string
}

// Unknown is any message type this host does not understand.
type Unknown struct {
	Type string
}

func (BookingSubmitted) MessageType() string { return TypeBookingSubmitted }
func (Resize) MessageType() string           { return TypeResize }
func (WidgetError) MessageType() string      { return TypeError }
func (u Unknown) MessageType() string        { return u.Type }

func (BookingSubmitted) isMessage() {}
func (Resize) isMessage()           {}
func (WidgetError) isMessage()      {}
func (Unknown) isMessage()          {}

type envelope struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Height *float64        `json:"height,omitempty"`
	Error  *string         `json:"error,omitempty"`
}

// DecodeMessage parses a postMessage payload. Unknown types decode to Unknown
// rather than failing.
func DecodeMessage(payload []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}

	switch env.Type {
	case TypeBookingSubmitted:
		if len(env.Data) == 0 || env.Data[0] != '{' {
			return nil, fmt.Errorf("%w: %s without data object", ErrMalformedMessage, env.Type)
		}
		return BookingSubmitted{Data: env.Data}, nil
	case TypeResize:
		if env.Height == nil || math.IsNaN(*env.Height) || *env.Height < 0 {
			return nil, fmt.Errorf("%w: %s without valid height", ErrMalformedMessage, env.Type)
		}
		return Resize{Height: int(math.Round(math.Min(*env.Height, MaxHeight)))}, nil
	case TypeError:
		if env.Error == nil {
			return nil, fmt.Errorf("%w: %s without error", ErrMalformedMessage, env.Type)
		}
		return WidgetError{Reason: *env.Error}, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}

// Encode renders a message in the wire shape the host expects.
func Encode(m Message) ([]byte, error) {
	switch msg := m.(type) {
	case BookingSubmitted:
		data := msg.Data
		if len(data) == 0 {
			data = json.RawMessage(`{}`)
		}
		return json.Marshal(struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}{TypeBookingSubmitted, data})
	case Resize:
		return json.Marshal(struct {
			Type   string `json:"type"`
			Height int    `json:"height"`
		}{TypeResize, msg.Height})
	case WidgetError:
		return json.Marshal(struct {
			Type  string `json:"type"`
			Error string `json:"error"`
		}{TypeError, msg.Reason})
	case Unknown:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{msg.Type})
	default:
		return nil, fmt.Errorf("widget: encode: unsupported message %T", m)
	}
}

// NewBookingSubmitted marshals v as the data of a BOOKING_SUBMITTED message.
func NewBookingSubmitted(v any) (BookingSubmitted, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return BookingSubmitted{}, fmt.Errorf("widget: marshal booking: %w", err)
	}
	return BookingSubmitted{Data: data}, nil
}
