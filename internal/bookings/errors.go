package bookings

import "errors"

var (
	// ErrSlotTaken is returned when another active booking holds the slot.
	ErrSlotTaken = errors.New("bookings: slot already booked")

	// ErrDuplicateKey is returned when the idempotency key was already used.
	ErrDuplicateKey = errors.New("bookings: idempotency key already used")

	// ErrNotFound is returned when a booking does not exist for the salon.
	ErrNotFound = errors.New("bookings: not found")

	// ErrInvalidRequest wraps every validation failure of a CreateRequest.
	ErrInvalidRequest = errors.New("bookings: invalid request")
)
