package events

import "time"

const (
	// TypeBookingCreatedV1 is emitted once per accepted booking.
	TypeBookingCreatedV1 = "booking.created.v1"
	// TypeBookingCancelledV1 is emitted when a salon cancels a booking.
	TypeBookingCancelledV1 = "booking.cancelled.v1"
)

// BookingCreatedV1 carries everything the side-effect handlers need so they
// never read the bookings table back.
type BookingCreatedV1 struct {
	EventID         string    `json:"event_id"`
	BookingID       string    `json:"booking_id"`
	SalonID         string    `json:"salon_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	ServiceName     string    `json:"service_name"`
	ServiceDuration int       `json:"service_duration"`
	StaffName       string    `json:"staff_name"`
	BookingDate     string    `json:"booking_date"`
	BookingTime     string    `json:"booking_time"`
	StartsAt        time.Time `json:"starts_at"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// BookingCancelledV1 is the payload of TypeBookingCancelledV1.
type BookingCancelledV1 struct {
	EventID       string    `json:"event_id"`
	BookingID     string    `json:"booking_id"`
	SalonID       string    `json:"salon_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	ServiceName   string    `json:"service_name"`
	BookingDate   string    `json:"booking_date"`
	BookingTime   string    `json:"booking_time"`
	CancelledAt   time.Time `json:"cancelled_at"`
}
