package bookings

import (
	"strings"
	"time"
)

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Booking is a stored appointment.
type Booking struct {
	ID              string    `json:"id"`
	SalonID         string    `json:"salon_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	ServiceName     string    `json:"service_name"`
	ServiceDuration int       `json:"service_duration"`
	StaffName       string    `json:"staff_name"`
	BookingDate     string    `json:"booking_date"`
	BookingTime     string    `json:"booking_time"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	IdempotencyKey  string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateRequest is the booking creation payload accepted by the API.
type CreateRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	ServiceName     string `json:"service_name"`
	ServiceDuration int    `json:"service_duration"`
	StaffName       string `json:"staff_name"`
	BookingDate     string `json:"booking_date"`
	BookingTime     string `json:"booking_time"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status,omitempty"`
}

func (r *CreateRequest) normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.ServiceName = strings.TrimSpace(r.ServiceName)
	r.StaffName = strings.TrimSpace(r.StaffName)
	r.BookingDate = strings.TrimSpace(r.BookingDate)
	r.BookingTime = strings.TrimSpace(r.BookingTime)
	r.Notes = strings.TrimSpace(r.Notes)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

// CreateResponse is returned from POST /bookings.
type CreateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
