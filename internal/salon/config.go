// Package salon holds per-salon booking configuration: opening hours, the
// service menu, the booking window and notification preferences.
package salon

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/salonbooker/salonbooker/internal/hours"
)

const (
	// StatusPending is the initial status when the salon confirms by hand.
	StatusPending = "pending"
	// StatusConfirmed is the initial status for auto-confirming salons.
	StatusConfirmed = "confirmed"

	defaultTimezone       = "Europe/Amsterdam"
	defaultMinNoticeHours = 2
	defaultMaxBookingDays = 90
	defaultStaffName      = "Geen voorkeur"
)

// ErrInvalidConfig wraps every validation failure of a Config.
var ErrInvalidConfig = errors.New("salon: invalid config")

// Service is a bookable treatment.
type Service struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	DurationMinutes int             `json:"duration"`
	Price           decimal.Decimal `json:"price"`
	Icon            string          `json:"icon,omitempty"`
	Description     string          `json:"description,omitempty"`
}

// Duration returns the treatment length.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// NotificationPrefs controls which side effects follow a new booking.
type NotificationPrefs struct {
	SMSEnabled      bool   `json:"sms_enabled"`
	EmailEnabled    bool   `json:"email_enabled"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	SalonEmail      string `json:"salon_email,omitempty"`
	CalendarSync    bool   `json:"calendar_sync"`
}

// Config is everything the booking flow needs to know about one salon.
type Config struct {
	SalonID        string            `json:"salon_id"`
	Name           string            `json:"name"`
	Timezone       string            `json:"timezone"`
	Phone          string            `json:"phone,omitempty"`
	Address        string            `json:"address,omitempty"`
	Hours          hours.Rules       `json:"hours"`
	Services       []Service         `json:"services"`
	Staff          []string          `json:"staff,omitempty"`
	MinNoticeHours float64           `json:"min_notice_hours"`
	MaxBookingDays int               `json:"max_booking_days"`
	InitialStatus  string            `json:"initial_status"`
	WebhookURLs    []string          `json:"webhook_urls,omitempty"`
	AllowedOrigins []string          `json:"allowed_origins,omitempty"`
	CalendarID     string            `json:"calendar_id,omitempty"`
	Notifications  NotificationPrefs `json:"notifications"`
}

// DefaultConfig returns the configuration used for salons that have not saved one yet.
func DefaultConfig(salonID string) *Config {
	return &Config{
		SalonID:        salonID,
		Name:           "Salon",
		Timezone:       defaultTimezone,
		Hours:          hours.DefaultRules(),
		Services:       DefaultServices(),
		Staff:          []string{defaultStaffName},
		MinNoticeHours: defaultMinNoticeHours,
		MaxBookingDays: defaultMaxBookingDays,
		InitialStatus:  StatusPending,
		Notifications: NotificationPrefs{
			SMSEnabled:      true,
			EmailEnabled:    true,
			ReminderEnabled: true,
		},
	}
}

// DefaultServices is the starter menu shown until a salon configures its own.
func DefaultServices() []Service {
	return []Service{
		{ID: "knippen", Name: "Knippen", DurationMinutes: 30, Price: decimal.NewFromInt(35), Icon: "✂️", Description: "Wassen, knippen en föhnen"},
		{ID: "kleuren", Name: "Kleuren", DurationMinutes: 90, Price: decimal.NewFromInt(75), Icon: "🎨", Description: "Uitgroei of volledige kleuring"},
		{ID: "highlights", Name: "Highlights", DurationMinutes: 120, Price: decimal.NewFromInt(95), Icon: "✨", Description: "Folie highlights inclusief toner"},
		{ID: "baard", Name: "Baard trimmen", DurationMinutes: 15, Price: decimal.NewFromInt(15), Icon: "🧔", Description: "Bijwerken en in model brengen"},
	}
}

// Location resolves the salon timezone, falling back to Europe/Amsterdam.
func (c *Config) Location() *time.Location {
	if c != nil && c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(defaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// MinNotice returns the minimum lead time for same-day bookings.
func (c *Config) MinNotice() time.Duration {
	return time.Duration(c.MinNoticeHours * float64(time.Hour))
}

// ServiceByID finds a service by id, falling back to a case-insensitive name match.
func (c *Config) ServiceByID(id string) (Service, bool) {
	id = strings.TrimSpace(id)
	for _, svc := range c.Services {
		if svc.ID == id {
			return svc, true
		}
	}
	for _, svc := range c.Services {
		if strings.EqualFold(svc.Name, id) {
			return svc, true
		}
	}
	return Service{}, false
}

// StaffOrDefault returns the configured staff list, never empty.
func (c *Config) StaffOrDefault() []string {
	if len(c.Staff) == 0 {
		return []string{defaultStaffName}
	}
	return c.Staff
}

// Validate checks the configuration before it is saved.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SalonID) == "" {
		return fmt.Errorf("%w: salon_id required", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q", ErrInvalidConfig, c.Timezone)
	}
	if err := c.Hours.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MinNoticeHours < 0 {
		return fmt.Errorf("%w: min_notice_hours must not be negative", ErrInvalidConfig)
	}
	if c.MaxBookingDays < 0 {
		return fmt.Errorf("%w: max_booking_days must not be negative", ErrInvalidConfig)
	}
	switch c.InitialStatus {
	case StatusPending, StatusConfirmed:
	default:
		return fmt.Errorf("%w: initial_status %q", ErrInvalidConfig, c.InitialStatus)
	}
	seen := make(map[string]bool, len(c.Services))
	for _, svc := range c.Services {
		if svc.ID == "" || svc.Name == "" {
			return fmt.Errorf("%w: service id and name required", ErrInvalidConfig)
		}
		if seen[svc.ID] {
			return fmt.Errorf("%w: duplicate service %q", ErrInvalidConfig, svc.ID)
		}
		seen[svc.ID] = true
		if svc.DurationMinutes <= 0 {
			return fmt.Errorf("%w: service %q duration must be positive", ErrInvalidConfig, svc.ID)
		}
		if svc.Price.IsNegative() {
			return fmt.Errorf("%w: service %q price must not be negative", ErrInvalidConfig, svc.ID)
		}
	}
	for _, raw := range append(append([]string{}, c.WebhookURLs...), c.AllowedOrigins...) {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("%w: url %q", ErrInvalidConfig, raw)
		}
	}
	return nil
}
