// Package calendar mirrors online bookings into the salon's Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/hours"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// HandlerName keys calendar progress in processed_events.
const HandlerName = "calendar.sync"

// ConfigSource retrieves salon configuration.
type ConfigSource interface {
	Get(ctx context.Context, salonID string) (*salon.Config, error)
}

// Syncer inserts and removes calendar events for bookings.
type Syncer struct {
	svc       *gcal.Service
	configs   ConfigSource
	defaultID string
	logger    *logging.Logger
}

// NewSyncer builds a syncer from a service-account credentials file. Extra
// options are appended, which tests use to point at a local endpoint.
func NewSyncer(ctx context.Context, credentialsFile, defaultCalendarID string, configs ConfigSource, logger *logging.Logger, opts ...option.ClientOption) (*Syncer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var all []option.ClientOption
	if credentialsFile != "" {
		all = append(all, option.WithCredentialsFile(credentialsFile), option.WithScopes(gcal.CalendarEventsScope))
	}
	all = append(all, opts...)
	svc, err := gcal.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("calendar: new service: %w", err)
	}
	return &Syncer{svc: svc, configs: configs, defaultID: defaultCalendarID, logger: logger}, nil
}

// Register wires the syncer into the outbox fanout.
func (s *Syncer) Register(f *events.Fanout) {
	f.Register(HandlerName, s, events.TypeBookingCreatedV1, events.TypeBookingCancelledV1)
}

// Handle implements events.DeliveryHandler.
func (s *Syncer) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeBookingCreatedV1:
		var evt events.BookingCreatedV1
		if err := entry.Decode(&evt); err != nil {
			return err
		}
		return s.Insert(ctx, evt)
	case events.TypeBookingCancelledV1:
		var evt events.BookingCancelledV1
		if err := entry.Decode(&evt); err != nil {
			return err
		}
		return s.Remove(ctx, evt.SalonID, evt.BookingID)
	default:
		return nil
	}
}

func (s *Syncer) target(ctx context.Context, salonID string) (*salon.Config, string, error) {
	cfg, err := s.configs.Get(ctx, salonID)
	if err != nil {
		return nil, "", fmt.Errorf("calendar: get salon config: %w", err)
	}
	if !cfg.Notifications.CalendarSync {
		return cfg, "", nil
	}
	id := cfg.CalendarID
	if id == "" {
		id = s.defaultID
	}
	return cfg, id, nil
}

// Insert creates the calendar event. The event id is derived from the booking
// id, so a repeated insert reports a conflict that is treated as success.
func (s *Syncer) Insert(ctx context.Context, evt events.BookingCreatedV1) error {
	cfg, calendarID, err := s.target(ctx, evt.SalonID)
	if err != nil || calendarID == "" {
		return err
	}
	event, err := buildEvent(cfg, evt)
	if err != nil {
		return err
	}
	_, err = s.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if hasStatus(err, http.StatusConflict) {
		s.logger.Debug("calendar event already exists", "salon_id", evt.SalonID, "booking_id", evt.BookingID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("calendar: insert event: %w", err)
	}
	s.logger.Info("calendar event created", "salon_id", evt.SalonID, "booking_id", evt.BookingID, "calendar_id", calendarID)
	return nil
}

// Remove deletes the calendar event for a cancelled booking.
func (s *Syncer) Remove(ctx context.Context, salonID, bookingID string) error {
	_, calendarID, err := s.target(ctx, salonID)
	if err != nil || calendarID == "" {
		return err
	}
	err = s.svc.Events.Delete(calendarID, EventID(bookingID)).Context(ctx).Do()
	if hasStatus(err, http.StatusNotFound) || hasStatus(err, http.StatusGone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("calendar: delete event: %w", err)
	}
	s.logger.Info("calendar event removed", "salon_id", salonID, "booking_id", bookingID)
	return nil
}

// EventID maps a booking id onto the base32hex alphabet Google requires.
func EventID(bookingID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(bookingID) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'v') {
			b.WriteRune(r)
		}
	}
	id := b.String()
	for len(id) < 5 {
		id += "0"
	}
	return "sb" + id
}

func buildEvent(cfg *salon.Config, evt events.BookingCreatedV1) (*gcal.Event, error) {
	loc := cfg.Location()
	start := evt.StartsAt
	if start.IsZero() {
		day, err := hours.ParseDate(evt.BookingDate, loc)
		if err != nil {
			return nil, fmt.Errorf("calendar: booking date: %w", err)
		}
		start, err = hours.At(day, evt.BookingTime)
		if err != nil {
			return nil, fmt.Errorf("calendar: booking time: %w", err)
		}
	}
	start = start.In(loc)
	duration := time.Duration(evt.ServiceDuration) * time.Minute
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Telefoon: %s\n", evt.CustomerPhone)
	if evt.CustomerEmail != "" {
		fmt.Fprintf(&desc, "E-mail: %s\n", evt.CustomerEmail)
	}
	if evt.StaffName != "" {
		fmt.Fprintf(&desc, "Medewerker: %s\n", evt.StaffName)
	}
	if evt.Notes != "" {
		fmt.Fprintf(&desc, "Opmerkingen: %s\n", evt.Notes)
	}
	fmt.Fprintf(&desc, "Referentie: %s", evt.BookingID)

	status := "confirmed"
	if evt.Status == salon.StatusPending {
		status = "tentative"
	}
	return &gcal.Event{
		Id:          EventID(evt.BookingID),
		Summary:     fmt.Sprintf("%s: %s", evt.ServiceName, evt.CustomerName),
		Description: desc.String(),
		Status:      status,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()},
		End:         &gcal.EventDateTime{DateTime: start.Add(duration).Format(time.RFC3339), TimeZone: loc.String()},
	}, nil
}

func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
