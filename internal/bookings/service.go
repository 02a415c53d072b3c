package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/salonbooker/salonbooker/internal/availability"
	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/hours"
	"github.com/salonbooker/salonbooker/internal/observability/metrics"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/internal/validation"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

const maxIdempotencyKeyLen = 255

var bookingsTracer = otel.Tracer("salonbooker.internal.bookings")

// ConfigSource loads a salon's configuration.
type ConfigSource interface {
	Get(ctx context.Context, salonID string) (*salon.Config, error)
}

type bookingStore interface {
	Create(ctx context.Context, b *Booking, evts ...Event) error
	GetByIdempotencyKey(ctx context.Context, salonID, key string) (*Booking, error)
	Get(ctx context.Context, salonID, id string) (*Booking, error)
	ListByDate(ctx context.Context, salonID string, date time.Time) ([]*Booking, error)
	Cancel(ctx context.Context, salonID, id string, evts ...Event) error
}

// Service validates and records bookings.
type Service struct {
	repo    bookingStore
	configs ConfigSource
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService constructs a bookings service.
func NewService(repo *Repository, configs ConfigSource, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	return newService(repo, configs, m, logger)
}

func newService(repo bookingStore, configs ConfigSource, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, configs: configs, metrics: m, logger: logger, now: time.Now}
}

// WithClock overrides the clock used to enforce minimum notice.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create validates req against the salon's rules and stores it together with a
// booking.created event. A repeated idempotency key returns the original
// booking with replayed=true.
func (s *Service) Create(ctx context.Context, salonID string, req CreateRequest, idempotencyKey string) (b *Booking, replayed bool, err error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.id", salonID),
		attribute.Bool("booking.idempotent", idempotencyKey != ""),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
	}()

	if len(idempotencyKey) > maxIdempotencyKeyLen {
		return nil, false, fmt.Errorf("%w: idempotency key too long", ErrInvalidRequest)
	}
	if idempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, salonID, idempotencyKey)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}

	cfg, err := s.configs.Get(ctx, salonID)
	if err != nil {
		return nil, false, fmt.Errorf("bookings: load salon config: %w", err)
	}
	booking, startsAt, err := s.build(cfg, salonID, req)
	if err != nil {
		return nil, false, err
	}
	booking.IdempotencyKey = idempotencyKey

	payload := events.BookingCreatedV1{
		EventID:         uuid.NewString(),
		BookingID:       booking.ID,
		SalonID:         salonID,
		CustomerName:    booking.CustomerName,
		CustomerPhone:   booking.CustomerPhone,
		CustomerEmail:   booking.CustomerEmail,
		ServiceName:     booking.ServiceName,
		ServiceDuration: booking.ServiceDuration,
		StaffName:       booking.StaffName,
		BookingDate:     booking.BookingDate,
		BookingTime:     booking.BookingTime,
		StartsAt:        startsAt,
		Notes:           booking.Notes,
		Status:          booking.Status,
		CreatedAt:       booking.CreatedAt,
	}

	err = s.repo.Create(ctx, booking, Event{Type: events.TypeBookingCreatedV1, Payload: payload})
	switch {
	case errors.Is(err, ErrDuplicateKey):
		// Lost a race with a concurrent retry of the same submission.
		existing, getErr := s.repo.GetByIdempotencyKey(ctx, salonID, idempotencyKey)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, true, nil
	case errors.Is(err, ErrSlotTaken):
		s.metrics.ObserveBooking("slot_taken")
		return nil, false, err
	case err != nil:
		return nil, false, err
	}

	s.metrics.ObserveBooking(booking.Status)
	span.SetAttributes(attribute.String("booking.id", booking.ID))
	s.logger.Info("booking created",
		"salon_id", salonID,
		"booking_id", booking.ID,
		"date", booking.BookingDate,
		"time", booking.BookingTime,
		"status", booking.Status,
	)
	return booking, false, nil
}

func (s *Service) build(cfg *salon.Config, salonID string, req CreateRequest) (*Booking, time.Time, error) {
	req.normalize()
	details := validation.Details{Name: req.CustomerName, Phone: req.CustomerPhone, Email: req.CustomerEmail}
	if err := details.Validate(); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	svc, ok := cfg.ServiceByID(req.ServiceName)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("%w: unknown service %q", ErrInvalidRequest, req.ServiceName)
	}
	duration := req.ServiceDuration
	if duration <= 0 {
		duration = svc.DurationMinutes
	}

	switch req.Status {
	case "", salon.StatusPending, salon.StatusConfirmed:
	default:
		return nil, time.Time{}, fmt.Errorf("%w: status %q", ErrInvalidRequest, req.Status)
	}

	loc := cfg.Location()
	now := s.now().In(loc)
	day, err := hours.ParseDate(req.BookingDate, loc)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: booking_date %q", ErrInvalidRequest, req.BookingDate)
	}
	if !hours.DateSelectable(day, now, cfg.MaxBookingDays, cfg.Hours) {
		return nil, time.Time{}, fmt.Errorf("%w: date %s is not bookable", ErrInvalidRequest, req.BookingDate)
	}
	slot, ok := hours.NormalizeSlot(req.BookingTime)
	if !ok || !slotOpen(day, slot, cfg, now) {
		return nil, time.Time{}, fmt.Errorf("%w: time %q is not bookable", ErrInvalidRequest, req.BookingTime)
	}
	startsAt, err := hours.At(day, slot)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	staff := req.StaffName
	if staff == "" {
		staff = cfg.StaffOrDefault()[0]
	}

	return &Booking{
		ID:              uuid.NewString(),
		SalonID:         salonID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		ServiceName:     svc.Name,
		ServiceDuration: duration,
		StaffName:       staff,
		BookingDate:     hours.FormatDate(day),
		BookingTime:     slot,
		Notes:           req.Notes,
		Status:          cfg.InitialStatus,
		CreatedAt:       s.now().UTC(),
	}, startsAt, nil
}

func slotOpen(day time.Time, slot string, cfg *salon.Config, now time.Time) bool {
	candidates := hours.CandidateSlots(day, cfg.Hours)
	for _, ts := range availability.AvailableSlots(day, candidates, nil, now, cfg.MinNotice()) {
		if ts.Time == slot {
			return ts.Available
		}
	}
	return false
}

// Get returns a booking for the salon.
func (s *Service) Get(ctx context.Context, salonID, id string) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, salonID, id)
}

// ListByDate returns the day's bookings for the salon dashboard.
func (s *Service) ListByDate(ctx context.Context, salonID, date string) ([]*Booking, error) {
	cfg, err := s.configs.Get(ctx, salonID)
	if err != nil {
		return nil, fmt.Errorf("bookings: load salon config: %w", err)
	}
	day, err := hours.ParseDate(date, cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidRequest, date)
	}
	return s.repo.ListByDate(ctx, salonID, day)
}

// Cancel frees the booking's slot and emits booking.cancelled.
func (s *Service) Cancel(ctx context.Context, salonID, id string) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("salon.id", salonID), attribute.String("booking.id", id))

	existing, err := s.Get(ctx, salonID, id)
	if err != nil {
		return err
	}
	payload := events.BookingCancelledV1{
		EventID:       uuid.NewString(),
		BookingID:     existing.ID,
		SalonID:       salonID,
		CustomerName:  existing.CustomerName,
		CustomerPhone: existing.CustomerPhone,
		ServiceName:   existing.ServiceName,
		BookingDate:   existing.BookingDate,
		BookingTime:   existing.BookingTime,
		CancelledAt:   s.now().UTC(),
	}
	if err := s.repo.Cancel(ctx, salonID, id, Event{Type: events.TypeBookingCancelledV1, Payload: payload}); err != nil {
		span.RecordError(err)
		return err
	}
	s.metrics.ObserveBooking(StatusCancelled)
	s.logger.Info("booking cancelled", "salon_id", salonID, "booking_id", id)
	return nil
}
