package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/salonbooker/salonbooker/internal/hours"
	"github.com/salonbooker/salonbooker/internal/observability/metrics"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// ErrDateNotSelectable is returned for past dates, dates beyond the booking
// window, and closed weekdays.
var ErrDateNotSelectable = errors.New("availability: date not selectable")

var tracer = otel.Tracer("salonbooker.availability")

// ConfigSource loads a salon's configuration.
type ConfigSource interface {
	Get(ctx context.Context, salonID string) (*salon.Config, error)
}

// BookedTimesLookup returns the reserved booking times for a date.
type BookedTimesLookup interface {
	BookedTimes(ctx context.Context, salonID string, date time.Time) ([]string, error)
}

// Day is the availability answer for one date.
type Day struct {
	Date     string     `json:"date"`
	Slots    []TimeSlot `json:"slots"`
	Degraded bool       `json:"degraded,omitempty"`
}

// Service answers availability questions for salons.
type Service struct {
	configs ConfigSource
	booked  BookedTimesLookup
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService wires the availability service. metrics may be nil.
func NewService(configs ConfigSource, booked BookedTimesLookup, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		configs: configs,
		booked:  booked,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for "today" and minimum notice.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Slots returns the slot list for a YYYY-MM-DD date in the salon's timezone.
func (s *Service) Slots(ctx context.Context, salonID, date string) (Day, error) {
	ctx, span := tracer.Start(ctx, "availability.Slots")
	defer span.End()
	span.SetAttributes(attribute.String("salon.id", salonID), attribute.String("booking.date", date))

	cfg, err := s.configs.Get(ctx, salonID)
	if err != nil {
		span.RecordError(err)
		return Day{}, fmt.Errorf("availability: load salon config: %w", err)
	}
	loc := cfg.Location()
	day, err := hours.ParseDate(date, loc)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %v", ErrDateNotSelectable, err)
	}
	now := s.now().In(loc)
	if !hours.DateSelectable(day, now, cfg.MaxBookingDays, cfg.Hours) {
		s.metrics.ObserveAvailability("not_selectable")
		return Day{}, ErrDateNotSelectable
	}

	candidates := hours.CandidateSlots(day, cfg.Hours)
	result := Day{Date: hours.FormatDate(day)}

	booked, err := s.booked.BookedTimes(ctx, salonID, day)
	if err != nil {
		s.logger.Warn("booked times lookup failed, showing all slots",
			"salon_id", salonID,
			"date", result.Date,
			"error", err,
		)
		span.RecordError(err)
		s.metrics.ObserveAvailability("degraded")
		result.Slots = AllAvailable(day, candidates, now, cfg.MinNotice())
		result.Degraded = true
		return result, nil
	}

	s.metrics.ObserveAvailability("ok")
	result.Slots = AvailableSlots(day, candidates, booked, now, cfg.MinNotice())
	span.SetAttributes(attribute.Int("slots.available", CountAvailable(result.Slots)))
	return result, nil
}

// Dates lists the selectable dates from today through the salon's booking window.
func (s *Service) Dates(ctx context.Context, salonID string) ([]time.Time, error) {
	cfg, err := s.configs.Get(ctx, salonID)
	if err != nil {
		return nil, fmt.Errorf("availability: load salon config: %w", err)
	}
	now := s.now().In(cfg.Location())
	today := hours.DateOnly(now)
	dates := make([]time.Time, 0, cfg.MaxBookingDays+1)
	for i := 0; i <= cfg.MaxBookingDays; i++ {
		d := today.AddDate(0, 0, i)
		if hours.DateSelectable(d, now, cfg.MaxBookingDays, cfg.Hours) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}
