package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// HandlerName keys scheduler progress in processed_events.
const HandlerName = "reminders.schedule"

// DefaultLeadTime is how long before the appointment the reminder fires.
const DefaultLeadTime = 24 * time.Hour

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type taskDeleter interface {
	DeleteTask(queue, id string) error
}

// Scheduler turns booking events into delayed reminder tasks.
type Scheduler struct {
	client    enqueuer
	inspector taskDeleter
	leadTime  time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

// NewScheduler creates a scheduler. inspector may be nil, in which case
// cancelled bookings keep their reminder task.
func NewScheduler(client *asynq.Client, inspector *asynq.Inspector, leadTime time.Duration, logger *logging.Logger) *Scheduler {
	s := newScheduler(client, nil, leadTime, logger)
	if inspector != nil {
		s.inspector = inspector
	}
	return s
}

func newScheduler(client enqueuer, inspector taskDeleter, leadTime time.Duration, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if leadTime <= 0 {
		leadTime = DefaultLeadTime
	}
	return &Scheduler{client: client, inspector: inspector, leadTime: leadTime, now: time.Now, logger: logger}
}

// Register wires the scheduler into the outbox fanout.
func (s *Scheduler) Register(f *events.Fanout) {
	f.Register(HandlerName, s, events.TypeBookingCreatedV1, events.TypeBookingCancelledV1)
}

// Handle implements events.DeliveryHandler.
func (s *Scheduler) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeBookingCreatedV1:
		var evt events.BookingCreatedV1
		if err := entry.Decode(&evt); err != nil {
			return err
		}
		return s.Schedule(ctx, evt)
	case events.TypeBookingCancelledV1:
		var evt events.BookingCancelledV1
		if err := entry.Decode(&evt); err != nil {
			return err
		}
		return s.Cancel(evt.BookingID)
	default:
		return nil
	}
}

// Schedule enqueues the reminder leadTime before the appointment. Bookings
// made inside the lead time get no reminder.
func (s *Scheduler) Schedule(ctx context.Context, evt events.BookingCreatedV1) error {
	if evt.StartsAt.IsZero() {
		s.logger.Warn("reminder skipped: booking has no start time", "salon_id", evt.SalonID, "booking_id", evt.BookingID)
		return nil
	}
	fireAt := evt.StartsAt.Add(-s.leadTime)
	if !fireAt.After(s.now()) {
		s.logger.Debug("reminder skipped: appointment within lead time", "salon_id", evt.SalonID, "booking_id", evt.BookingID)
		return nil
	}
	task, opts, err := NewReminderTask(evt, fireAt)
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reminders: enqueue: %w", err)
	}
	s.logger.Info("reminder scheduled", "salon_id", evt.SalonID, "booking_id", evt.BookingID, "task_id", info.ID, "fire_at", fireAt)
	return nil
}

// Cancel removes a booking's pending reminder.
func (s *Scheduler) Cancel(bookingID string) error {
	if s.inspector == nil {
		return nil
	}
	err := s.inspector.DeleteTask(Queue, TaskID(bookingID))
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reminders: delete task: %w", err)
	}
	s.logger.Info("reminder cancelled", "booking_id", bookingID)
	return nil
}
