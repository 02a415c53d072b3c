// Package reminders schedules and sends appointment reminders through asynq.
package reminders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/salonbooker/salonbooker/internal/events"
)

const (
	// TypeSendReminder is the asynq task type for one reminder.
	TypeSendReminder = "booking:reminder"
	// Queue is the asynq queue reminders run on.
	Queue = "reminders"

	maxRetry = 5
)

// TaskID is the deterministic asynq task id for a booking's reminder.
func TaskID(bookingID string) string {
	return "reminder:" + bookingID
}

// NewReminderTask builds the task and its options. The task id makes a
// repeated enqueue for the same booking a conflict instead of a duplicate.
func NewReminderTask(evt events.BookingCreatedV1, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, fmt.Errorf("reminders: encode payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(TaskID(evt.BookingID)),
		asynq.Queue(Queue),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(24 * time.Hour),
	}
	return asynq.NewTask(TypeSendReminder, b), opts, nil
}
