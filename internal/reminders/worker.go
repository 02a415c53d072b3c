package reminders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// Sender delivers the reminder message.
type Sender interface {
	SendReminder(ctx context.Context, evt events.BookingCreatedV1) error
}

// NewServer builds the asynq server that processes the reminders queue.
func NewServer(opt asynq.RedisConnOpt, concurrency int, logger *logging.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	if logger == nil {
		logger = logging.Default()
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{Queue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("reminder task failed", "type", task.Type(), "error", err)
		}),
	})
}

// NewMux routes reminder tasks to sender.
func NewMux(sender Sender, logger *logging.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSendReminder, HandleReminder(sender, logger))
	return mux
}

// HandleReminder returns the asynq handler for TypeSendReminder. Undecodable
// payloads are not retried.
func HandleReminder(sender Sender, logger *logging.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(ctx context.Context, task *asynq.Task) error {
		var evt events.BookingCreatedV1
		if err := json.Unmarshal(task.Payload(), &evt); err != nil {
			logger.Error("invalid reminder payload", "error", err)
			return fmt.Errorf("reminders: decode payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := sender.SendReminder(ctx, evt); err != nil {
			return fmt.Errorf("reminders: send: %w", err)
		}
		return nil
	}
}
