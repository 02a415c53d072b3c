package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/salonbooker/salonbooker/pkg/logging"
)

// ProcessedTracker remembers per-handler progress so a retried entry does not
// repeat side effects that already succeeded.
type ProcessedTracker interface {
	AlreadyProcessed(ctx context.Context, handler, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, handler, eventID string) (bool, error)
}

type route struct {
	name    string
	types   map[string]bool
	handler DeliveryHandler
}

// Fanout dispatches one outbox entry to every handler registered for its type.
type Fanout struct {
	routes  []route
	tracker ProcessedTracker
	logger  *logging.Logger
}

// NewFanout builds a fan-out handler. tracker may be nil, in which case every
// handler runs on every delivery attempt.
func NewFanout(tracker ProcessedTracker, logger *logging.Logger) *Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	return &Fanout{tracker: tracker, logger: logger}
}

// Register adds a named handler for the given event types. Names must be stable
// across deploys because they key the processed_events table.
func (f *Fanout) Register(name string, handler DeliveryHandler, eventTypes ...string) *Fanout {
	if handler == nil {
		return f
	}
	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}
	f.routes = append(f.routes, route{name: name, types: types, handler: handler})
	return f
}

// Handle implements DeliveryHandler.
func (f *Fanout) Handle(ctx context.Context, entry OutboxEntry) error {
	var errs []error
	eventID := entry.ID.String()
	for _, r := range f.routes {
		if !r.types[entry.Type] {
			continue
		}
		if f.tracker != nil {
			done, err := f.tracker.AlreadyProcessed(ctx, r.name, eventID)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if done {
				continue
			}
		}
		if err := r.handler.Handle(ctx, entry); err != nil {
			f.logger.Warn("fanout handler failed", "handler", r.name, "event_id", eventID, "type", entry.Type, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			continue
		}
		if f.tracker != nil {
			if _, err := f.tracker.MarkProcessed(ctx, r.name, eventID); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// HandlerFunc adapts a function to DeliveryHandler.
type HandlerFunc func(ctx context.Context, entry OutboxEntry) error

func (fn HandlerFunc) Handle(ctx context.Context, entry OutboxEntry) error {
	return fn(ctx, entry)
}

// Names lists the registered handler names in registration order.
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.routes))
	for _, r := range f.routes {
		names = append(names, r.name)
	}
	return names
}
