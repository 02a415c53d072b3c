// Package webhooks delivers booking events to the URLs a salon configured.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// HandlerName keys webhook progress in processed_events.
const HandlerName = "webhooks.salon"

const (
	EventHeader    = "X-SalonBooker-Event"
	DeliveryHeader = "X-SalonBooker-Delivery"
)

var tracer = otel.Tracer("salonbooker.internal.webhooks")

var publicTypes = map[string]string{
	events.TypeBookingCreatedV1:   "booking.created",
	events.TypeBookingCancelledV1: "booking.cancelled",
}

// ConfigSource retrieves salon configuration.
type ConfigSource interface {
	Get(ctx context.Context, salonID string) (*salon.Config, error)
}

// Envelope is the JSON body posted to every webhook URL.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	SalonID   string          `json:"salon_id"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// Dispatcher posts signed envelopes with bounded retry.
type Dispatcher struct {
	configs     ConfigSource
	client      *http.Client
	secret      []byte
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *logging.Logger
}

// NewDispatcher creates a dispatcher. An empty secret sends unsigned requests.
func NewDispatcher(configs ConfigSource, secret string, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		configs:     configs,
		client:      &http.Client{Timeout: 10 * time.Second},
		secret:      []byte(secret),
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		sleep:       sleepContext,
		logger:      logger,
	}
}

func (d *Dispatcher) WithMaxAttempts(n int) *Dispatcher {
	if n > 0 {
		d.maxAttempts = n
	}
	return d
}

func (d *Dispatcher) WithBaseDelay(delay time.Duration) *Dispatcher {
	if delay > 0 {
		d.baseDelay = delay
	}
	return d
}

func (d *Dispatcher) WithHTTPClient(c *http.Client) *Dispatcher {
	if c != nil {
		d.client = c
	}
	return d
}

// Register wires the dispatcher into the outbox fanout.
func (d *Dispatcher) Register(f *events.Fanout) {
	f.Register(HandlerName, d, events.TypeBookingCreatedV1, events.TypeBookingCancelledV1)
}

// Handle implements events.DeliveryHandler.
func (d *Dispatcher) Handle(ctx context.Context, entry events.OutboxEntry) error {
	publicType, ok := publicTypes[entry.Type]
	if !ok {
		return nil
	}
	cfg, err := d.configs.Get(ctx, entry.SalonID)
	if err != nil {
		return fmt.Errorf("webhooks: get salon config: %w", err)
	}
	if len(cfg.WebhookURLs) == 0 {
		return nil
	}
	body, err := json.Marshal(Envelope{
		ID:        entry.ID.String(),
		Type:      publicType,
		SalonID:   entry.SalonID,
		CreatedAt: entry.CreatedAt.UTC(),
		Data:      entry.Payload,
	})
	if err != nil {
		return fmt.Errorf("webhooks: encode envelope: %w", err)
	}

	var errs []error
	for _, target := range cfg.WebhookURLs {
		if err := d.deliver(ctx, target, publicType, entry.ID.String(), body); err != nil {
			d.logger.Warn("webhook delivery failed", "salon_id", entry.SalonID, "url", target, "event_id", entry.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		d.logger.Info("webhook delivered", "salon_id", entry.SalonID, "url", target, "event_id", entry.ID)
	}
	return errors.Join(errs...)
}

// deliver retries network errors, 429 and 5xx up to maxAttempts with doubling delays.
func (d *Dispatcher) deliver(ctx context.Context, target, eventType, deliveryID string, body []byte) error {
	ctx, span := tracer.Start(ctx, "webhooks.deliver")
	defer span.End()
	span.SetAttributes(attribute.String("salonbooker.webhook.url", target))

	delay := d.baseDelay
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		retry, err := d.post(ctx, target, eventType, deliveryID, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == d.maxAttempts {
			break
		}
		if err := d.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
		delay *= 2
	}
	span.RecordError(lastErr)
	return fmt.Errorf("webhooks: %s: %w", target, lastErr)
}

func (d *Dispatcher) post(ctx context.Context, target, eventType, deliveryID string, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SalonBooker-Webhooks/1")
	req.Header.Set(EventHeader, eventType)
	req.Header.Set(DeliveryHeader, deliveryID)
	if len(d.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(d.secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return false, nil
	}
	err = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
