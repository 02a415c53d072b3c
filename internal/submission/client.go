// Package submission posts finished booking drafts to the bookings API,
// retrying transient failures.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/salonbooker/salonbooker/internal/observability/metrics"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

var submissionTracer = otel.Tracer("salonbooker.internal.submission")

// Request is the booking creation body.
type Request struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	ServiceName     string `json:"service_name"`
	ServiceDuration int    `json:"service_duration"`
	StaffName       string `json:"staff_name"`
	BookingDate     string `json:"booking_date"`
	BookingTime     string `json:"booking_time"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
}

// Confirmation is a successful submission.
type Confirmation struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Attempts int    `json:"-"`
	Replayed bool   `json:"-"`
}

// Client submits bookings over HTTP.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *logging.Logger
	metrics        *metrics.BookingMetrics
	maxAttempts    int
	baseDelay      time.Duration
	attemptTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewClient builds a client for the bookings API at baseURL.
func NewClient(baseURL string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		logger:         logger,
		maxAttempts:    3,
		baseDelay:      time.Second,
		attemptTimeout: 10 * time.Second,
		sleep:          sleepContext,
		inFlight:       make(map[string]struct{}),
	}
}

// WithMaxAttempts caps attempts per Submit, counting the first. Non-positive n is ignored.
func (c *Client) WithMaxAttempts(n int) *Client {
	if n > 0 {
		c.maxAttempts = n
	}
	return c
}

// WithBaseDelay sets the backoff unit; retry n waits n times d.
func (c *Client) WithBaseDelay(d time.Duration) *Client {
	if d > 0 {
		c.baseDelay = d
	}
	return c
}

// WithAttemptTimeout bounds each HTTP attempt.
func (c *Client) WithAttemptTimeout(d time.Duration) *Client {
	if d > 0 {
		c.attemptTimeout = d
	}
	return c
}

// WithHTTPClient replaces the default HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithMetrics records attempts and outcomes on m. m may be nil.
func (c *Client) WithMetrics(m *metrics.BookingMetrics) *Client {
	c.metrics = m
	return c
}

// Submit creates the booking. idempotencyKey identifies the draft: it is sent
// on every attempt and guards against concurrent submits of the same draft.
// An empty key gets a fresh one, which disables the guard.
func (c *Client) Submit(ctx context.Context, salonID string, req Request, idempotencyKey string) (Confirmation, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	if !c.acquire(idempotencyKey) {
		return Confirmation{}, ErrInFlight
	}
	defer c.release(idempotencyKey)

	ctx, span := submissionTracer.Start(ctx, "submission.submit")
	defer span.End()
	span.SetAttributes(attribute.String("salon.id", salonID))

	body, err := json.Marshal(req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("submission: marshal: %w", err)
	}
	endpoint := fmt.Sprintf("%s/api/v1/salons/%s/bookings", c.baseURL, url.PathEscape(salonID))

	var lastErr *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		conf, attemptErr := c.attempt(ctx, endpoint, body, idempotencyKey)
		if attemptErr == nil {
			conf.Attempts = attempt
			span.SetAttributes(attribute.Int("submission.attempts", attempt), attribute.String("booking.id", conf.ID))
			c.metrics.ObserveSubmission("success", attempt)
			c.logger.Info("booking submitted", "salon_id", salonID, "booking_id", conf.ID, "attempts", attempt)
			return conf, nil
		}
		attemptErr.Attempts = attempt
		lastErr = attemptErr
		if !attemptErr.Kind.Retryable() {
			break
		}
		if attempt < c.maxAttempts {
			delay := time.Duration(attempt) * c.baseDelay
			c.logger.Warn("booking submit failed, retrying",
				"salon_id", salonID,
				"attempt", attempt,
				"kind", attemptErr.Kind.String(),
				"status", attemptErr.StatusCode,
				"delay", delay.String(),
			)
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = &Error{Kind: KindCanceled, Attempts: attempt, Err: err}
				break
			}
		}
	}

	span.RecordError(lastErr)
	c.metrics.ObserveSubmission(lastErr.Kind.String(), lastErr.Attempts)
	c.logger.Error("booking submit failed", "salon_id", salonID, "kind", lastErr.Kind.String(), "attempts", lastErr.Attempts, "error", lastErr)
	return Confirmation{}, lastErr
}

func (c *Client) attempt(ctx context.Context, endpoint string, body []byte, key string) (Confirmation, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Confirmation{}, &Error{Kind: KindClient, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return Confirmation{}, &Error{Kind: KindCanceled, Err: ctx.Err()}
		case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
			return Confirmation{}, &Error{Kind: KindTimeout, Err: err}
		default:
			return Confirmation{}, &Error{Kind: KindNetwork, Err: err}
		}
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	if err != nil {
		if attemptCtx.Err() != nil && ctx.Err() == nil {
			return Confirmation{}, &Error{Kind: KindTimeout, StatusCode: resp.StatusCode, Err: err}
		}
		return Confirmation{}, &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var conf Confirmation
		if err := json.Unmarshal(payload, &conf); err != nil || conf.ID == "" {
			return Confirmation{}, &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: "response without booking id"}
		}
		conf.Replayed = resp.StatusCode == http.StatusOK
		return conf, nil
	}
	return Confirmation{}, classifyStatus(resp.StatusCode, payload)
}

func classifyStatus(status int, payload []byte) *Error {
	var parsed struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(payload, &parsed)
	e := &Error{StatusCode: status, Message: parsed.Error}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status >= 500:
		e.Kind = KindServer
	case status == http.StatusRequestTimeout:
		e.Kind = KindTimeout
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	default:
		e.Kind = KindClient
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (c *Client) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

func (c *Client) release(key string) {
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
