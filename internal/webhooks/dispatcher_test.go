package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

type staticConfigs struct {
	urls []string
	err  error
}

func (s staticConfigs) Get(_ context.Context, salonID string) (*salon.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := salon.DefaultConfig(salonID)
	cfg.WebhookURLs = s.urls
	return cfg, nil
}

func newTestDispatcher(urls ...string) *Dispatcher {
	d := NewDispatcher(staticConfigs{urls: urls}, "whsec", logging.Discard()).WithMaxAttempts(3)
	d.sleep = func(context.Context, time.Duration) error { return nil }
	return d
}

func createdEntry() events.OutboxEntry {
	return events.OutboxEntry{
		ID:        uuid.MustParse("7b0c3c8e-5b1f-4a53-9a39-1d8f3b0a7c11"),
		SalonID:   "kapsalon-anna",
		Type:      events.TypeBookingCreatedV1,
		Payload:   json.RawMessage(`{"booking_id":"b-1","booking_time":"14:30"}`),
		CreatedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestDispatcherPostsSignedEnvelope(t *testing.T) {
	var got struct {
		body      []byte
		signature string
		event     string
		delivery  string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.body, _ = io.ReadAll(r.Body)
		got.signature = r.Header.Get(SignatureHeader)
		got.event = r.Header.Get(EventHeader)
		got.delivery = r.Header.Get(DeliveryHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newTestDispatcher(srv.URL).Handle(context.Background(), createdEntry()))

	assert.True(t, Verify([]byte("whsec"), got.body, got.signature))
	assert.Equal(t, "booking.created", got.event)
	assert.Equal(t, "7b0c3c8e-5b1f-4a53-9a39-1d8f3b0a7c11", got.delivery)

	var env Envelope
	require.NoError(t, json.Unmarshal(got.body, &env))
	assert.Equal(t, "booking.created", env.Type)
	assert.Equal(t, "kapsalon-anna", env.SalonID)
	assert.JSONEq(t, `{"booking_id":"b-1","booking_time":"14:30"}`, string(env.Data))
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestDispatcher(srv.URL).Handle(context.Background(), createdEntry()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDispatcherGivesUpAfterBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestDispatcher(srv.URL).Handle(context.Background(), createdEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(3), calls.Load())
}

func TestDispatcherClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown hook", http.StatusGone)
	}))
	defer srv.Close()

	require.Error(t, newTestDispatcher(srv.URL).Handle(context.Background(), createdEntry()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatcherSkipsWithoutURLsOrUnknownTypes(t *testing.T) {
	assert.NoError(t, newTestDispatcher().Handle(context.Background(), createdEntry()))

	entry := createdEntry()
	entry.Type = "booking.moved.v9"
	assert.NoError(t, newTestDispatcher("http://127.0.0.1:1").Handle(context.Background(), entry))

	d := NewDispatcher(staticConfigs{err: errors.New("redis down")}, "", logging.Discard())
	assert.Error(t, d.Handle(context.Background(), createdEntry()))
}

func TestDispatcherStopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(staticConfigs{urls: []string{srv.URL}}, "", logging.Discard()).WithBaseDelay(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := d.Handle(ctx, createdEntry())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSignAndVerify(t *testing.T) {
	body := []byte(`{"type":"booking.created"}`)
	sig := Sign([]byte("k"), body)
	assert.True(t, Verify([]byte("k"), body, sig))
	assert.False(t, Verify([]byte("other"), body, sig))
	assert.False(t, Verify([]byte("k"), []byte(`{}`), sig))
	assert.False(t, Verify([]byte("k"), body, "sha1=abc"))
	assert.False(t, Verify([]byte("k"), body, "sha256=zz"))
	assert.False(t, Verify(nil, body, sig))
}
