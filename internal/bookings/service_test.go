package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

type memoryStore struct {
	mu       sync.Mutex
	bookings []*Booking
	events   []Event
}

func (m *memoryStore) Create(_ context.Context, b *Booking, evts ...Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if b.IdempotencyKey != "" && existing.IdempotencyKey == b.IdempotencyKey {
			return ErrDuplicateKey
		}
		if existing.Status != StatusCancelled && existing.BookingDate == b.BookingDate && existing.BookingTime == b.BookingTime {
			return ErrSlotTaken
		}
	}
	copied := *b
	m.bookings = append(m.bookings, &copied)
	m.events = append(m.events, evts...)
	return nil
}

func (m *memoryStore) GetByIdempotencyKey(_ context.Context, _ string, key string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.IdempotencyKey == key {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) Get(_ context.Context, _ string, id string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) ListByDate(_ context.Context, _ string, date time.Time) ([]*Booking, error) {
	var out []*Booking
	for _, b := range m.bookings {
		if b.BookingDate == date.Format("2006-01-02") {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryStore) Cancel(_ context.Context, _ string, id string, evts ...Event) error {
	for _, b := range m.bookings {
		if b.ID == id && b.Status != StatusCancelled {
			b.Status = StatusCancelled
			m.events = append(m.events, evts...)
			return nil
		}
	}
	return ErrNotFound
}

type fixedConfigs struct{ cfg *salon.Config }

func (f fixedConfigs) Get(_ context.Context, salonID string) (*salon.Config, error) {
	if f.cfg != nil {
		return f.cfg, nil
	}
	return salon.DefaultConfig(salonID), nil
}

var amsterdam, _ = time.LoadLocation("Europe/Amsterdam")

func wednesdayAfternoon() time.Time {
	return time.Date(2026, 10, 14, 15, 0, 0, 0, amsterdam)
}

func validRequest() CreateRequest {
	return CreateRequest{
		CustomerName:  "Anna de Vries",
		CustomerPhone: "06-12345678",
		CustomerEmail: "anna@example.nl",
		ServiceName:   "knippen",
		BookingDate:   "2026-10-15",
		BookingTime:   "14:30",
	}
}

func newTestService(store *memoryStore) *Service {
	return newService(store, fixedConfigs{}, nil, logging.Discard()).WithClock(wednesdayAfternoon)
}

func TestServiceCreate(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)

	b, replayed, err := svc.Create(context.Background(), "salon-1", validRequest(), "key-1")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Knippen", b.ServiceName)
	assert.Equal(t, 30, b.ServiceDuration)
	assert.Equal(t, "Geen voorkeur", b.StaffName)
	assert.Equal(t, StatusPending, b.Status)

	require.Len(t, store.events, 1)
	assert.Equal(t, events.TypeBookingCreatedV1, store.events[0].Type)
	payload := store.events[0].Payload.(events.BookingCreatedV1)
	assert.Equal(t, b.ID, payload.BookingID)
	assert.Equal(t, time.Date(2026, 10, 15, 14, 30, 0, 0, amsterdam), payload.StartsAt)
}

func TestServiceCreateReplaysIdempotencyKey(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)

	first, _, err := svc.Create(context.Background(), "salon-1", validRequest(), "key-1")
	require.NoError(t, err)
	second, replayed, err := svc.Create(context.Background(), "salon-1", validRequest(), "key-1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.bookings, 1)
	assert.Len(t, store.events, 1)
}

func TestServiceCreateSlotTaken(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)

	_, _, err := svc.Create(context.Background(), "salon-1", validRequest(), "key-1")
	require.NoError(t, err)
	_, _, err = svc.Create(context.Background(), "salon-1", validRequest(), "key-2")
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestServiceCreateValidation(t *testing.T) {
	cases := map[string]func(*CreateRequest){
		"short name":      func(r *CreateRequest) { r.CustomerName = "A" },
		"bad phone":       func(r *CreateRequest) { r.CustomerPhone = "123" },
		"bad email":       func(r *CreateRequest) { r.CustomerEmail = "anna@" },
		"unknown service": func(r *CreateRequest) { r.ServiceName = "permanent" },
		"closed day":      func(r *CreateRequest) { r.BookingDate = "2026-10-18" },
		"past":            func(r *CreateRequest) { r.BookingDate = "2026-10-13" },
		"lunch":           func(r *CreateRequest) { r.BookingTime = "12:30" },
		"off grid":        func(r *CreateRequest) { r.BookingTime = "14:10" },
		"inside notice":   func(r *CreateRequest) { r.BookingDate, r.BookingTime = "2026-10-14", "16:30" },
		"bad date":        func(r *CreateRequest) { r.BookingDate = "15-10-2026" },
		"unknown status":  func(r *CreateRequest) { r.Status = "cancelled" },
		"beyond window":   func(r *CreateRequest) { r.BookingDate = "2027-03-02" },
		"saturday late":   func(r *CreateRequest) { r.BookingDate, r.BookingTime = "2026-10-17", "16:00" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, _, err := newTestService(&memoryStore{}).Create(context.Background(), "salon-1", req, "")
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestServiceCreateUsesSalonInitialStatus(t *testing.T) {
	cfg := salon.DefaultConfig("salon-1")
	cfg.InitialStatus = salon.StatusConfirmed
	svc := newService(&memoryStore{}, fixedConfigs{cfg: cfg}, nil, logging.Discard()).WithClock(wednesdayAfternoon)

	req := validRequest()
	req.Status = "pending"
	b, _, err := svc.Create(context.Background(), "salon-1", req, "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestServiceCancel(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)
	b, _, err := svc.Create(context.Background(), "salon-1", validRequest(), "")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), "salon-1", b.ID))
	assert.Equal(t, StatusCancelled, store.bookings[0].Status)
	assert.Equal(t, events.TypeBookingCancelledV1, store.events[len(store.events)-1].Type)

	assert.ErrorIs(t, svc.Cancel(context.Background(), "salon-1", b.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Cancel(context.Background(), "salon-1", "not-a-uuid"), ErrNotFound)

	// The slot is free again.
	_, _, err = svc.Create(context.Background(), "salon-1", validRequest(), "")
	require.NoError(t, err)
}
