package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonbooker/salonbooker/internal/availability"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

type stubSlots struct {
	day availability.Day
	err error
}

func (s stubSlots) Slots(context.Context, string, string) (availability.Day, error) {
	return s.day, s.err
}

type stubBookedTimes struct {
	times []string
	err   error
}

func (s stubBookedTimes) BookedTimes(context.Context, string, time.Time) ([]string, error) {
	return s.times, s.err
}

func newTestHandler(store *memoryStore, slots SlotSource, booked BookedTimesSource) http.Handler {
	svc := newTestService(store)
	return NewHandler(svc, slots, booked, fixedConfigs{}, logging.Discard()).Routes()
}

const createBody = `{
	"customer_name": "Anna de Vries",
	"customer_phone": "0612345678",
	"service_name": "knippen",
	"staff_name": "",
	"booking_date": "2026-10-15",
	"booking_time": "14:30",
	"status": "pending"
}`

func TestCreateBookingEndpoint(t *testing.T) {
	store := &memoryStore{}
	router := newTestHandler(store, stubSlots{}, stubBookedTimes{})

	post := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/salon-1/bookings", strings.NewReader(createBody))
		req.Header.Set(IdempotencyHeader, key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := post("abc")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusPending, created.Status)

	rec = post("abc")
	require.Equal(t, http.StatusOK, rec.Code)
	var replay CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replay))
	assert.Equal(t, created.ID, replay.ID)

	rec = post("other")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	router := newTestHandler(&memoryStore{}, stubSlots{}, stubBookedTimes{})

	body := strings.Replace(createBody, "0612345678", "123", 1)
	req := httptest.NewRequest(http.MethodPost, "/salon-1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "telefoonnummer")

	req = httptest.NewRequest(http.MethodPost, "/salon-1/bookings", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	day := availability.Day{Date: "2026-10-15", Slots: []availability.TimeSlot{{Time: "09:00", Available: true}}}
	router := newTestHandler(&memoryStore{}, stubSlots{day: day}, stubBookedTimes{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/availability?date=2026-10-15", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2026-10-15","slots":[{"time":"09:00","available":true}]}`, rec.Body.String())

	router = newTestHandler(&memoryStore{}, stubSlots{err: availability.ErrDateNotSelectable}, stubBookedTimes{})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/availability?date=2026-10-18", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBookedTimesEndpoint(t *testing.T) {
	router := newTestHandler(&memoryStore{}, stubSlots{}, stubBookedTimes{times: []string{"10:00"}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/booked-times?date=2026-10-15", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2026-10-15","times":["10:00"]}`, rec.Body.String())

	router = newTestHandler(&memoryStore{}, stubSlots{}, stubBookedTimes{err: errors.New("down")})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/booked-times?date=2026-10-15", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/booked-times?date=tomorrow", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListServicesEndpoint(t *testing.T) {
	router := newTestHandler(&memoryStore{}, stubSlots{}, stubBookedTimes{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/services", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Services []serviceView `json:"services"`
		Staff    []string      `json:"staff"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Services)
	assert.Equal(t, "€ 35,00", body.Services[0].PriceLabel)
	assert.Equal(t, "35.00", body.Services[0].Price)
	assert.Equal(t, []string{"Geen voorkeur"}, body.Staff)
}

func TestAdminRoutes(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)
	b, _, err := svc.Create(context.Background(), "salon-1", validRequest(), "")
	require.NoError(t, err)
	router := chi.NewRouter()
	router.Mount("/{salonID}/bookings", NewHandler(svc, stubSlots{}, stubBookedTimes{}, fixedConfigs{}, logging.Discard()).AdminRoutes())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/bookings?date=2026-10-15", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/salon-1/bookings/"+b.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/salon-1/bookings/"+b.ID+"/cancel", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/salon-1/bookings/"+b.ID+"/cancel", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
