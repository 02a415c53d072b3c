package bookingpage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonbooker/salonbooker/internal/availability"
	"github.com/salonbooker/salonbooker/internal/salon"
	"github.com/salonbooker/salonbooker/internal/submission"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

type fixedConfigs struct {
	cfg *salon.Config
	err error
}

func (f fixedConfigs) Get(_ context.Context, salonID string) (*salon.Config, error) {
	if f.err != nil {
		return nil, f.err
	}
	cfg := *f.cfg
	cfg.SalonID = salonID
	return &cfg, nil
}

type fixedDates struct{ loc *time.Location }

func (f fixedDates) Dates(context.Context, string) ([]time.Time, error) {
	return []time.Time{
		time.Date(2026, 10, 15, 0, 0, 0, 0, f.loc),
		time.Date(2026, 10, 16, 0, 0, 0, 0, f.loc),
	}, nil
}

type fixedSlots struct{}

func (fixedSlots) Slots(_ context.Context, _ string, date string) (availability.Day, error) {
	return availability.Day{Date: date, Slots: []availability.TimeSlot{
		{Time: "14:00", Available: false},
		{Time: "14:30", Available: true},
	}}, nil
}

type recordingSubmitter struct {
	requests []submission.Request
	err      error
}

func (s *recordingSubmitter) Submit(_ context.Context, _ string, req submission.Request, _ string) (submission.Confirmation, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return submission.Confirmation{}, s.err
	}
	return submission.Confirmation{ID: "booking-42", Status: "pending"}, nil
}

type pageClient struct {
	t       *testing.T
	router  http.Handler
	cookies []*http.Cookie
}

func (c *pageClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	if cks := rec.Result().Cookies(); len(cks) > 0 {
		c.cookies = cks
	}
	return rec
}

func (c *pageClient) post(form url.Values) {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/book/kapsalon-anna?theme=dark", form)
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(c.t, "/book/kapsalon-anna?theme=dark", rec.Header().Get("Location"))
}

func (c *pageClient) page() string {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/book/kapsalon-anna?theme=dark", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func newTestPage(t *testing.T, sub *recordingSubmitter, configs ConfigSource) (*pageClient, *SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := NewSessionStore(client, time.Hour)

	if configs == nil {
		cfg := salon.DefaultConfig("kapsalon-anna")
		cfg.Name = "Kapsalon Anna"
		cfg.AllowedOrigins = []string{"https://kapsalon-anna.nl/"}
		configs = fixedConfigs{cfg: cfg}
	}
	h, err := NewHandler(Deps{
		Configs:   configs,
		Dates:     fixedDates{loc: salon.DefaultConfig("x").Location()},
		Slots:     fixedSlots{},
		Submitter: sub,
		Sessions:  sessions,
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/book", h.Routes())
	return &pageClient{t: t, router: r}, sessions
}

func TestBookingPageFullFlow(t *testing.T) {
	sub := &recordingSubmitter{}
	c, _ := newTestPage(t, sub, nil)

	rec := c.do(http.MethodGet, "/book/kapsalon-anna?theme=dark", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frame-ancestors 'self' https://kapsalon-anna.nl", rec.Header().Get("Content-Security-Policy"))
	require.NotEmpty(t, c.cookies)
	assert.Equal(t, SessionCookie, c.cookies[0].Name)
	body := rec.Body.String()
	assert.Contains(t, body, `data-theme="dark"`)
	assert.Contains(t, body, "Knippen")
	assert.Contains(t, body, "€ 35,00")

	c.post(url.Values{"action": {"select_service"}, "service_id": {"knippen"}})
	body = c.page()
	assert.Contains(t, body, "do 15 okt")

	c.post(url.Values{"action": {"select_date"}, "date": {"2026-10-15"}})
	body = c.page()
	assert.Contains(t, body, "donderdag 15 oktober 2026")
	assert.Contains(t, body, `value="14:30"`)
	assert.Regexp(t, `value="14:00"\s+disabled`, body)

	c.post(url.Values{"action": {"select_time"}, "time": {"14:30"}})
	assert.Contains(t, c.page(), `name="customer_phone"`)

	c.post(url.Values{"action": {"details"}, "customer_name": {"Anna"}, "customer_phone": {"123"}})
	body = c.page()
	assert.Contains(t, body, "Vul een geldig Nederlands telefoonnummer in.")
	assert.Contains(t, body, `name="customer_phone"`)

	c.post(url.Values{
		"action":         {"details"},
		"customer_name":  {"Anna de Vries"},
		"customer_phone": {"0612345678"},
		"staff_name":     {"Geen voorkeur"},
	})
	body = c.page()
	assert.Contains(t, body, "Controleer je afspraak")
	assert.NotContains(t, body, "telefoonnummer in.")

	c.post(url.Values{"action": {"submit"}})
	require.Len(t, sub.requests, 1)
	assert.Equal(t, "2026-10-15", sub.requests[0].BookingDate)
	assert.Equal(t, "14:30", sub.requests[0].BookingTime)

	body = c.page()
	assert.Contains(t, body, "Je afspraak is gemaakt")
	assert.Contains(t, body, "booking-42")
	assert.Contains(t, body, "BOOKING_SUBMITTED")

	body = c.page()
	assert.NotContains(t, body, "BOOKING_SUBMITTED", "booking message is delivered once")

	c.post(url.Values{"action": {"reset"}})
	assert.Contains(t, c.page(), `name="service_id"`)
}

func TestBookingPageSubmitFailureReturnsToDetails(t *testing.T) {
	sub := &recordingSubmitter{err: &submission.Error{Kind: submission.KindServer, StatusCode: 503, Attempts: 3}}
	c, _ := newTestPage(t, sub, nil)

	c.post(url.Values{"action": {"select_service"}, "service_id": {"knippen"}})
	c.post(url.Values{"action": {"select_date"}, "date": {"2026-10-15"}})
	c.post(url.Values{"action": {"select_time"}, "time": {"14:30"}})
	c.post(url.Values{"action": {"details"}, "customer_name": {"Anna de Vries"}, "customer_phone": {"0612345678"}})
	c.post(url.Values{"action": {"submit"}})

	body := c.page()
	assert.Contains(t, body, "Probeer het later opnieuw")
	assert.Contains(t, body, `value="Anna de Vries"`)
	assert.NotContains(t, body, "BOOKING_SUBMITTED")
}

func TestBookingPageStaleActionsAreIgnored(t *testing.T) {
	c, _ := newTestPage(t, &recordingSubmitter{}, nil)
	c.post(url.Values{"action": {"submit"}})
	c.post(url.Values{"action": {"bogus"}})
	body := c.page()
	assert.NotContains(t, body, `role="alert"`)
	assert.Contains(t, body, `name="service_id"`)
}

func TestBookingPageConfigErrorPostsWidgetError(t *testing.T) {
	c, _ := newTestPage(t, &recordingSubmitter{}, fixedConfigs{err: errors.New("redis down")})
	rec := c.do(http.MethodGet, "/book/kapsalon-anna", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "WIDGET_ERROR")
}

func TestBookingPageRejectsBadSalonID(t *testing.T) {
	c, _ := newTestPage(t, &recordingSubmitter{}, nil)
	rec := c.do(http.MethodGet, "/book/Not%20A%20Salon", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedirectFromFrameQuery(t *testing.T) {
	c, _ := newTestPage(t, &recordingSubmitter{}, nil)
	rec := c.do(http.MethodGet, "/book/?salon=kapsalon-anna&theme=dark&v=1", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/book/kapsalon-anna?theme=dark&v=1", rec.Header().Get("Location"))
}

func TestFrameAncestors(t *testing.T) {
	assert.Equal(t, "*", frameAncestors(nil))
	assert.Equal(t, "'self' https://a.nl http://localhost:3000", frameAncestors([]string{"https://A.nl/", "http://localhost:3000", "not an origin"}))
}

func TestSessionStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "s-1", &Record{SalonID: "kapsalon-anna", Flash: "hoi"}))
	rec, ok, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "kapsalon-anna", rec.SalonID)
	assert.Equal(t, "hoi", rec.Flash)
	assert.Equal(t, time.Minute, mr.TTL("booking:session:s-1"))

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, ok, err = store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
