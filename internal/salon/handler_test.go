package salon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonbooker/salonbooker/pkg/logging"
)

func mountConfig(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Mount("/{salonID}/config", h.Routes())
	return r
}

func TestHandlerGetAndUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	router := mountConfig(NewHandler(store, logging.Discard()))

	req := httptest.NewRequest(http.MethodGet, "/salon-1/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "salon-1", cfg.SalonID)

	body := `{"name":"Salon Zuid","min_notice_hours":4,"allowed_origins":["https://salonzuid.nl"]}`
	req = httptest.NewRequest(http.MethodPut, "/salon-1/config", strings.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := store.Get(context.Background(), "salon-1")
	require.NoError(t, err)
	assert.Equal(t, "Salon Zuid", saved.Name)
	assert.Equal(t, float64(4), saved.MinNoticeHours)
	assert.Equal(t, []string{"https://salonzuid.nl"}, saved.AllowedOrigins)
	assert.Equal(t, 90, saved.MaxBookingDays)
}

func TestHandlerUpdateRejectsInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	router := mountConfig(NewHandler(store, logging.Discard()))

	req := httptest.NewRequest(http.MethodPut, "/salon-1/config", strings.NewReader(`{"initial_status":"later"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/salon-1/config", strings.NewReader(`{`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerReset(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("salon:config:salon-1", `{"name":"x"}`))
	router := mountConfig(NewHandler(store, logging.Discard()))

	req := httptest.NewRequest(http.MethodDelete, "/salon-1/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, mr.Exists("salon:config:salon-1"))
}
