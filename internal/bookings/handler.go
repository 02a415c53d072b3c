package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonbooker/salonbooker/internal/availability"
	"github.com/salonbooker/salonbooker/internal/hours"
	"github.com/salonbooker/salonbooker/internal/locale"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

// IdempotencyHeader carries the client-chosen submission key.
const IdempotencyHeader = "Idempotency-Key"

// SlotSource answers availability for a date.
type SlotSource interface {
	Slots(ctx context.Context, salonID, date string) (availability.Day, error)
}

// BookedTimesSource returns reserved times for a date.
type BookedTimesSource interface {
	BookedTimes(ctx context.Context, salonID string, date time.Time) ([]string, error)
}

// Handler serves the public bookings API.
type Handler struct {
	service *Service
	slots   SlotSource
	booked  BookedTimesSource
	configs ConfigSource
	logger  *logging.Logger
}

// NewHandler creates a bookings HTTP handler.
func NewHandler(service *Service, slots SlotSource, booked BookedTimesSource, configs ConfigSource, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, slots: slots, booked: booked, configs: configs, logger: logger}
}

// Routes mounts under /api/v1/salons.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{salonID}/services", h.ListServices)
	r.Get("/{salonID}/availability", h.Availability)
	r.Get("/{salonID}/booked-times", h.BookedTimes)
	r.Post("/{salonID}/bookings", h.CreateBooking)
	return r
}

// AdminRoutes mounts under /admin/salons/{salonID}/bookings behind admin auth;
// the parent route declares salonID.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListBookings)
	r.Get("/{bookingID}", h.GetBooking)
	r.Post("/{bookingID}/cancel", h.CancelBooking)
	return r
}

type serviceView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Duration    int    `json:"duration"`
	Price       string `json:"price"`
	PriceLabel  string `json:"price_label"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListServices handles GET /api/v1/salons/{salonID}/services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	cfg, err := h.configs.Get(r.Context(), salonID)
	if err != nil {
		h.logger.Error("failed to load salon config", "salon_id", salonID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	views := make([]serviceView, 0, len(cfg.Services))
	for _, svc := range cfg.Services {
		views = append(views, serviceView{
			ID:          svc.ID,
			Name:        svc.Name,
			Duration:    svc.DurationMinutes,
			Price:       svc.Price.StringFixed(2),
			PriceLabel:  locale.FormatPrice(svc.Price),
			Icon:        svc.Icon,
			Description: svc.Description,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"services": views, "staff": cfg.StaffOrDefault()})
}

// Availability handles GET /api/v1/salons/{salonID}/availability?date=YYYY-MM-DD
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	day, err := h.slots.Slots(r.Context(), salonID, r.URL.Query().Get("date"))
	if errors.Is(err, availability.ErrDateNotSelectable) {
		writeError(w, http.StatusUnprocessableEntity, "date not selectable")
		return
	}
	if err != nil {
		h.logger.Error("availability failed", "salon_id", salonID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, day)
}

// BookedTimes handles GET /api/v1/salons/{salonID}/booked-times?date=YYYY-MM-DD
func (h *Handler) BookedTimes(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	cfg, err := h.configs.Get(r.Context(), salonID)
	if err != nil {
		h.logger.Error("failed to load salon config", "salon_id", salonID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	day, err := hours.ParseDate(r.URL.Query().Get("date"), cfg.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	times, err := h.booked.BookedTimes(r.Context(), salonID, day)
	if err != nil {
		h.logger.Error("booked times failed", "salon_id", salonID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "booked times unavailable")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"date": hours.FormatDate(day), "times": times})
}

// CreateBooking handles POST /api/v1/salons/{salonID}/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")

	var req CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	booking, replayed, err := h.service.Create(r.Context(), salonID, req, key)
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": "))
		return
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusConflict, "dit tijdstip is helaas net geboekt")
		return
	case err != nil:
		h.logger.Error("failed to create booking", "salon_id", salonID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, h.logger, status, CreateResponse{ID: booking.ID, Status: booking.Status})
}

// ListBookings handles GET /admin/salons/{salonID}/bookings?date=YYYY-MM-DD
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	list, err := h.service.ListByDate(r.Context(), salonID, r.URL.Query().Get("date"))
	if errors.Is(err, ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err != nil {
		h.logger.Error("failed to list bookings", "salon_id", salonID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if list == nil {
		list = []*Booking{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"bookings": list, "count": len(list)})
}

// GetBooking handles GET /admin/salons/{salonID}/bookings/{bookingID}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	booking, err := h.service.Get(r.Context(), salonID, chi.URLParam(r, "bookingID"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get booking", "salon_id", salonID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, booking)
}

// CancelBooking handles POST /admin/salons/{salonID}/bookings/{bookingID}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	err := h.service.Cancel(r.Context(), salonID, chi.URLParam(r, "bookingID"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to cancel booking", "salon_id", salonID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
