package salon

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salonbooker/salonbooker/pkg/logging"
)

// Handler provides HTTP endpoints for salon config management.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new salon config HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes mounts under /admin/salons/{salonID}/config; the parent route
// declares salonID.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetConfig)
	r.Put("/", h.UpdateConfig)
	r.Delete("/", h.ResetConfig)
	return r
}

// GetConfig returns the salon configuration.
// GET /admin/salons/{salonID}/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	if salonID == "" {
		http.Error(w, `{"error": "salon_id required"}`, http.StatusBadRequest)
		return
	}

	cfg, err := h.store.Get(r.Context(), salonID)
	if err != nil {
		h.logger.Error("failed to get salon config", "salon_id", salonID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, cfg)
}

// UpdateConfig replaces the salon configuration. Omitted fields keep their current value.
// PUT /admin/salons/{salonID}/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	if salonID == "" {
		http.Error(w, `{"error": "salon_id required"}`, http.StatusBadRequest)
		return
	}

	cfg, err := h.store.Get(r.Context(), salonID)
	if err != nil {
		h.logger.Error("failed to get salon config", "salon_id", salonID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(cfg); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	cfg.SalonID = salonID

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			writeJSON(w, h.logger, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.store.Set(r.Context(), cfg); err != nil {
		h.logger.Error("failed to save salon config", "salon_id", salonID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("salon config updated", "salon_id", salonID)
	writeJSON(w, h.logger, http.StatusOK, cfg)
}

// ResetConfig drops the saved config.
// DELETE /admin/salons/{salonID}/config
func (h *Handler) ResetConfig(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	if err := h.store.Delete(r.Context(), salonID); err != nil {
		h.logger.Error("failed to reset salon config", "salon_id", salonID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
