package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salonbooker/salonbooker/internal/tenancy"
)

// requireSalonID validates the {salonID} route parameter and stores it on the context.
func requireSalonID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		salonID := chi.URLParam(r, "salonID")
		if !tenancy.ValidSalonID(salonID) {
			http.Error(w, `{"error":"invalid salon id"}`, http.StatusBadRequest)
			return
		}
		ctx := tenancy.WithSalonID(r.Context(), salonID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// salonIDFromRequest exposes the salon id for local handlers.
func salonIDFromRequest(r *http.Request) (string, bool) {
	return tenancy.SalonIDFromContext(r.Context())
}
