// internal/app/features/reports/routes.go
package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/donations", h.HandleDonations)
	return r
}
