// internal/app/features/donations/routes.go
package donations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/summary", h.HandleSummary)
	r.Get("/export", h.HandleExport)
	r.Get("/{id}", h.HandleGet)
	r.Post("/{id}/status", h.HandleSetStatus)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
