// internal/app/features/dioceses/routes.go
package dioceses

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{code}", h.HandleGet)
	r.Put("/{code}", h.HandleUpdate)
	r.Post("/{code}/active", h.HandleSetActive)
	return r
}
