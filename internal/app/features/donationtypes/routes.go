// internal/app/features/donationtypes/routes.go
package donationtypes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/pending", h.HandlePending)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Post("/{id}/validate", h.HandleValidate)
	r.Post("/{id}/sync", h.HandleSync)
	r.Post("/{id}/active", h.HandleSetActive)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
