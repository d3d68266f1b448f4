// internal/app/features/news/routes.go
package news

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Post("/{id}/publish", h.HandlePublish)
	r.Post("/{id}/unpublish", h.HandleUnpublish)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
