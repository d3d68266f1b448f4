// internal/app/features/logout/routes.go
package logout

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Serve)
	return r
}
