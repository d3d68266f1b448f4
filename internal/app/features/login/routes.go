// internal/app/features/login/routes.go
package login

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/system/auth"
)

// Routes mounts the authentication endpoints. /login is open; /password
// and /me require a signed-in session.
func Routes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Post("/password", h.HandleChangePassword)
		r.Get("/me", h.HandleMe)
	})
	return r
}
