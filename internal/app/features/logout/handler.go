// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/auth"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, AuditLog: auditLog, Log: logger}
}

// Serve clears the session. Signing out twice is harmless, so anonymous
// requests get the same 200 as signed-in ones.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if su, ok := auth.CurrentUser(r); ok {
		userID = su.ID
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("session sign-out failed", zap.Error(err))
	}

	if userID != "" {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		h.AuditLog.Logout(ctx, r, userID)
	}

	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
