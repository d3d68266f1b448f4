// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	userstore "github.com/samaquete/jangubi/internal/app/store/users"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/auth"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/normalize"
	"github.com/samaquete/jangubi/internal/app/system/ratelimit"
	"github.com/samaquete/jangubi/internal/app/system/status"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler authenticates admin accounts with email and password.
type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, auditLog *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		AuditLog:   auditLog,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionUserView is the profile the dashboard gets back after sign-in.
type sessionUserView struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	DioceseID          string `json:"dioceseId,omitempty"`
	ParishID           string `json:"parishId,omitempty"`
	ChurchID           string `json:"churchId,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

func viewOf(u models.User) sessionUserView {
	v := sessionUserView{
		ID:                 u.ID.Hex(),
		Name:               u.FullName,
		Email:              u.Email,
		Role:               u.Role,
		DioceseID:          u.DioceseID,
		MustChangePassword: u.MustChangePassword,
	}
	if u.ParishID != nil {
		v.ParishID = u.ParishID.Hex()
	}
	if u.ChurchID != nil {
		v.ChurchID = u.ChurchID.Hex()
	}
	return v
}

// HandleLogin handles POST /login.
//
// Failed lookups and wrong passwords return the same message so the
// endpoint does not confirm which emails exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		apierr.BadRequest(w, "Email and password are required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, "rate limited", email)
		jsonio.Write(w, http.StatusTooManyRequests, map[string]string{"error": msg})
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, "unknown email", email)
		apierr.BadRequest(w, "Incorrect email or password.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "signing in", err)
		return
	}
	if u.Status != status.Active {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, "account disabled", email)
		apierr.BadRequest(w, "Incorrect email or password.")
		return
	}
	if !userstore.VerifyPassword(u, req.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, "wrong password", email)
		apierr.BadRequest(w, "Incorrect email or password.")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("session sign-in failed", zap.Error(err))
		apierr.Render(w, apierr.ErrTransient, "signing in")
		return
	}

	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)
	jsonio.Write(w, http.StatusOK, viewOf(u))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword handles POST /password for the signed-in user.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Unauthorized(w, "changing password")
		return
	}

	var req changePasswordRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if len(req.NewPassword) < 8 {
		apierr.BadRequest(w, "New password must be at least 8 characters.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, su.Email)
	if err != nil {
		apierr.RenderStore(w, h.Log, "changing password", err)
		return
	}
	if !userstore.VerifyPassword(u, req.CurrentPassword) {
		apierr.BadRequest(w, "Current password is incorrect.")
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, req.NewPassword); err != nil {
		apierr.RenderStore(w, h.Log, "changing password", err)
		return
	}

	h.AuditLog.PasswordChanged(ctx, r, u.ID)
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleMe handles GET /me: the session's current view of the user.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Unauthorized(w, "loading profile")
		return
	}
	jsonio.Write(w, http.StatusOK, sessionUserView{
		ID:                 su.ID,
		Name:               su.Name,
		Email:              su.Email,
		Role:               su.Role,
		DioceseID:          su.DioceseID,
		ParishID:           su.ParishID,
		ChurchID:           su.ChurchID,
		MustChangePassword: su.MustChangePassword,
	})
}
