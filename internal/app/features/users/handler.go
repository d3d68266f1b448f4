// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	userstore "github.com/samaquete/jangubi/internal/app/store/users"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/normalize"
	"github.com/samaquete/jangubi/internal/app/system/status"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages admin accounts. An admin only ever sees and manages
// accounts of strictly lower rank inside its own scope; accounts are
// disabled rather than deleted so audit trails keep their authors.
type Handler struct {
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, AuditLog: auditLog, Log: logger}
}

// userView hides the password hash.
type userView struct {
	ID                 string `json:"id"`
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	Status             string `json:"status"`
	DioceseID          string `json:"dioceseId,omitempty"`
	ParishID           string `json:"parishId,omitempty"`
	ChurchID           string `json:"churchId,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

func viewOf(u models.User) userView {
	v := userView{
		ID:                 u.ID.Hex(),
		FullName:           u.FullName,
		Email:              u.Email,
		Role:               u.Role,
		Status:             u.Status,
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

func viewsOf(users []models.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewOf(u))
	}
	return out
}

func entityOf(u models.User) scope.Entity {
	e := scope.Entity{DioceseID: u.DioceseID}
	if u.ParishID != nil {
		e.ParishID = *u.ParishID
	}
	if u.ChurchID != nil {
		e.ChurchID = *u.ChurchID
	}
	return e
}

// canManage reports whether p may administer an account with the given
// role. Super admins manage everyone, themselves included; everyone else
// only strictly lower ranks.
func canManage(p scope.Principal, role string) bool {
	if p.Role == models.RoleSuperAdmin {
		return true
	}
	return models.RoleOutranks(p.Role, role)
}

// HandleList handles GET /users: subordinate accounts within scope.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	if !models.RoleAtOrAbove(p.Role, models.RoleParishAdmin) {
		apierr.Unauthorized(w, "listing users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := scope.Resolve(p, scope.EntityUser).Mongo()
	list, err := h.Users.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing users", err)
		return
	}

	visible := list[:0]
	for _, u := range list {
		if canManage(p, u.Role) || u.ID == p.ID {
			visible = append(visible, u)
		}
	}
	jsonio.Write(w, http.StatusOK, viewsOf(visible))
}

func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request, action string) (models.User, scope.Principal, bool) {
	p := authz.Principal(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, action)
		return models.User{}, p, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, action)
		return models.User{}, p, false
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, action, err)
		return models.User{}, p, false
	}
	if !scope.CanView(p, scope.EntityUser, entityOf(u)) {
		apierr.NotFound(w, action)
		return models.User{}, p, false
	}
	return u, p, true
}

// HandleGet handles GET /users/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, p, ok := h.loadManaged(w, r, "loading user")
	if !ok {
		return
	}
	if !canManage(p, u.Role) && u.ID != p.ID {
		apierr.NotFound(w, "loading user")
		return
	}
	jsonio.Write(w, http.StatusOK, viewOf(u))
}

type userRequest struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	DioceseID string `json:"dioceseId"`
	ParishID  string `json:"parishId"`
	ChurchID  string `json:"churchId"`
}

// HandleCreate handles POST /users. The new account must rank strictly
// below its creator and sit inside the creator's scope; it starts with a
// forced password change.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)

	var req userRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	req.Role = normalize.Role(req.Role)
	if req.FullName == "" || req.Email == "" {
		apierr.BadRequest(w, "Full name and email are required.")
		return
	}
	if len(req.Password) < 8 {
		apierr.BadRequest(w, "Password must be at least 8 characters.")
		return
	}
	if !models.ValidRole(req.Role) {
		apierr.BadRequest(w, "Unknown admin role.")
		return
	}
	if !canManage(p, req.Role) {
		apierr.Unauthorized(w, "creating user")
		return
	}

	u := models.User{
		FullName:  req.FullName,
		Email:     req.Email,
		Role:      req.Role,
		DioceseID: normalize.DioceseCode(req.DioceseID),
	}
	if req.ParishID != "" {
		pid, err := primitive.ObjectIDFromHex(req.ParishID)
		if err != nil {
			apierr.BadRequest(w, "Invalid parish id.")
			return
		}
		u.ParishID = &pid
	}
	if req.ChurchID != "" {
		cid, err := primitive.ObjectIDFromHex(req.ChurchID)
		if err != nil {
			apierr.BadRequest(w, "Invalid church id.")
			return
		}
		u.ChurchID = &cid
	}
	if !scope.CanCreate(p, scope.EntityUser, entityOf(u)) {
		apierr.Unauthorized(w, "creating user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Users.Create(ctx, u, req.Password)
	if err == userstore.ErrDuplicateEmail {
		apierr.BadRequest(w, "A user with this email already exists.")
		return
	}
	if err == userstore.ErrInvalidRole {
		apierr.BadRequest(w, "Unknown admin role.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating user", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventUserCreated, p.ID, created.ParishID, map[string]string{
		"email": created.Email,
		"role":  created.Role,
	})
	jsonio.Write(w, http.StatusCreated, viewOf(created))
}

// HandleUpdate handles PUT /users/{id}: profile fields only. Role and
// org assignment never change after creation.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, p, ok := h.loadManaged(w, r, "updating user")
	if !ok {
		return
	}
	if !canManage(p, u.Role) {
		apierr.Unauthorized(w, "updating user")
		return
	}

	var req userRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u.FullName = req.FullName
	u.Email = req.Email
	if err := h.Users.Update(ctx, u.ID, u); err != nil {
		if err == userstore.ErrDuplicateEmail {
			apierr.BadRequest(w, "A user with this email already exists.")
			return
		}
		apierr.RenderStore(w, h.Log, "updating user", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventUserUpdated, p.ID, u.ParishID, nil)

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating user", err)
		return
	}
	jsonio.Write(w, http.StatusOK, viewOf(updated))
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles POST /users/{id}/status: disable or re-enable
// an account. There is no deletion.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	u, p, ok := h.loadManaged(w, r, "updating user")
	if !ok {
		return
	}
	if !canManage(p, u.Role) {
		apierr.Unauthorized(w, "updating user")
		return
	}
	if u.ID == p.ID {
		apierr.BadRequest(w, "You cannot disable your own account.")
		return
	}

	var req statusRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if !status.IsValid(req.Status) {
		apierr.BadRequest(w, "Status must be active or disabled.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetStatus(ctx, u.ID, req.Status); err != nil {
		apierr.RenderStore(w, h.Log, "updating user", err)
		return
	}

	event := audit.EventUserDisabled
	if req.Status == status.Active {
		event = audit.EventUserEnabled
	}
	h.AuditLog.AdminAction(ctx, r, event, p.ID, u.ParishID, map[string]string{
		"email": u.Email,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleResetPassword handles POST /users/{id}/reset-password: set a
// temporary password that must be changed on next sign-in.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	u, p, ok := h.loadManaged(w, r, "resetting password")
	if !ok {
		return
	}
	if !canManage(p, u.Role) {
		apierr.Unauthorized(w, "resetting password")
		return
	}

	var req userRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if len(req.Password) < 8 {
		apierr.BadRequest(w, "Password must be at least 8 characters.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetPassword(ctx, u.ID, req.Password); err != nil {
		apierr.RenderStore(w, h.Log, "resetting password", err)
		return
	}
	if err := h.Users.RequirePasswordChange(ctx, u.ID); err != nil {
		apierr.RenderStore(w, h.Log, "resetting password", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventUserUpdated, p.ID, u.ParishID, map[string]string{
		"email":  u.Email,
		"action": "password_reset",
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
