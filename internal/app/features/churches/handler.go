// internal/app/features/churches/handler.go
package churches

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	churchstore "github.com/samaquete/jangubi/internal/app/store/churches"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Churches *churchstore.Store
	Parishes *parishstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(churches *churchstore.Store, parishes *parishstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Churches: churches, Parishes: parishes, AuditLog: auditLog, Log: logger}
}

// HandleList handles GET /churches. Church admins see every church of
// their parish, so the sibling list works on the dashboard.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := scope.Resolve(p, scope.EntityChurch).Mongo()
	if r.URL.Query().Get("active") == "true" {
		filter["is_active"] = true
	}
	list, err := h.Churches.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing churches", err)
		return
	}
	if list == nil {
		list = []models.Church{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

func entityOf(ch models.Church) scope.Entity {
	return scope.Entity{DioceseID: ch.DioceseID, ParishID: ch.ParishID, ChurchID: ch.ID}
}

func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request, action string) (models.Church, scope.Principal, bool) {
	p := authz.Principal(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, action)
		return models.Church{}, p, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Churches.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, action)
		return models.Church{}, p, false
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, action, err)
		return models.Church{}, p, false
	}
	if !scope.CanView(p, scope.EntityChurch, entityOf(ch)) {
		apierr.NotFound(w, action)
		return models.Church{}, p, false
	}
	return ch, p, true
}

// HandleGet handles GET /churches/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ch, _, ok := h.loadScoped(w, r, "loading church")
	if !ok {
		return
	}
	jsonio.Write(w, http.StatusOK, ch)
}

type churchRequest struct {
	Name     string `json:"name"`
	ParishID string `json:"parishId"`
	Address  string `json:"address"`
}

// HandleCreate handles POST /churches. The diocese is denormalized from
// the parent parish.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)

	var req churchRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if req.Name == "" {
		apierr.BadRequest(w, "Church name is required.")
		return
	}
	parishID, err := primitive.ObjectIDFromHex(req.ParishID)
	if err != nil {
		apierr.BadRequest(w, "A valid parish id is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	parish, err := h.Parishes.GetByID(ctx, parishID)
	if err == mongo.ErrNoDocuments {
		apierr.BadRequest(w, "Unknown parish.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating church", err)
		return
	}
	if !scope.CanCreate(p, scope.EntityChurch, scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}) {
		apierr.Unauthorized(w, "creating church")
		return
	}

	ch, err := h.Churches.Create(ctx, models.Church{
		Name:      req.Name,
		ParishID:  parish.ID,
		DioceseID: parish.DioceseID,
		Address:   req.Address,
	})
	if err == churchstore.ErrDuplicateChurch {
		apierr.BadRequest(w, "A church with this name already exists in the parish.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating church", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventChurchCreated, p.ID, &parish.ID, map[string]string{
		"name":      ch.Name,
		"church_id": ch.ID.Hex(),
	})
	jsonio.Write(w, http.StatusCreated, ch)
}

// HandleUpdate handles PUT /churches/{id}. The parish is immutable.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ch, p, ok := h.loadScoped(w, r, "updating church")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityChurch, entityOf(ch)) {
		apierr.Unauthorized(w, "updating church")
		return
	}

	var req churchRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch.Name = req.Name
	ch.Address = req.Address
	if err := h.Churches.Update(ctx, ch.ID, ch); err != nil {
		if err == churchstore.ErrDuplicateChurch {
			apierr.BadRequest(w, "A church with this name already exists in the parish.")
			return
		}
		apierr.RenderStore(w, h.Log, "updating church", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventChurchUpdated, p.ID, &ch.ParishID, map[string]string{
		"church_id": ch.ID.Hex(),
	})

	updated, err := h.Churches.GetByID(ctx, ch.ID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating church", err)
		return
	}
	jsonio.Write(w, http.StatusOK, updated)
}

type activeRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles POST /churches/{id}/active.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ch, p, ok := h.loadScoped(w, r, "updating church")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityChurch, entityOf(ch)) {
		apierr.Unauthorized(w, "updating church")
		return
	}

	var req activeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Churches.SetActive(ctx, ch.ID, req.Active); err != nil {
		apierr.RenderStore(w, h.Log, "updating church", err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventChurchUpdated, p.ID, &ch.ParishID, map[string]string{
		"church_id": ch.ID.Hex(),
		"active":    boolStr(req.Active),
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleDelete handles DELETE /churches/{id}. Parish admins and above.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ch, p, ok := h.loadScoped(w, r, "deleting church")
	if !ok {
		return
	}
	if !models.RoleAtOrAbove(p.Role, models.RoleParishAdmin) ||
		!scope.CanEdit(p, scope.EntityChurch, entityOf(ch)) {
		apierr.Unauthorized(w, "deleting church")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Churches.Delete(ctx, ch.ID); err != nil {
		apierr.RenderStore(w, h.Log, "deleting church", err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventChurchDeleted, p.ID, &ch.ParishID, map[string]string{
		"name": ch.Name,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
