// internal/app/features/parishes/handler.go
package parishes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	diocesestore "github.com/samaquete/jangubi/internal/app/store/dioceses"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/normalize"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Parishes *parishstore.Store
	Dioceses *diocesestore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(parishes *parishstore.Store, dioceses *diocesestore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Parishes: parishes, Dioceses: dioceses, AuditLog: auditLog, Log: logger}
}

// HandleList handles GET /parishes, bounded by the caller's scope.
// Parish-level admins see every parish of their diocese.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := scope.Resolve(p, scope.EntityParish).Mongo()
	if r.URL.Query().Get("active") == "true" {
		filter["is_active"] = true
	}
	list, err := h.Parishes.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing parishes", err)
		return
	}
	if list == nil {
		list = []models.Parish{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request, action string) (models.Parish, scope.Principal, bool) {
	p := authz.Principal(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, action)
		return models.Parish{}, p, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	parish, err := h.Parishes.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, action)
		return models.Parish{}, p, false
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, action, err)
		return models.Parish{}, p, false
	}
	if !scope.CanView(p, scope.EntityParish, scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}) {
		apierr.NotFound(w, action)
		return models.Parish{}, p, false
	}
	return parish, p, true
}

// HandleGet handles GET /parishes/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	parish, _, ok := h.loadScoped(w, r, "loading parish")
	if !ok {
		return
	}
	jsonio.Write(w, http.StatusOK, parish)
}

type parishRequest struct {
	Name      string `json:"name"`
	DioceseID string `json:"dioceseId"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// HandleCreate handles POST /parishes. Diocese admins create parishes in
// their own diocese only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)

	var req parishRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	req.DioceseID = normalize.DioceseCode(req.DioceseID)
	if req.Name == "" || req.DioceseID == "" {
		apierr.BadRequest(w, "Parish name and diocese are required.")
		return
	}
	if !scope.CanCreate(p, scope.EntityParish, scope.Entity{DioceseID: req.DioceseID}) {
		apierr.Unauthorized(w, "creating parish")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Dioceses.GetByCode(ctx, req.DioceseID); err != nil {
		if err == mongo.ErrNoDocuments {
			apierr.BadRequest(w, "Unknown diocese.")
			return
		}
		apierr.RenderStore(w, h.Log, "creating parish", err)
		return
	}

	parish, err := h.Parishes.Create(ctx, models.Parish{
		Name:      req.Name,
		DioceseID: req.DioceseID,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     normalize.Email(req.Email),
	})
	if err == parishstore.ErrDuplicateParish {
		apierr.BadRequest(w, "A parish with this name already exists in the diocese.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating parish", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventParishCreated, p.ID, &parish.ID, map[string]string{
		"name":       parish.Name,
		"diocese_id": parish.DioceseID,
	})
	jsonio.Write(w, http.StatusCreated, parish)
}

// HandleUpdate handles PUT /parishes/{id}. The diocese is immutable:
// moving a parish between dioceses would orphan its scoped records.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	parish, p, ok := h.loadScoped(w, r, "updating parish")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityParish, scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}) {
		apierr.Unauthorized(w, "updating parish")
		return
	}

	var req parishRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	parish.Name = req.Name
	parish.Address = req.Address
	parish.Phone = req.Phone
	parish.Email = normalize.Email(req.Email)
	if err := h.Parishes.Update(ctx, parish.ID, parish); err != nil {
		if err == parishstore.ErrDuplicateParish {
			apierr.BadRequest(w, "A parish with this name already exists in the diocese.")
			return
		}
		apierr.RenderStore(w, h.Log, "updating parish", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventParishUpdated, p.ID, &parish.ID, nil)

	updated, err := h.Parishes.GetByID(ctx, parish.ID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating parish", err)
		return
	}
	jsonio.Write(w, http.StatusOK, updated)
}

type activeRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles POST /parishes/{id}/active.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	parish, p, ok := h.loadScoped(w, r, "updating parish")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityParish, scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}) {
		apierr.Unauthorized(w, "updating parish")
		return
	}

	var req activeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Parishes.SetActive(ctx, parish.ID, req.Active); err != nil {
		apierr.RenderStore(w, h.Log, "updating parish", err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventParishUpdated, p.ID, &parish.ID, map[string]string{
		"active": boolStr(req.Active),
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleDelete handles DELETE /parishes/{id}. Diocese admins and above
// only; a parish with dependent records should be deactivated instead.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	parish, p, ok := h.loadScoped(w, r, "deleting parish")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityParish, scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}) {
		apierr.Unauthorized(w, "deleting parish")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Parishes.Delete(ctx, parish.ID); err != nil {
		apierr.RenderStore(w, h.Log, "deleting parish", err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventParishDeleted, p.ID, &parish.ID, map[string]string{
		"name": parish.Name,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
