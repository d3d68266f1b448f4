// internal/app/features/dioceses/handler.go
package dioceses

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	diocesestore "github.com/samaquete/jangubi/internal/app/store/dioceses"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/normalize"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages the diocese directory. The Senegal dioceses are seeded
// at startup; creation here covers future additions.
type Handler struct {
	Dioceses *diocesestore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(dioceses *diocesestore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Dioceses: dioceses, AuditLog: auditLog, Log: logger}
}

// HandleList handles GET /dioceses, bounded by the caller's scope.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := scope.Resolve(p, scope.EntityDiocese).Mongo()
	list, err := h.Dioceses.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing dioceses", err)
		return
	}
	if list == nil {
		list = []models.Diocese{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandleGet handles GET /dioceses/{code}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	code := normalize.DioceseCode(chi.URLParam(r, "code"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Dioceses.GetByCode(ctx, code)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, "loading diocese")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "loading diocese", err)
		return
	}
	if !scope.CanView(p, scope.EntityDiocese, scope.Entity{DioceseID: d.Code}) {
		apierr.NotFound(w, "loading diocese")
		return
	}
	jsonio.Write(w, http.StatusOK, d)
}

type dioceseRequest struct {
	Code           string `json:"dioceseId"`
	Name           string `json:"name"`
	IsMetropolitan bool   `json:"isMetropolitan"`
}

// HandleCreate handles POST /dioceses.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	if !scope.CanCreate(p, scope.EntityDiocese, scope.Entity{}) {
		apierr.Unauthorized(w, "creating diocese")
		return
	}

	var req dioceseRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	req.Code = normalize.DioceseCode(req.Code)
	if req.Code == "" || req.Name == "" {
		apierr.BadRequest(w, "Diocese code and name are required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Dioceses.Create(ctx, models.Diocese{
		Code:           req.Code,
		Name:           req.Name,
		IsMetropolitan: req.IsMetropolitan,
	})
	if err == diocesestore.ErrDuplicateDiocese {
		apierr.BadRequest(w, "A diocese with this code already exists.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating diocese", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventDioceseCreated, p.ID, nil, map[string]string{
		"diocese_id": d.Code,
		"name":       d.Name,
	})
	jsonio.Write(w, http.StatusCreated, d)
}

// HandleUpdate handles PUT /dioceses/{code}. The code itself is immutable.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	code := normalize.DioceseCode(chi.URLParam(r, "code"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Dioceses.GetByCode(ctx, code)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, "updating diocese")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating diocese", err)
		return
	}
	if !scope.CanEdit(p, scope.EntityDiocese, scope.Entity{DioceseID: d.Code, Metropolitan: d.IsMetropolitan}) {
		apierr.Unauthorized(w, "updating diocese")
		return
	}

	var req dioceseRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if req.Name == "" {
		apierr.BadRequest(w, "Diocese name is required.")
		return
	}

	d.Name = req.Name
	d.IsMetropolitan = req.IsMetropolitan
	if err := h.Dioceses.Update(ctx, d.ID, d); err != nil {
		apierr.RenderStore(w, h.Log, "updating diocese", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventDioceseUpdated, p.ID, nil, map[string]string{
		"diocese_id": d.Code,
	})

	updated, err := h.Dioceses.GetByCode(ctx, code)
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating diocese", err)
		return
	}
	jsonio.Write(w, http.StatusOK, updated)
}

type activeRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles POST /dioceses/{code}/active.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	code := normalize.DioceseCode(chi.URLParam(r, "code"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Dioceses.GetByCode(ctx, code)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, "updating diocese")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating diocese", err)
		return
	}
	if !scope.CanEdit(p, scope.EntityDiocese, scope.Entity{DioceseID: d.Code, Metropolitan: d.IsMetropolitan}) {
		apierr.Unauthorized(w, "updating diocese")
		return
	}

	var req activeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if err := h.Dioceses.SetActive(ctx, d.ID, req.Active); err != nil {
		apierr.RenderStore(w, h.Log, "updating diocese", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventDioceseUpdated, p.ID, nil, map[string]string{
		"diocese_id": d.Code,
		"active":     boolStr(req.Active),
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
