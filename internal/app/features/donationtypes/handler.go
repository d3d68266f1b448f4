// internal/app/features/donationtypes/handler.go
package donationtypes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	donationtypestore "github.com/samaquete/jangubi/internal/app/store/donationtypes"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages donation types and their parish validation lifecycle.
// Mutations that touch the public mirror go through the workflow, never
// straight to the store.
type Handler struct {
	Types    *donationtypestore.Store
	Mirror   *donationtypestore.Mirror
	Parishes *parishstore.Store
	Workflow *validation.Workflow
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(types *donationtypestore.Store, mirror *donationtypestore.Mirror, parishes *parishstore.Store, wf *validation.Workflow, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Types:    types,
		Mirror:   mirror,
		Parishes: parishes,
		Workflow: wf,
		AuditLog: auditLog,
		Log:      logger,
	}
}

// HandleList handles GET /donation-types, bounded by the caller's scope.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := scope.Resolve(p, scope.EntityContent).Mongo()
	if r.URL.Query().Get("active") == "true" {
		filter["is_active"] = true
	}
	list, err := h.Types.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing donation types", err)
		return
	}
	if list == nil {
		list = []models.DonationType{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandlePending handles GET /donation-types/pending: church submissions
// awaiting parish approval.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	if !models.RoleAtOrAbove(p.Role, models.RoleParishAdmin) {
		apierr.Unauthorized(w, "listing pending donation types")
		return
	}
	if p.ParishID == primitive.NilObjectID {
		jsonio.Write(w, http.StatusOK, []models.DonationType{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Types.PendingForParish(ctx, p.ParishID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing pending donation types", err)
		return
	}
	if list == nil {
		list = []models.DonationType{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

func entityOf(dt models.DonationType) scope.Entity {
	e := scope.Entity{
		DioceseID:         dt.DioceseID,
		ParishID:          dt.ParishID,
		CreatedBy:         dt.CreatedBy,
		CreatedByRole:     dt.CreatedByRole,
		ValidatedByParish: dt.ValidatedByParish,
	}
	if dt.ChurchID != nil {
		e.ChurchID = *dt.ChurchID
	}
	return e
}

func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request, action string) (models.DonationType, scope.Principal, bool) {
	p := authz.Principal(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, action)
		return models.DonationType{}, p, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	dt, err := h.Types.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, action)
		return models.DonationType{}, p, false
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, action, err)
		return models.DonationType{}, p, false
	}
	if !scope.CanView(p, scope.EntityContent, entityOf(dt)) {
		apierr.NotFound(w, action)
		return models.DonationType{}, p, false
	}
	return dt, p, true
}

// HandleGet handles GET /donation-types/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	dt, _, ok := h.loadScoped(w, r, "loading donation type")
	if !ok {
		return
	}
	jsonio.Write(w, http.StatusOK, dt)
}

type typeRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
	DefaultAmounts [4]int `json:"defaultAmounts"`
	ParishID       string `json:"parishId"`
	ChurchID       string `json:"churchId"`
}

// HandleCreate handles POST /donation-types. A church admin's submission
// starts unvalidated; parish level and above is approved on creation.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)

	var req typeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if req.Name == "" {
		apierr.BadRequest(w, "Donation type name is required.")
		return
	}
	parishID, err := primitive.ObjectIDFromHex(req.ParishID)
	if err != nil {
		apierr.BadRequest(w, "A valid parish id is required.")
		return
	}
	var churchID *primitive.ObjectID
	if req.ChurchID != "" {
		cid, err := primitive.ObjectIDFromHex(req.ChurchID)
		if err != nil {
			apierr.BadRequest(w, "Invalid church id.")
			return
		}
		churchID = &cid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	parish, err := h.Parishes.GetByID(ctx, parishID)
	if err == mongo.ErrNoDocuments {
		apierr.BadRequest(w, "Unknown parish.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating donation type", err)
		return
	}

	target := scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}
	if churchID != nil {
		target.ChurchID = *churchID
	}
	if !scope.CanCreate(p, scope.EntityContent, target) {
		apierr.Unauthorized(w, "creating donation type")
		return
	}

	dt, err := h.Types.Create(ctx, models.DonationType{
		Name:           req.Name,
		Description:    req.Description,
		Icon:           req.Icon,
		DefaultAmounts: req.DefaultAmounts,
		ParishID:       parish.ID,
		ChurchID:       churchID,
		DioceseID:      parish.DioceseID,
		IsActive:       true,
		CreatedBy:      p.ID,
		CreatedByRole:  p.Role,
	})
	if err == donationtypestore.ErrDuplicateDonationType {
		apierr.BadRequest(w, "A donation type with this name already exists in the parish.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating donation type", err)
		return
	}

	// Parish-authored records are born validated and belong on the
	// public mirror right away.
	if dt.ValidatedByParish && dt.IsActive {
		if err := h.Mirror.UpsertFrom(ctx, dt.ID); err != nil {
			h.Log.Warn("new donation type left unsynced", zap.Error(err),
				zap.String("id", dt.ID.Hex()))
		}
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentCreated, p.ID, &dt.ParishID, map[string]string{
		"kind": "donation_type",
		"name": dt.Name,
	})
	jsonio.Write(w, http.StatusCreated, dt)
}

// HandleUpdate handles PUT /donation-types/{id}. Validation flags are
// untouched here; an active validated record is re-synced so the mobile
// copy keeps up.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	dt, p, ok := h.loadScoped(w, r, "updating donation type")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityContent, entityOf(dt)) {
		apierr.Unauthorized(w, "updating donation type")
		return
	}

	var req typeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	dt.Name = req.Name
	dt.Description = req.Description
	dt.Icon = req.Icon
	dt.DefaultAmounts = req.DefaultAmounts
	if err := h.Types.Update(ctx, dt.ID, dt); err != nil {
		if err == donationtypestore.ErrDuplicateDonationType {
			apierr.BadRequest(w, "A donation type with this name already exists in the parish.")
			return
		}
		apierr.RenderStore(w, h.Log, "updating donation type", err)
		return
	}

	if dt.ValidatedByParish && dt.IsActive {
		if err := h.Workflow.Sync(ctx, p, dt.ID); err != nil {
			h.Log.Warn("donation type update left unsynced", zap.Error(err),
				zap.String("id", dt.ID.Hex()))
		}
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentUpdated, p.ID, &dt.ParishID, map[string]string{
		"kind": "donation_type",
	})

	updated, err := h.Types.GetByID(ctx, dt.ID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating donation type", err)
		return
	}
	jsonio.Write(w, http.StatusOK, updated)
}

// HandleValidate handles POST /donation-types/{id}/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	dt, p, ok := h.loadScoped(w, r, "validating donation type")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Workflow.Validate(ctx, p, dt.ID); err != nil {
		apierr.Render(w, err, "validating donation type")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentValidated, p.ID, &dt.ParishID, map[string]string{
		"kind": "donation_type",
		"name": dt.Name,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleSync handles POST /donation-types/{id}/sync.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	dt, p, ok := h.loadScoped(w, r, "syncing donation type")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Workflow.Sync(ctx, p, dt.ID); err != nil {
		apierr.Render(w, err, "syncing donation type")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentSynced, p.ID, &dt.ParishID, map[string]string{
		"kind": "donation_type",
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

type activeRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles POST /donation-types/{id}/active. Deactivation
// pulls the record off the public mirror.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	dt, p, ok := h.loadScoped(w, r, "updating donation type")
	if !ok {
		return
	}

	var req activeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Workflow.SetActive(ctx, p, dt.ID, req.Active); err != nil {
		apierr.Render(w, err, "updating donation type")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentUpdated, p.ID, &dt.ParishID, map[string]string{
		"kind":   "donation_type",
		"active": boolStr(req.Active),
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleDelete handles DELETE /donation-types/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	dt, p, ok := h.loadScoped(w, r, "deleting donation type")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Workflow.Delete(ctx, p, dt.ID); err != nil {
		apierr.Render(w, err, "deleting donation type")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentDeleted, p.ID, &dt.ParishID, map[string]string{
		"kind": "donation_type",
		"name": dt.Name,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
