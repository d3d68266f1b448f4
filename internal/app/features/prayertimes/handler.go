// internal/app/features/prayertimes/handler.go
package prayertimes

import (
	"context"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	prayertimestore "github.com/samaquete/jangubi/internal/app/store/prayertimes"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/notify"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Handler manages mass and prayer schedules. Validation promotes a
// schedule to the public mirror and tells the parish about it.
type Handler struct {
	Times    *prayertimestore.Store
	Mirror   *prayertimestore.Mirror
	Parishes *parishstore.Store
	Workflow *validation.Workflow
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler wires the feature. When notifier is non-nil every validation
// dispatches a parish notification.
func NewHandler(times *prayertimestore.Store, mirror *prayertimestore.Mirror, parishes *parishstore.Store, wf *validation.Workflow, notifier *notify.Dispatcher, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	h := &Handler{
		Times:    times,
		Mirror:   mirror,
		Parishes: parishes,
		Workflow: wf,
		AuditLog: auditLog,
		Log:      logger,
	}
	if notifier != nil {
		wf.OnValidated(func(ctx context.Context, m validation.Meta) {
			pt, err := times.GetByID(ctx, m.ID)
			if err != nil {
				logger.Warn("validated prayer time vanished before notification",
					zap.Error(err), zap.String("id", m.ID.Hex()))
				return
			}
			notifier.PrayerTimeValidated(ctx, pt.ParishID, pt.ID, pt.Name, pt.Time)
		})
	}
	return h
}

// HandleList handles GET /prayer-times, bounded by the caller's scope.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := scope.Resolve(p, scope.EntityContent).Mongo()
	if r.URL.Query().Get("active") == "true" {
		filter["active"] = true
	}
	list, err := h.Times.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing prayer times", err)
		return
	}
	if list == nil {
		list = []models.PrayerTime{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandlePending handles GET /prayer-times/pending.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	if !models.RoleAtOrAbove(p.Role, models.RoleParishAdmin) {
		apierr.Unauthorized(w, "listing pending prayer times")
		return
	}
	if p.ParishID == primitive.NilObjectID {
		jsonio.Write(w, http.StatusOK, []models.PrayerTime{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Times.PendingForParish(ctx, p.ParishID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing pending prayer times", err)
		return
	}
	if list == nil {
		list = []models.PrayerTime{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

func entityOf(pt models.PrayerTime) scope.Entity {
	e := scope.Entity{
		DioceseID:         pt.DioceseID,
		ParishID:          pt.ParishID,
		CreatedBy:         pt.CreatedBy,
		CreatedByRole:     pt.CreatedByRole,
		ValidatedByParish: pt.ValidatedByParish,
	}
	if pt.ChurchID != nil {
		e.ChurchID = *pt.ChurchID
	}
	return e
}

func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request, action string) (models.PrayerTime, scope.Principal, bool) {
	p := authz.Principal(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, action)
		return models.PrayerTime{}, p, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pt, err := h.Times.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, action)
		return models.PrayerTime{}, p, false
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, action, err)
		return models.PrayerTime{}, p, false
	}
	if !scope.CanView(p, scope.EntityContent, entityOf(pt)) {
		apierr.NotFound(w, action)
		return models.PrayerTime{}, p, false
	}
	return pt, p, true
}

// HandleGet handles GET /prayer-times/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	pt, _, ok := h.loadScoped(w, r, "loading prayer time")
	if !ok {
		return
	}
	jsonio.Write(w, http.StatusOK, pt)
}

type timeRequest struct {
	Name        string   `json:"name"`
	Time        string   `json:"time"`
	Days        []string `json:"days"`
	Description string   `json:"description"`
	ParishID    string   `json:"parishId"`
	ChurchID    string   `json:"churchId"`
}

func (req *timeRequest) validate() string {
	if req.Name == "" {
		return "Prayer time name is required."
	}
	if !timeOfDay.MatchString(req.Time) {
		return "Time must use the HH:mm format."
	}
	if len(req.Days) == 0 {
		return "At least one day is required."
	}
	for _, d := range req.Days {
		if !models.ValidDay(d) {
			return "Unknown day: " + d
		}
	}
	return ""
}

// HandleCreate handles POST /prayer-times.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)

	var req timeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if msg := req.validate(); msg != "" {
		apierr.BadRequest(w, msg)
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
		apierr.RenderStore(w, h.Log, "creating prayer time", err)
		return
	}

	target := scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}
	if churchID != nil {
		target.ChurchID = *churchID
	}
	if !scope.CanCreate(p, scope.EntityContent, target) {
		apierr.Unauthorized(w, "creating prayer time")
		return
	}

	pt, err := h.Times.Create(ctx, models.PrayerTime{
		Name:          req.Name,
		Time:          req.Time,
		Days:          req.Days,
		Description:   req.Description,
		ParishID:      parish.ID,
		ChurchID:      churchID,
		DioceseID:     parish.DioceseID,
		CreatedBy:     p.ID,
		CreatedByRole: p.Role,
	})
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating prayer time", err)
		return
	}

	if pt.ValidatedByParish && pt.Active {
		if err := h.Mirror.UpsertFrom(ctx, pt.ID); err != nil {
			h.Log.Warn("new prayer time left unsynced", zap.Error(err),
				zap.String("id", pt.ID.Hex()))
		}
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentCreated, p.ID, &pt.ParishID, map[string]string{
		"kind": "prayer_time",
		"name": pt.Name,
	})
	jsonio.Write(w, http.StatusCreated, pt)
}

// HandleUpdate handles PUT /prayer-times/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	pt, p, ok := h.loadScoped(w, r, "updating prayer time")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityContent, entityOf(pt)) {
		apierr.Unauthorized(w, "updating prayer time")
		return
	}

	var req timeRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if msg := req.validate(); msg != "" {
		apierr.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pt.Name = req.Name
	pt.Time = req.Time
	pt.Days = req.Days
	pt.Description = req.Description
	if err := h.Times.Update(ctx, pt.ID, pt); err != nil {
		apierr.RenderStore(w, h.Log, "updating prayer time", err)
		return
	}

	if pt.ValidatedByParish && pt.Active {
		if err := h.Workflow.Sync(ctx, p, pt.ID); err != nil {
			h.Log.Warn("prayer time update left unsynced", zap.Error(err),
				zap.String("id", pt.ID.Hex()))
		}
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentUpdated, p.ID, &pt.ParishID, map[string]string{
		"kind": "prayer_time",
	})

	updated, err := h.Times.GetByID(ctx, pt.ID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating prayer time", err)
		return
	}
	jsonio.Write(w, http.StatusOK, updated)
}

// HandleValidate handles POST /prayer-times/{id}/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	pt, p, ok := h.loadScoped(w, r, "validating prayer time")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Workflow.Validate(ctx, p, pt.ID); err != nil {
		apierr.Render(w, err, "validating prayer time")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentValidated, p.ID, &pt.ParishID, map[string]string{
		"kind": "prayer_time",
		"name": pt.Name,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleSync handles POST /prayer-times/{id}/sync.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	pt, p, ok := h.loadScoped(w, r, "syncing prayer time")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Workflow.Sync(ctx, p, pt.ID); err != nil {
		apierr.Render(w, err, "syncing prayer time")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentSynced, p.ID, &pt.ParishID, map[string]string{
		"kind": "prayer_time",
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

type activeRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles POST /prayer-times/{id}/active.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	pt, p, ok := h.loadScoped(w, r, "updating prayer time")
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

	if err := h.Workflow.SetActive(ctx, p, pt.ID, req.Active); err != nil {
		apierr.Render(w, err, "updating prayer time")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentUpdated, p.ID, &pt.ParishID, map[string]string{
		"kind":   "prayer_time",
		"active": boolStr(req.Active),
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleDelete handles DELETE /prayer-times/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	pt, p, ok := h.loadScoped(w, r, "deleting prayer time")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Workflow.Delete(ctx, p, pt.ID); err != nil {
		apierr.Render(w, err, "deleting prayer time")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventContentDeleted, p.ID, &pt.ParishID, map[string]string{
		"kind": "prayer_time",
		"name": pt.Name,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
