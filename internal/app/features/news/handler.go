// internal/app/features/news/handler.go
package news

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	newsstore "github.com/samaquete/jangubi/internal/app/store/news"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/htmlsanitize"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const excerptLimit = 160

// Handler manages parish and diocese news. Content is sanitized HTML;
// publication goes through the Publisher so the parish is notified
// exactly once.
type Handler struct {
	News      *newsstore.Store
	Parishes  *parishstore.Store
	Publisher *validation.Publisher
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
}

func NewHandler(news *newsstore.Store, parishes *parishstore.Store, publisher *validation.Publisher, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{News: news, Parishes: parishes, Publisher: publisher, AuditLog: auditLog, Log: logger}
}

// HandleList handles GET /news, bounded by the caller's scope. Optional
// filters: ?published=true and ?category=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := scope.Resolve(p, scope.EntityContent).Mongo()
	if r.URL.Query().Get("published") == "true" {
		filter["published"] = true
	}
	if c := r.URL.Query().Get("category"); c != "" {
		filter["category"] = c
	}
	list, err := h.News.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing news", err)
		return
	}
	if list == nil {
		list = []models.News{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

func entityOf(n models.News) scope.Entity {
	e := scope.Entity{
		DioceseID:     n.DioceseID,
		CreatedBy:     n.CreatedBy,
		CreatedByRole: n.CreatedByRole,
	}
	if n.ParishID != nil {
		e.ParishID = *n.ParishID
	}
	return e
}

func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request, action string) (models.News, scope.Principal, bool) {
	p := authz.Principal(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, action)
		return models.News{}, p, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.News.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, action)
		return models.News{}, p, false
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, action, err)
		return models.News{}, p, false
	}
	if !scope.CanView(p, scope.EntityContent, entityOf(n)) {
		apierr.NotFound(w, action)
		return models.News{}, p, false
	}
	return n, p, true
}

// HandleGet handles GET /news/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	n, _, ok := h.loadScoped(w, r, "loading news")
	if !ok {
		return
	}
	jsonio.Write(w, http.StatusOK, n)
}

type newsRequest struct {
	Scope      string `json:"scope"`
	ParishID   string `json:"parishId"`
	DioceseID  string `json:"dioceseId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	Category   string `json:"category"`
	Image      string `json:"image"`
	Author     string `json:"author"`
	ShowAuthor bool   `json:"showAuthor"`
}

func excerptOf(explicit, content string) string {
	e := strings.TrimSpace(explicit)
	if e == "" {
		e = strings.TrimSpace(htmlsanitize.StripAll(content))
	}
	if len(e) > excerptLimit {
		e = e[:excerptLimit]
	}
	return e
}

// HandleCreate handles POST /news. News lives at parish level or above,
// so church admins cannot author it.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	if !models.RoleAtOrAbove(p.Role, models.RoleParishAdmin) {
		apierr.Unauthorized(w, "creating news")
		return
	}

	var req newsRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if req.Title == "" || req.Content == "" {
		apierr.BadRequest(w, "Title and content are required.")
		return
	}
	if !models.ValidNewsCategory(req.Category) {
		apierr.BadRequest(w, "Unknown news category.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n := models.News{
		Title:         req.Title,
		Content:       htmlsanitize.Sanitize(req.Content),
		Excerpt:       excerptOf(req.Excerpt, req.Content),
		Category:      req.Category,
		Image:         req.Image,
		Author:        req.Author,
		ShowAuthor:    req.ShowAuthor,
		CreatedBy:     p.ID,
		CreatedByRole: p.Role,
	}

	switch req.Scope {
	case models.NewsScopeParish, "":
		parishID, err := primitive.ObjectIDFromHex(req.ParishID)
		if err != nil {
			apierr.BadRequest(w, "A valid parish id is required for parish news.")
			return
		}
		parish, err := h.Parishes.GetByID(ctx, parishID)
		if err == mongo.ErrNoDocuments {
			apierr.BadRequest(w, "Unknown parish.")
			return
		}
		if err != nil {
			apierr.RenderStore(w, h.Log, "creating news", err)
			return
		}
		if !scope.CanCreate(p, scope.EntityContent, scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}) {
			apierr.Unauthorized(w, "creating news")
			return
		}
		n.Scope = models.NewsScopeParish
		n.ParishID = &parish.ID
		n.DioceseID = parish.DioceseID

	case models.NewsScopeDiocese:
		if !models.RoleAtOrAbove(p.Role, models.RoleDioceseAdmin) {
			apierr.Unauthorized(w, "creating diocese news")
			return
		}
		code := req.DioceseID
		if code == "" {
			code = p.DioceseID
		}
		if code == "" {
			apierr.BadRequest(w, "A diocese is required for diocese news.")
			return
		}
		if !scope.CanCreate(p, scope.EntityContent, scope.Entity{DioceseID: code}) {
			apierr.Unauthorized(w, "creating diocese news")
			return
		}
		n.Scope = models.NewsScopeDiocese
		n.DioceseID = code

	case models.NewsScopeArchdiocese:
		if !models.RoleAtOrAbove(p.Role, models.RoleArchdioceseAdmin) {
			apierr.Unauthorized(w, "creating archdiocese news")
			return
		}
		n.Scope = models.NewsScopeArchdiocese

	default:
		apierr.BadRequest(w, "Unknown news scope.")
		return
	}

	created, err := h.News.Create(ctx, n)
	if err != nil {
		apierr.RenderStore(w, h.Log, "creating news", err)
		return
	}

	var auditParish *primitive.ObjectID
	if created.ParishID != nil {
		auditParish = created.ParishID
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventContentCreated, p.ID, auditParish, map[string]string{
		"kind":  "news",
		"title": created.Title,
	})
	jsonio.Write(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /news/{id}. The publication flag only moves
// through publish and unpublish.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	n, p, ok := h.loadScoped(w, r, "updating news")
	if !ok {
		return
	}
	if !models.RoleAtOrAbove(p.Role, models.RoleParishAdmin) ||
		!scope.CanEdit(p, scope.EntityContent, entityOf(n)) {
		apierr.Unauthorized(w, "updating news")
		return
	}

	var req newsRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if req.Title == "" || req.Content == "" {
		apierr.BadRequest(w, "Title and content are required.")
		return
	}
	if !models.ValidNewsCategory(req.Category) {
		apierr.BadRequest(w, "Unknown news category.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n.Title = req.Title
	n.Content = htmlsanitize.Sanitize(req.Content)
	n.Excerpt = excerptOf(req.Excerpt, req.Content)
	n.Category = req.Category
	n.Image = req.Image
	n.Author = req.Author
	n.ShowAuthor = req.ShowAuthor
	if err := h.News.Update(ctx, n.ID, n); err != nil {
		apierr.RenderStore(w, h.Log, "updating news", err)
		return
	}

	var auditParish *primitive.ObjectID
	if n.ParishID != nil {
		auditParish = n.ParishID
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventContentUpdated, p.ID, auditParish, map[string]string{
		"kind": "news",
	})

	updated, err := h.News.GetByID(ctx, n.ID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating news", err)
		return
	}
	jsonio.Write(w, http.StatusOK, updated)
}

// HandlePublish handles POST /news/{id}/publish.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	n, p, ok := h.loadScoped(w, r, "publishing news")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Publisher.Publish(ctx, p, n.ID); err != nil {
		apierr.Render(w, err, "publishing news")
		return
	}

	var auditParish *primitive.ObjectID
	if n.ParishID != nil {
		auditParish = n.ParishID
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventNewsPublished, p.ID, auditParish, map[string]string{
		"title": n.Title,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleUnpublish handles POST /news/{id}/unpublish.
func (h *Handler) HandleUnpublish(w http.ResponseWriter, r *http.Request) {
	n, p, ok := h.loadScoped(w, r, "unpublishing news")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Publisher.Unpublish(ctx, p, n.ID); err != nil {
		apierr.Render(w, err, "unpublishing news")
		return
	}

	var auditParish *primitive.ObjectID
	if n.ParishID != nil {
		auditParish = n.ParishID
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventNewsUnpublished, p.ID, auditParish, map[string]string{
		"title": n.Title,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleDelete handles DELETE /news/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	n, p, ok := h.loadScoped(w, r, "deleting news")
	if !ok {
		return
	}
	if !scope.CanDelete(p, scope.EntityContent, entityOf(n)) {
		apierr.Unauthorized(w, "deleting news")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.News.Delete(ctx, n.ID); err != nil {
		apierr.RenderStore(w, h.Log, "deleting news", err)
		return
	}

	var auditParish *primitive.ObjectID
	if n.ParishID != nil {
		auditParish = n.ParishID
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventContentDeleted, p.ID, auditParish, map[string]string{
		"kind":  "news",
		"title": n.Title,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
