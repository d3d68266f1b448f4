// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	notificationstore "github.com/samaquete/jangubi/internal/app/store/notifications"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultLimit = 50

// Handler serves the parish notification feed. Parish and church admins
// read their own parish; higher roles pass ?parishId= for any parish in
// their scope.
type Handler struct {
	Notes *notificationstore.Store
	Log   *zap.Logger
}

func NewHandler(notes *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Notes: notes, Log: logger}
}

// parishFor resolves which parish feed the caller may read. The zero id
// means no feed is reachable.
func parishFor(r *http.Request) primitive.ObjectID {
	if q := r.URL.Query().Get("parishId"); q != "" {
		id, err := primitive.ObjectIDFromHex(q)
		if err != nil || !authz.CanAccessParish(r, id) {
			return primitive.NilObjectID
		}
		return id
	}
	return authz.UserParishID(r)
}

// HandleList handles GET /notifications.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	parishID := parishFor(r)
	if parishID == primitive.NilObjectID {
		jsonio.Write(w, http.StatusOK, []models.ParishNotification{})
		return
	}

	limit := int64(defaultLimit)
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.ParseInt(q, 10, 64); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Notes.ListByParish(ctx, parishID, limit)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing notifications", err)
		return
	}
	if list == nil {
		list = []models.ParishNotification{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandleUnreadCount handles GET /notifications/unread-count.
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	parishID := parishFor(r)
	if parishID == primitive.NilObjectID {
		jsonio.Write(w, http.StatusOK, map[string]int64{"unread": 0})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notes.CountUnread(ctx, parishID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "counting notifications", err)
		return
	}
	jsonio.Write(w, http.StatusOK, map[string]int64{"unread": n})
}

// HandleMarkRead handles POST /notifications/{id}/read. The update is
// bound to the caller's reachable parish, so a guessed id from another
// parish's feed reads as not found.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, "marking notification read")
		return
	}
	parishID := parishFor(r)
	if parishID == primitive.NilObjectID {
		apierr.NotFound(w, "marking notification read")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notes.MarkRead(ctx, id, parishID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "marking notification read", err)
		return
	}
	if n == 0 {
		apierr.NotFound(w, "marking notification read")
		return
	}
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleMarkAllRead handles POST /notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	parishID := parishFor(r)
	if parishID == primitive.NilObjectID {
		jsonio.Write(w, http.StatusOK, map[string]int64{"updated": 0})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notes.MarkAllRead(ctx, parishID)
	if err != nil {
		apierr.RenderStore(w, h.Log, "marking notifications read", err)
		return
	}
	jsonio.Write(w, http.StatusOK, map[string]int64{"updated": n})
}
