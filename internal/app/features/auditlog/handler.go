// internal/app/features/auditlog/handler.go
//
// Package auditlog exposes the audit trail to global administrators.
// Events are written by the auditlog system package; this feature only
// reads them back.
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/samaquete/jangubi/internal/app/store/audit"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Events *audit.Store
	Log    *zap.Logger
}

func NewHandler(events *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Log: logger}
}

// queryFilter builds an audit query from the request. Unparseable ids
// and dates are reported, not silently dropped.
func queryFilter(r *http.Request) (audit.QueryFilter, string) {
	q := r.URL.Query()
	f := audit.QueryFilter{
		Category:  q.Get("category"),
		EventType: q.Get("type"),
	}

	if v := q.Get("userId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, "Invalid userId."
		}
		f.UserID = &id
	}
	if v := q.Get("parishId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, "Invalid parishId."
		}
		f.ParishID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, "Dates must be formatted YYYY-MM-DD."
		}
		f.StartTime = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, "Dates must be formatted YYYY-MM-DD."
		}
		f.EndTime = &t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 && n <= 500 {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	return f, ""
}

// HandleList handles GET /audit-log. Global administrators only: audit
// events cross every organizational boundary.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !authz.IsGlobalAdmin(r) {
		apierr.Unauthorized(w, "listing audit events")
		return
	}

	filter, msg := queryFilter(r)
	if msg != "" {
		apierr.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing audit events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	jsonio.Write(w, http.StatusOK, viewsOf(events))
}

// eventView flattens an audit record for the dashboard.
type eventView struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	Type          string            `json:"type"`
	UserID        string            `json:"userId,omitempty"`
	ActorID       string            `json:"actorId,omitempty"`
	ParishID      string            `json:"parishId,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func viewsOf(events []audit.Event) []eventView {
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		v := eventView{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			Type:          e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.UserID != nil {
			v.UserID = e.UserID.Hex()
		}
		if e.ActorID != nil {
			v.ActorID = e.ActorID.Hex()
		}
		if e.ParishID != nil {
			v.ParishID = e.ParishID.Hex()
		}
		out = append(out, v)
	}
	return out
}
