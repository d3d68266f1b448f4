// internal/app/features/donations/handler.go
package donations

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	donationstore "github.com/samaquete/jangubi/internal/app/store/donations"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/notify"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages donation records. Donations are immutable once created:
// only the status moves, pending to confirmed or cancelled, and only a
// super admin may delete one.
type Handler struct {
	Donations *donationstore.Store
	Parishes  *parishstore.Store
	Notifier  *notify.Dispatcher
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
}

func NewHandler(donations *donationstore.Store, parishes *parishstore.Store, notifier *notify.Dispatcher, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Donations: donations,
		Parishes:  parishes,
		Notifier:  notifier,
		AuditLog:  auditLog,
		Log:       logger,
	}
}

// scopedFilter merges the caller's scope with the optional ?status= and
// ?from= / ?to= query filters (inclusive from, exclusive to, YYYY-MM-DD).
func (h *Handler) scopedFilter(r *http.Request) (bson.M, error) {
	p := authz.Principal(r)
	filter := scope.Resolve(p, scope.EntityDonation).Mongo()
	if s := r.URL.Query().Get("status"); s != "" && models.ValidDonationStatus(s) {
		filter["status"] = s
	}

	window := bson.M{}
	if q := r.URL.Query().Get("from"); q != "" {
		t, err := time.Parse("2006-01-02", q)
		if err != nil {
			return nil, err
		}
		window["$gte"] = t
	}
	if q := r.URL.Query().Get("to"); q != "" {
		t, err := time.Parse("2006-01-02", q)
		if err != nil {
			return nil, err
		}
		window["$lt"] = t
	}
	if len(window) > 0 {
		filter["created_at"] = window
	}
	return filter, nil
}

// HandleList handles GET /donations, bounded by the caller's scope.
// Optional ?status= and ?from=/?to= filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := h.scopedFilter(r)
	if err != nil {
		apierr.BadRequest(w, "Dates must be formatted YYYY-MM-DD.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Donations.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "listing donations", err)
		return
	}
	if list == nil {
		list = []models.Donation{}
	}
	jsonio.Write(w, http.StatusOK, list)
}

func entityOf(d models.Donation) scope.Entity {
	e := scope.Entity{
		DioceseID: d.DioceseID,
		ParishID:  d.ParishID,
	}
	if d.ChurchID != nil {
		e.ChurchID = *d.ChurchID
	}
	return e
}

func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request, action string) (models.Donation, scope.Principal, bool) {
	p := authz.Principal(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierr.NotFound(w, action)
		return models.Donation{}, p, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Donations.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, action)
		return models.Donation{}, p, false
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, action, err)
		return models.Donation{}, p, false
	}
	if !scope.CanView(p, scope.EntityDonation, entityOf(d)) {
		apierr.NotFound(w, action)
		return models.Donation{}, p, false
	}
	return d, p, true
}

// HandleGet handles GET /donations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadScoped(w, r, "loading donation")
	if !ok {
		return
	}
	jsonio.Write(w, http.StatusOK, d)
}

type donationRequest struct {
	DonorName      string `json:"donorName"`
	Amount         int64  `json:"amount"`
	Type           string `json:"type"`
	PaymentMethod  string `json:"paymentMethod"`
	ParishID       string `json:"parishId"`
	ChurchID       string `json:"churchId"`
	DonationTypeID string `json:"donationTypeId"`
}

// HandleCreate handles POST /donations. The record starts pending with a
// generated receipt number; the parish is told about the gift.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)

	var req donationRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if req.DonorName == "" || req.Amount <= 0 {
		apierr.BadRequest(w, "Donor name and a positive amount are required.")
		return
	}
	parishID, err := primitive.ObjectIDFromHex(req.ParishID)
	if err != nil {
		apierr.BadRequest(w, "A valid parish id is required.")
		return
	}
	var churchID, typeID *primitive.ObjectID
	if req.ChurchID != "" {
		cid, err := primitive.ObjectIDFromHex(req.ChurchID)
		if err != nil {
			apierr.BadRequest(w, "Invalid church id.")
			return
		}
		churchID = &cid
	}
	if req.DonationTypeID != "" {
		tid, err := primitive.ObjectIDFromHex(req.DonationTypeID)
		if err != nil {
			apierr.BadRequest(w, "Invalid donation type id.")
			return
		}
		typeID = &tid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	parish, err := h.Parishes.GetByID(ctx, parishID)
	if err == mongo.ErrNoDocuments {
		apierr.BadRequest(w, "Unknown parish.")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "recording donation", err)
		return
	}

	target := scope.Entity{DioceseID: parish.DioceseID, ParishID: parish.ID}
	if churchID != nil {
		target.ChurchID = *churchID
	}
	if !scope.CanCreate(p, scope.EntityDonation, target) {
		apierr.Unauthorized(w, "recording donation")
		return
	}

	d, err := h.Donations.Create(ctx, models.Donation{
		DonorName:      req.DonorName,
		Amount:         req.Amount,
		Type:           req.Type,
		PaymentMethod:  req.PaymentMethod,
		ParishID:       parish.ID,
		ChurchID:       churchID,
		DioceseID:      parish.DioceseID,
		DonationTypeID: typeID,
	})
	if err != nil {
		apierr.RenderStore(w, h.Log, "recording donation", err)
		return
	}

	h.Notifier.DonationReceived(ctx, d.ParishID, d.DonorName,
		strconv.FormatInt(d.Amount, 10))
	h.AuditLog.AdminAction(ctx, r, audit.EventDonationCreated, p.ID, &d.ParishID, map[string]string{
		"receipt_no": d.ReceiptNo,
		"amount":     strconv.FormatInt(d.Amount, 10),
	})
	jsonio.Write(w, http.StatusCreated, d)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles POST /donations/{id}/status. Pending is the
// only state that moves; confirmed and cancelled are final.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	d, p, ok := h.loadScoped(w, r, "updating donation")
	if !ok {
		return
	}
	if !scope.CanEdit(p, scope.EntityDonation, entityOf(d)) {
		apierr.Unauthorized(w, "updating donation")
		return
	}

	var req statusRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "Invalid request body.")
		return
	}
	if req.Status != models.DonationConfirmed && req.Status != models.DonationCancelled {
		apierr.BadRequest(w, "Status must be confirmed or cancelled.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Donations.SetStatus(ctx, d.ID, req.Status)
	if err == donationstore.ErrStatusFinal {
		apierr.Render(w, apierr.ErrPreconditionFailed, "updating donation")
		return
	}
	if err == mongo.ErrNoDocuments {
		apierr.NotFound(w, "updating donation")
		return
	}
	if err != nil {
		apierr.RenderStore(w, h.Log, "updating donation", err)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventDonationStatusChange, p.ID, &d.ParishID, map[string]string{
		"receipt_no": d.ReceiptNo,
		"status":     req.Status,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleDelete handles DELETE /donations/{id}. Super admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	d, p, ok := h.loadScoped(w, r, "deleting donation")
	if !ok {
		return
	}
	if !scope.CanDelete(p, scope.EntityDonation, entityOf(d)) {
		apierr.Unauthorized(w, "deleting donation")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Donations.Delete(ctx, d.ID); err != nil {
		apierr.RenderStore(w, h.Log, "deleting donation", err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventDonationDeleted, p.ID, &d.ParishID, map[string]string{
		"receipt_no": d.ReceiptNo,
	})
	jsonio.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleSummary handles GET /donations/summary: totals by status and by
// donation type within the caller's scope.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	match := scope.Resolve(p, scope.EntityDonation).Mongo()
	byStatus, err := h.Donations.TotalsByStatus(ctx, match)
	if err != nil {
		apierr.RenderStore(w, h.Log, "summarizing donations", err)
		return
	}
	byType, err := h.Donations.TotalsByType(ctx, match)
	if err != nil {
		apierr.RenderStore(w, h.Log, "summarizing donations", err)
		return
	}
	if byStatus == nil {
		byStatus = []donationstore.StatusTotal{}
	}
	if byType == nil {
		byType = []donationstore.TypeTotal{}
	}
	jsonio.Write(w, http.StatusOK, map[string]any{
		"byStatus": byStatus,
		"byType":   byType,
	})
}

// HandleExport handles GET /donations/export: the scoped donation list as
// a CSV download for parish bookkeeping.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := h.scopedFilter(r)
	if err != nil {
		apierr.BadRequest(w, "Dates must be formatted YYYY-MM-DD.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := h.Donations.Find(ctx, filter)
	if err != nil {
		apierr.RenderStore(w, h.Log, "exporting donations", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="donations.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"receipt_no", "donor_name", "amount", "currency", "type", "status", "payment_method", "created_at"})
	for _, d := range list {
		_ = cw.Write([]string{
			d.ReceiptNo,
			d.DonorName,
			strconv.FormatInt(d.Amount, 10),
			d.Currency,
			d.Type,
			d.Status,
			d.PaymentMethod,
			d.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("donation export truncated", zap.Error(err))
	}
}
