// internal/app/features/reports/handler.go
//
// Package reports serves the dashboard aggregates. Everything here is
// read-only and bounded by the caller's scope, so there are no role
// floors: a church admin's dashboard simply counts a smaller world.
package reports

import (
	"context"
	"net/http"
	"time"

	"github.com/samaquete/jangubi/internal/app/policy/scope"
	churchstore "github.com/samaquete/jangubi/internal/app/store/churches"
	diocesestore "github.com/samaquete/jangubi/internal/app/store/dioceses"
	donationstore "github.com/samaquete/jangubi/internal/app/store/donations"
	donationtypestore "github.com/samaquete/jangubi/internal/app/store/donationtypes"
	newsstore "github.com/samaquete/jangubi/internal/app/store/news"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	prayertimestore "github.com/samaquete/jangubi/internal/app/store/prayertimes"
	userstore "github.com/samaquete/jangubi/internal/app/store/users"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"github.com/samaquete/jangubi/internal/app/system/jsonio"
	"github.com/samaquete/jangubi/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type Handler struct {
	Dioceses  *diocesestore.Store
	Parishes  *parishstore.Store
	Churches  *churchstore.Store
	Users     *userstore.Store
	Types     *donationtypestore.Store
	Prayers   *prayertimestore.Store
	News      *newsstore.Store
	Donations *donationstore.Store
	Log       *zap.Logger
}

func NewHandler(
	dioceses *diocesestore.Store,
	parishes *parishstore.Store,
	churches *churchstore.Store,
	users *userstore.Store,
	types *donationtypestore.Store,
	prayers *prayertimestore.Store,
	news *newsstore.Store,
	donations *donationstore.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Dioceses:  dioceses,
		Parishes:  parishes,
		Churches:  churches,
		Users:     users,
		Types:     types,
		Prayers:   prayers,
		News:      news,
		Donations: donations,
		Log:       logger,
	}
}

type entityCounts struct {
	Dioceses      int64 `json:"dioceses"`
	Parishes      int64 `json:"parishes"`
	Churches      int64 `json:"churches"`
	Users         int64 `json:"users"`
	DonationTypes int64 `json:"donationTypes"`
	PrayerTimes   int64 `json:"prayerTimes"`
	News          int64 `json:"news"`
}

type pendingCounts struct {
	DonationTypes int64 `json:"donationTypes"`
	PrayerTimes   int64 `json:"prayerTimes"`
}

type dashboard struct {
	Counts     entityCounts                `json:"counts"`
	Pending    pendingCounts               `json:"pendingValidation"`
	ByStatus   []donationstore.StatusTotal `json:"donationsByStatus"`
	TotalCount int64                       `json:"donationsTotal"`
}

// notValidated restricts a content filter to records still awaiting
// parish validation.
func notValidated(filter bson.M) bson.M {
	out := bson.M{"validated_by_parish": false}
	for k, v := range filter {
		out[k] = v
	}
	return out
}

// HandleDashboard handles GET /reports/dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p := authz.Principal(r)
	content := scope.Resolve(p, scope.EntityContent).Mongo()
	donation := scope.Resolve(p, scope.EntityDonation).Mongo()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var (
		d   dashboard
		err error
	)
	counts := []struct {
		dst   *int64
		count func(context.Context, bson.M) (int64, error)
		match bson.M
	}{
		{&d.Counts.Dioceses, h.Dioceses.Count, scope.Resolve(p, scope.EntityDiocese).Mongo()},
		{&d.Counts.Parishes, h.Parishes.Count, scope.Resolve(p, scope.EntityParish).Mongo()},
		{&d.Counts.Churches, h.Churches.Count, scope.Resolve(p, scope.EntityChurch).Mongo()},
		{&d.Counts.Users, h.Users.Count, scope.Resolve(p, scope.EntityUser).Mongo()},
		{&d.Counts.DonationTypes, h.Types.Count, content},
		{&d.Counts.PrayerTimes, h.Prayers.Count, content},
		{&d.Counts.News, h.News.Count, content},
		{&d.Pending.DonationTypes, h.Types.Count, notValidated(content)},
		{&d.Pending.PrayerTimes, h.Prayers.Count, notValidated(content)},
	}
	for _, c := range counts {
		if *c.dst, err = c.count(ctx, c.match); err != nil {
			apierr.RenderStore(w, h.Log, "building dashboard", err)
			return
		}
	}

	d.ByStatus, err = h.Donations.TotalsByStatus(ctx, donation)
	if err != nil {
		apierr.RenderStore(w, h.Log, "building dashboard", err)
		return
	}
	if d.ByStatus == nil {
		d.ByStatus = []donationstore.StatusTotal{}
	}
	for _, row := range d.ByStatus {
		d.TotalCount += row.Count
	}
	jsonio.Write(w, http.StatusOK, d)
}

// donationMatch merges the caller's scope with an optional ?from= / ?to=
// date window (inclusive from, exclusive to, YYYY-MM-DD).
func (h *Handler) donationMatch(r *http.Request) (bson.M, error) {
	match := scope.Resolve(authz.Principal(r), scope.EntityDonation).Mongo()

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
		match["created_at"] = window
	}
	return match, nil
}

type donationReport struct {
	ByStatus []donationstore.StatusTotal `json:"byStatus"`
	ByType   []donationstore.TypeTotal   `json:"byType"`
}

// HandleDonations handles GET /reports/donations.
func (h *Handler) HandleDonations(w http.ResponseWriter, r *http.Request) {
	match, err := h.donationMatch(r)
	if err != nil {
		apierr.BadRequest(w, "Dates must be formatted YYYY-MM-DD.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var rep donationReport
	if rep.ByStatus, err = h.Donations.TotalsByStatus(ctx, match); err != nil {
		apierr.RenderStore(w, h.Log, "building donation report", err)
		return
	}
	if rep.ByType, err = h.Donations.TotalsByType(ctx, match); err != nil {
		apierr.RenderStore(w, h.Log, "building donation report", err)
		return
	}
	if rep.ByStatus == nil {
		rep.ByStatus = []donationstore.StatusTotal{}
	}
	if rep.ByType == nil {
		rep.ByType = []donationstore.TypeTotal{}
	}
	jsonio.Write(w, http.StatusOK, rep)
}
