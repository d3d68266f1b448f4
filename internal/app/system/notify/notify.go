// internal/app/system/notify/notify.go
//
// Package notify dispatches in-app notifications to a parish's subscriber
// base. The workflow layer treats the dispatcher as an external
// collaborator: a dispatch failure is logged but never fails the mutation
// that triggered it.
package notify

import (
	"context"

	notificationstore "github.com/samaquete/jangubi/internal/app/store/notifications"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Dispatcher writes parish notifications. A nil *Dispatcher is a no-op.
type Dispatcher struct {
	store *notificationstore.Store
	log   *zap.Logger
}

// New creates a Dispatcher over the parish_notifications collection.
func New(store *notificationstore.Store, log *zap.Logger) *Dispatcher {
	return &Dispatcher{store: store, log: log}
}

func (d *Dispatcher) dispatch(ctx context.Context, n models.ParishNotification) {
	if d == nil {
		return
	}
	if _, err := d.store.Create(ctx, n); err != nil {
		d.log.Error("notification dispatch failed",
			zap.Error(err),
			zap.String("type", n.Type),
			zap.String("parish_id", n.ParishID.Hex()),
		)
	}
}

// NewsPublished announces a newly published news item. Called exactly once
// per false->true publish transition, with the item's title and id.
func (d *Dispatcher) NewsPublished(ctx context.Context, parishID, newsID primitive.ObjectID, title string) {
	d.dispatch(ctx, models.ParishNotification{
		ParishID:  parishID,
		Type:      models.NotifyNews,
		Title:     "Nouvelle actualité",
		Message:   title,
		Icon:      "newspaper",
		Priority:  models.PriorityNormal,
		RelatedID: &newsID,
	})
}

// PrayerTimeValidated announces that a church-authored prayer time is now
// visible parish-wide.
func (d *Dispatcher) PrayerTimeValidated(ctx context.Context, parishID, prayerTimeID primitive.ObjectID, name, timeOfDay string) {
	d.dispatch(ctx, models.ParishNotification{
		ParishID:  parishID,
		Type:      models.NotifyPrayer,
		Title:     "Nouvelle heure de messe",
		Message:   name + " à " + timeOfDay,
		Icon:      "time",
		Priority:  models.PriorityNormal,
		RelatedID: &prayerTimeID,
	})
}

// DonationReceived announces a confirmed donation.
func (d *Dispatcher) DonationReceived(ctx context.Context, parishID primitive.ObjectID, donorName, amount string) {
	d.dispatch(ctx, models.ParishNotification{
		ParishID: parishID,
		Type:     models.NotifyDonation,
		Title:    "Nouveau don reçu",
		Message:  donorName + " a fait un don de " + amount + " FCFA",
		Icon:     "heart",
		Priority: models.PriorityLow,
	})
}
