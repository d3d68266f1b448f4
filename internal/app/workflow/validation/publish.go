// internal/app/workflow/validation/publish.go
package validation

import (
	"context"
	"time"

	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NewsMeta is the slice of a news item the publish workflow needs.
// Diocese- and archdiocese-scoped items carry no parish id.
type NewsMeta struct {
	ID            primitive.ObjectID
	Title         string
	DioceseID     string
	ParishID      primitive.ObjectID // Nil for diocese/archdiocese news
	Published     bool
	CreatedBy     primitive.ObjectID
	CreatedByRole string
}

// NewsStore is the parish_news collection as the publish workflow sees it.
type NewsStore interface {
	// PublishMeta returns nil, nil when the item does not exist.
	PublishMeta(ctx context.Context, id primitive.ObjectID) (*NewsMeta, error)
	SetPublished(ctx context.Context, id primitive.ObjectID, published bool, at *time.Time) error
}

// NewsNotifier announces a publish to the owning parish's subscribers.
type NewsNotifier interface {
	NewsPublished(ctx context.Context, parishID, newsID primitive.ObjectID, title string)
}

// Publisher drives the single-flag publish path for news. There is no
// approval step: publish and unpublish are direct, idempotent setters.
type Publisher struct {
	store  NewsStore
	notify NewsNotifier
	log    *zap.Logger
}

// NewPublisher wires the news publish workflow. notify may be nil.
func NewPublisher(store NewsStore, notify NewsNotifier, log *zap.Logger) *Publisher {
	return &Publisher{store: store, notify: notify, log: log}
}

// Publish flips an item to published. The false->true transition dispatches
// exactly one parish notification; publishing an already published item is
// a no-op and dispatches nothing.
func (pub *Publisher) Publish(ctx context.Context, p scope.Principal, id primitive.ObjectID) error {
	m, err := pub.store.PublishMeta(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return apierr.ErrNotFound
	}
	if !scope.CanEdit(p, scope.EntityContent, pub.entity(m)) {
		return apierr.ErrUnauthorized
	}
	if m.Published {
		return nil
	}

	now := time.Now().UTC()
	if err := pub.store.SetPublished(ctx, id, true, &now); err != nil {
		return err
	}
	if pub.notify != nil && m.ParishID != primitive.NilObjectID {
		pub.notify.NewsPublished(ctx, m.ParishID, m.ID, m.Title)
	}
	return nil
}

// Unpublish flips an item back to draft. Idempotent; never notifies.
func (pub *Publisher) Unpublish(ctx context.Context, p scope.Principal, id primitive.ObjectID) error {
	m, err := pub.store.PublishMeta(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return apierr.ErrNotFound
	}
	if !scope.CanEdit(p, scope.EntityContent, pub.entity(m)) {
		return apierr.ErrUnauthorized
	}
	if !m.Published {
		return nil
	}
	return pub.store.SetPublished(ctx, id, false, nil)
}

func (pub *Publisher) entity(m *NewsMeta) scope.Entity {
	return scope.Entity{
		DioceseID:     m.DioceseID,
		ParishID:      m.ParishID,
		CreatedBy:     m.CreatedBy,
		CreatedByRole: m.CreatedByRole,
	}
}
