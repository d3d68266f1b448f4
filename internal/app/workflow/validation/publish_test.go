package validation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/app/system/apierr"
	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeNews struct {
	recs map[primitive.ObjectID]*validation.NewsMeta
}

func newFakeNews(recs ...*validation.NewsMeta) *fakeNews {
	f := &fakeNews{recs: make(map[primitive.ObjectID]*validation.NewsMeta)}
	for _, m := range recs {
		f.recs[m.ID] = m
	}
	return f
}

func (f *fakeNews) PublishMeta(_ context.Context, id primitive.ObjectID) (*validation.NewsMeta, error) {
	m, ok := f.recs[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeNews) SetPublished(_ context.Context, id primitive.ObjectID, published bool, _ *time.Time) error {
	m, ok := f.recs[id]
	if !ok {
		return errors.New("missing record")
	}
	m.Published = published
	return nil
}

type dispatchedNews struct {
	parishID primitive.ObjectID
	newsID   primitive.ObjectID
	title    string
}

type fakeNotifier struct {
	calls []dispatchedNews
}

func (f *fakeNotifier) NewsPublished(_ context.Context, parishID, newsID primitive.ObjectID, title string) {
	f.calls = append(f.calls, dispatchedNews{parishID, newsID, title})
}

func parishNews(published bool) *validation.NewsMeta {
	return &validation.NewsMeta{
		ID:            primitive.NewObjectID(),
		Title:         "Kermesse paroissiale",
		DioceseID:     "DAKAR",
		ParishID:      parishID,
		Published:     published,
		CreatedBy:     parishAdminID,
		CreatedByRole: models.RoleParishAdmin,
	}
}

func TestPublish_DispatchesExactlyOneNotification(t *testing.T) {
	item := parishNews(false)
	store := newFakeNews(item)
	notifier := &fakeNotifier{}
	pub := validation.NewPublisher(store, notifier, zap.NewNop())
	ctx := context.Background()

	if err := pub.Publish(ctx, parishAdmin(), item.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if !store.recs[item.ID].Published {
		t.Error("item should be published")
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.newsID != item.ID || call.title != item.Title || call.parishID != parishID {
		t.Errorf("notification carried %+v", call)
	}
}

func TestPublish_Idempotent(t *testing.T) {
	item := parishNews(false)
	store := newFakeNews(item)
	notifier := &fakeNotifier{}
	pub := validation.NewPublisher(store, notifier, zap.NewNop())
	ctx := context.Background()

	if err := pub.Publish(ctx, parishAdmin(), item.ID); err != nil {
		t.Fatalf("first Publish failed: %v", err)
	}
	if err := pub.Publish(ctx, parishAdmin(), item.ID); err != nil {
		t.Fatalf("second Publish failed: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("re-publishing must not re-notify, got %d dispatches", len(notifier.calls))
	}
}

func TestUnpublish_NeverNotifies(t *testing.T) {
	item := parishNews(true)
	store := newFakeNews(item)
	notifier := &fakeNotifier{}
	pub := validation.NewPublisher(store, notifier, zap.NewNop())
	ctx := context.Background()

	if err := pub.Unpublish(ctx, parishAdmin(), item.ID); err != nil {
		t.Fatalf("Unpublish failed: %v", err)
	}
	if store.recs[item.ID].Published {
		t.Error("item should be unpublished")
	}
	// Unpublishing an already-unpublished item stays a no-op.
	if err := pub.Unpublish(ctx, parishAdmin(), item.ID); err != nil {
		t.Fatalf("second Unpublish failed: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("unpublish must not notify, got %d dispatches", len(notifier.calls))
	}
}

func TestPublish_OutOfScopeRejected(t *testing.T) {
	item := parishNews(false)
	store := newFakeNews(item)
	notifier := &fakeNotifier{}
	pub := validation.NewPublisher(store, notifier, zap.NewNop())

	foreign := scope.Principal{
		ID: primitive.NewObjectID(), Role: models.RoleParishAdmin,
		DioceseID: "DAKAR", ParishID: primitive.NewObjectID(),
	}
	err := pub.Publish(context.Background(), foreign, item.ID)
	if !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Error("rejected publish must not notify")
	}
}

func TestPublish_NotFound(t *testing.T) {
	pub := validation.NewPublisher(newFakeNews(), &fakeNotifier{}, zap.NewNop())
	err := pub.Publish(context.Background(), parishAdmin(), primitive.NewObjectID())
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestPublish_DioceseNewsHasNoParishNotification(t *testing.T) {
	item := &validation.NewsMeta{
		ID:            primitive.NewObjectID(),
		Title:         "Lettre pastorale",
		DioceseID:     "DAKAR",
		Published:     false,
		CreatedBy:     primitive.NewObjectID(),
		CreatedByRole: models.RoleDioceseAdmin,
	}
	store := newFakeNews(item)
	notifier := &fakeNotifier{}
	pub := validation.NewPublisher(store, notifier, zap.NewNop())

	admin := scope.Principal{
		ID: item.CreatedBy, Role: models.RoleDioceseAdmin, DioceseID: "DAKAR",
	}
	if err := pub.Publish(context.Background(), admin, item.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if !store.recs[item.ID].Published {
		t.Error("item should be published")
	}
	if len(notifier.calls) != 0 {
		t.Error("diocese-scoped news has no owning parish to notify")
	}
}
