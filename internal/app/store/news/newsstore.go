// internal/app/store/news/newsstore.go
package newsstore

import (
	"context"
	"time"

	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("parish_news")}
}

// Create inserts a news item as an unpublished draft. Content is expected
// to be sanitized by the caller before it reaches the store.
func (s *Store) Create(ctx context.Context, n models.News) (models.News, error) {
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.TitleCI = text.Fold(n.Title)
	n.Published = false
	n.PublishedAt = nil
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.News{}, err
	}
	return n, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.News, error) {
	var n models.News
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		return models.News{}, err
	}
	return n, nil
}

// Find returns news items matching the given filter with optional options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.News, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.News
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a news item's content fields and refreshes UpdatedAt.
// The publish flag moves only through the publish workflow.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, n models.News) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if n.Title != "" {
		set["title"] = n.Title
		set["title_ci"] = text.Fold(n.Title)
	}
	if n.Content != "" {
		set["content"] = n.Content
	}
	if n.Excerpt != "" {
		set["excerpt"] = n.Excerpt
	}
	if n.Category != "" {
		set["category"] = n.Category
	}
	if n.Image != "" {
		set["image"] = n.Image
	}
	if n.Author != "" {
		set["author"] = n.Author
	}
	set["show_author"] = n.ShowAuthor
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes a news item by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of news items matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

/* ------------------------ validation.NewsStore ----------------------------- */

// PublishMeta returns the publish-workflow view of an item, or nil when
// it is absent.
func (s *Store) PublishMeta(ctx context.Context, id primitive.ObjectID) (*validation.NewsMeta, error) {
	n, err := s.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := &validation.NewsMeta{
		ID:            n.ID,
		Title:         n.Title,
		DioceseID:     n.DioceseID,
		Published:     n.Published,
		CreatedBy:     n.CreatedBy,
		CreatedByRole: n.CreatedByRole,
	}
	if n.ParishID != nil {
		m.ParishID = *n.ParishID
	}
	return m, nil
}

// SetPublished flips the publish flag. at carries the publish timestamp on
// the false->true transition and is nil when unpublishing.
func (s *Store) SetPublished(ctx context.Context, id primitive.ObjectID, published bool, at *time.Time) error {
	set := bson.M{
		"published":  published,
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if at != nil {
		set["published_at"] = *at
	} else {
		update["$unset"] = bson.M{"published_at": ""}
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}
