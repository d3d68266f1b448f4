// internal/app/store/churches/churchstore.go
package churchstore

import (
	"context"
	"errors"
	"time"

	"github.com/samaquete/jangubi/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateChurch = errors.New("a church with this name already exists in this parish")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("churches")}
}

// Create inserts a church. DioceseID must already be denormalized from the
// owning parish by the caller.
func (s *Store) Create(ctx context.Context, ch models.Church) (models.Church, error) {
	now := time.Now().UTC()
	ch.ID = primitive.NewObjectID()
	ch.NameCI = text.Fold(ch.Name)
	ch.IsActive = true
	ch.CreatedAt = now
	ch.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Church{}, ErrDuplicateChurch
		}
		return models.Church{}, err
	}
	return ch, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Church, error) {
	var ch models.Church
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch)
	if err != nil {
		return models.Church{}, err
	}
	return ch, nil
}

// Find returns churches matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Church, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Church
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a church's mutable fields and refreshes UpdatedAt.
// The owning parish and diocese are immutable after creation.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, ch models.Church) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if ch.Name != "" {
		set["name"] = ch.Name
		set["name_ci"] = text.Fold(ch.Name)
	}
	if ch.Address != "" {
		set["address"] = ch.Address
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateChurch
		}
		return err
	}
	return nil
}

// SetActive toggles a church's visibility in listings and the mobile app.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Delete removes a church by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// NameExistsForOther checks whether another church in the same parish
// already uses this name.
func (s *Store) NameExistsForOther(ctx context.Context, parishID primitive.ObjectID, nameCI string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"parish_id": parishID,
		"name_ci":   nameCI,
		"_id":       bson.M{"$ne": excludeID},
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of churches matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
