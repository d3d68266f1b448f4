// internal/app/store/parishes/parishstore.go
package parishstore

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

var ErrDuplicateParish = errors.New("a parish with this name already exists in this diocese")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("parishes")}
}

func (s *Store) Create(ctx context.Context, p models.Parish) (models.Parish, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.NameCI = text.Fold(p.Name)
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Parish{}, ErrDuplicateParish
		}
		return models.Parish{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Parish, error) {
	var p models.Parish
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return models.Parish{}, err
	}
	return p, nil
}

// GetByIDs loads multiple parishes by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Parish, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Parish
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Find returns parishes matching the given filter with optional find options.
// The caller is responsible for building the filter (scope) and options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Parish, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Parish
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a parish's mutable fields and refreshes UpdatedAt.
// The owning diocese is immutable after creation.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p models.Parish) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != "" {
		set["name"] = p.Name
		set["name_ci"] = text.Fold(p.Name)
	}
	if p.Address != "" {
		set["address"] = p.Address
	}
	if p.Phone != "" {
		set["phone"] = p.Phone
	}
	if p.Email != "" {
		set["email"] = p.Email
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateParish
		}
		return err
	}
	return nil
}

// SetActive toggles a parish's visibility in listings and the mobile app.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Delete removes a parish by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// NameExistsForOther checks whether another parish in the same diocese
// already uses this name. Used by update validation so a parish can keep
// its own name.
func (s *Store) NameExistsForOther(ctx context.Context, dioceseCode, nameCI string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"diocese_id": dioceseCode,
		"name_ci":    nameCI,
		"_id":        bson.M{"$ne": excludeID},
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of parishes matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
