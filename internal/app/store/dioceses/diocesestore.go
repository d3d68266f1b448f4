// internal/app/store/dioceses/diocesestore.go
package diocesestore

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

var ErrDuplicateDiocese = errors.New("a diocese with this code already exists")

// Fixed is the seeded set of Senegalese dioceses. Codes are the stable
// identifiers the rest of the data model references; Dakar is the
// metropolitan see.
var Fixed = []models.Diocese{
	{Code: "DAKAR", Name: "Archidiocèse de Dakar", IsMetropolitan: true},
	{Code: "THIES", Name: "Diocèse de Thiès"},
	{Code: "KAOLACK", Name: "Diocèse de Kaolack"},
	{Code: "ZIGUINCHOR", Name: "Diocèse de Ziguinchor"},
	{Code: "KOLDA", Name: "Diocèse de Kolda"},
	{Code: "TAMBACOUNDA", Name: "Diocèse de Tambacounda"},
	{Code: "SAINT_LOUIS", Name: "Diocèse de Saint-Louis"},
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("dioceses")}
}

func (s *Store) Create(ctx context.Context, d models.Diocese) (models.Diocese, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.NameCI = text.Fold(d.Name)
	d.IsActive = true
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Diocese{}, ErrDuplicateDiocese
		}
		return models.Diocese{}, err
	}
	return d, nil
}

// EnsureSeeded inserts any of the fixed dioceses that are missing. Existing
// documents are left untouched, so local edits (names, active flags)
// survive restarts.
func (s *Store) EnsureSeeded(ctx context.Context) error {
	for _, d := range Fixed {
		err := s.c.FindOne(ctx, bson.M{"diocese_id": d.Code}).Err()
		if err == nil {
			continue
		}
		if err != mongo.ErrNoDocuments {
			return err
		}
		if _, err := s.Create(ctx, d); err != nil && err != ErrDuplicateDiocese {
			return err
		}
	}
	return nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (models.Diocese, error) {
	var d models.Diocese
	err := s.c.FindOne(ctx, bson.M{"diocese_id": code}).Decode(&d)
	if err != nil {
		return models.Diocese{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Diocese, error) {
	var d models.Diocese
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		return models.Diocese{}, err
	}
	return d, nil
}

// Find returns dioceses matching the given filter. The caller builds the
// filter and options (sorting, pagination).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Diocese, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Diocese
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a diocese's mutable fields and refreshes UpdatedAt.
// The code itself is immutable: everything else references it.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, d models.Diocese) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if d.Name != "" {
		set["name"] = d.Name
		set["name_ci"] = text.Fold(d.Name)
	}
	set["is_metropolitan"] = d.IsMetropolitan
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetActive toggles a diocese's listing visibility.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Count returns the number of dioceses matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
