// internal/app/store/donationtypes/donationtypestore.go
//
// Two collections back this package: donation_types holds every record and
// is what the admin screens read; donation_types_public holds only synced
// copies and is the sole collection the mobile app consumes. Mirror moves
// records between them, keyed by the same _id.
package donationtypestore

import (
	"context"
	"errors"
	"time"

	"github.com/samaquete/jangubi/internal/app/workflow/validation"
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

var ErrDuplicateDonationType = errors.New("a donation type with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donation_types")}
}

// Create inserts a donation type. The validated flag is derived from the
// creator's role: parish admins and above self-approve, church admins
// start pending.
func (s *Store) Create(ctx context.Context, dt models.DonationType) (models.DonationType, error) {
	now := time.Now().UTC()
	dt.ID = primitive.NewObjectID()
	dt.NameCI = text.Fold(dt.Name)
	dt.IsActive = true
	dt.ValidatedByParish = validation.InitialValidated(dt.CreatedByRole)
	if dt.ValidatedByParish {
		dt.ValidatedBy = &dt.CreatedBy
		dt.ValidatedAt = &now
	}
	dt.CreatedAt = now
	dt.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, dt); err != nil {
		if wafflemongo.IsDup(err) {
			return models.DonationType{}, ErrDuplicateDonationType
		}
		return models.DonationType{}, err
	}
	return dt, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DonationType, error) {
	var dt models.DonationType
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&dt)
	if err != nil {
		return models.DonationType{}, err
	}
	return dt, nil
}

// Find returns donation types matching the given filter with optional
// find options. The caller builds the scope filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.DonationType, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.DonationType
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingForParish lists church-authored types awaiting the parish admin's
// validation, newest first.
func (s *Store) PendingForParish(ctx context.Context, parishID primitive.ObjectID) ([]models.DonationType, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.Find(ctx, bson.M{
		"parish_id":           parishID,
		"validated_by_parish": false,
	}, opts)
}

// Update modifies descriptive fields and refreshes UpdatedAt. Workflow
// flags are never touched here; they move through the validation workflow.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, dt models.DonationType) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if dt.Name != "" {
		set["name"] = dt.Name
		set["name_ci"] = text.Fold(dt.Name)
	}
	if dt.Description != "" {
		set["description"] = dt.Description
	}
	if dt.Icon != "" {
		set["icon"] = dt.Icon
	}
	if dt.DefaultAmounts != [4]int{} {
		set["default_amounts"] = dt.DefaultAmounts
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateDonationType
		}
		return err
	}
	return nil
}

// Count returns the number of donation types matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

/* ---------------------- validation.ContentStore ---------------------------- */

// Meta returns the workflow view of a record, or nil when it is absent.
func (s *Store) Meta(ctx context.Context, id primitive.ObjectID) (*validation.Meta, error) {
	dt, err := s.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := &validation.Meta{
		ID:                dt.ID,
		DioceseID:         dt.DioceseID,
		ParishID:          dt.ParishID,
		IsActive:          dt.IsActive,
		ValidatedByParish: dt.ValidatedByParish,
		CreatedBy:         dt.CreatedBy,
		CreatedByRole:     dt.CreatedByRole,
	}
	if dt.ChurchID != nil {
		m.ChurchID = *dt.ChurchID
	}
	return m, nil
}

// MarkValidated flips the validated flag and records who approved and when.
func (s *Store) MarkValidated(ctx context.Context, id, validatorID primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"validated_by_parish": true,
		"validated_by":        validatorID,
		"validated_at":        at,
		"updated_at":          at,
	}})
	return err
}

// SetActive toggles mobile-app visibility.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Delete removes a donation type from the internal collection.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

/* ----------------------- validation.MirrorStore ---------------------------- */

// Mirror maintains donation_types_public, the app-facing copy.
type Mirror struct {
	internal *mongo.Collection
	public   *mongo.Collection
}

func NewMirror(db *mongo.Database) *Mirror {
	return &Mirror{
		internal: db.Collection("donation_types"),
		public:   db.Collection("donation_types_public"),
	}
}

// UpsertFrom copies the current internal record into the public collection
// under the same _id. Re-running with no intervening mutation overwrites
// the mirror with identical values.
func (m *Mirror) UpsertFrom(ctx context.Context, id primitive.ObjectID) error {
	var dt models.DonationType
	if err := m.internal.FindOne(ctx, bson.M{"_id": id}).Decode(&dt); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	_, err := m.public.ReplaceOne(ctx, bson.M{"_id": id}, dt, opts)
	return err
}

// Remove deletes the public copy. Removing an unsynced record is a no-op.
func (m *Mirror) Remove(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.public.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// PublicFind reads the app-facing collection, mainly for verification
// screens showing what the mobile app currently sees.
func (m *Mirror) PublicFind(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.DonationType, error) {
	cur, err := m.public.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.DonationType
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
