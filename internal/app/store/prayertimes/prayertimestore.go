// internal/app/store/prayertimes/prayertimestore.go
//
// prayer_times is the internal collection; prayer_times_public holds the
// synced copies the mobile app reads. Same split as donation types.
package prayertimestore

import (
	"context"
	"time"

	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("prayer_times")}
}

// Create inserts a prayer time. Church-authored entries start unvalidated;
// parish-authored ones are self-approved.
func (s *Store) Create(ctx context.Context, pt models.PrayerTime) (models.PrayerTime, error) {
	now := time.Now().UTC()
	pt.ID = primitive.NewObjectID()
	pt.Active = true
	pt.ValidatedByParish = validation.InitialValidated(pt.CreatedByRole)
	if pt.ValidatedByParish {
		pt.ValidatedBy = &pt.CreatedBy
		pt.ValidatedAt = &now
	}
	pt.CreatedAt = now
	pt.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, pt); err != nil {
		return models.PrayerTime{}, err
	}
	return pt, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.PrayerTime, error) {
	var pt models.PrayerTime
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&pt)
	if err != nil {
		return models.PrayerTime{}, err
	}
	return pt, nil
}

// Find returns prayer times matching the given filter with optional
// find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.PrayerTime, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.PrayerTime
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingForParish lists church-authored entries awaiting validation,
// newest first.
func (s *Store) PendingForParish(ctx context.Context, parishID primitive.ObjectID) ([]models.PrayerTime, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.Find(ctx, bson.M{
		"parish_id":           parishID,
		"validated_by_parish": false,
	}, opts)
}

// Update modifies schedule fields and refreshes UpdatedAt. Workflow flags
// move through the validation workflow only.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, pt models.PrayerTime) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if pt.Name != "" {
		set["name"] = pt.Name
	}
	if pt.Time != "" {
		set["time"] = pt.Time
	}
	if len(pt.Days) > 0 {
		set["days"] = pt.Days
	}
	if pt.Description != "" {
		set["description"] = pt.Description
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Count returns the number of prayer times matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

/* ---------------------- validation.ContentStore ---------------------------- */

// Meta returns the workflow view of a record, or nil when it is absent.
func (s *Store) Meta(ctx context.Context, id primitive.ObjectID) (*validation.Meta, error) {
	pt, err := s.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := &validation.Meta{
		ID:                pt.ID,
		DioceseID:         pt.DioceseID,
		ParishID:          pt.ParishID,
		IsActive:          pt.Active,
		ValidatedByParish: pt.ValidatedByParish,
		CreatedBy:         pt.CreatedBy,
		CreatedByRole:     pt.CreatedByRole,
	}
	if pt.ChurchID != nil {
		m.ChurchID = *pt.ChurchID
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
		"active":     active,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Delete removes a prayer time from the internal collection.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

/* ----------------------- validation.MirrorStore ---------------------------- */

// Mirror maintains prayer_times_public.
type Mirror struct {
	internal *mongo.Collection
	public   *mongo.Collection
}

func NewMirror(db *mongo.Database) *Mirror {
	return &Mirror{
		internal: db.Collection("prayer_times"),
		public:   db.Collection("prayer_times_public"),
	}
}

// UpsertFrom copies the current internal record into the public collection
// under the same _id.
func (m *Mirror) UpsertFrom(ctx context.Context, id primitive.ObjectID) error {
	var pt models.PrayerTime
	if err := m.internal.FindOne(ctx, bson.M{"_id": id}).Decode(&pt); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	_, err := m.public.ReplaceOne(ctx, bson.M{"_id": id}, pt, opts)
	return err
}

// Remove deletes the public copy. Removing an unsynced record is a no-op.
func (m *Mirror) Remove(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.public.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// PublicFind reads the app-facing collection.
func (m *Mirror) PublicFind(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.PrayerTime, error) {
	cur, err := m.public.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.PrayerTime
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
