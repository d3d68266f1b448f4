// internal/app/store/donations/donationstore.go
package donationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrStatusFinal is returned when a status transition is attempted on a
// donation that already left the pending state. Donations are immutable
// apart from the single pending -> confirmed/cancelled step.
var ErrStatusFinal = errors.New("donation status is final")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donations")}
}

// Create inserts a donation in the pending state and issues its receipt
// number. Amounts are FCFA.
func (s *Store) Create(ctx context.Context, d models.Donation) (models.Donation, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.ReceiptNo = newReceiptNo()
	d.Status = models.DonationPending
	if d.Currency == "" {
		d.Currency = "XOF"
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

// newReceiptNo builds a short, human-quotable receipt reference.
func newReceiptNo() string {
	return "SQ-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Donation, error) {
	var d models.Donation
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

func (s *Store) GetByReceiptNo(ctx context.Context, receiptNo string) (models.Donation, error) {
	var d models.Donation
	err := s.c.FindOne(ctx, bson.M{"receipt_no": receiptNo}).Decode(&d)
	if err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

// Find returns donations matching the given filter with optional options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Donation, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Donation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus applies the single legal transition, pending -> status.
// The filter makes the update atomic: a donation that already left pending
// is never touched, and the caller gets ErrStatusFinal.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.DonationPending},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either absent or already final; disambiguate for the caller.
		err := s.c.FindOne(ctx, bson.M{"_id": id}).Err()
		if err == mongo.ErrNoDocuments {
			return mongo.ErrNoDocuments
		}
		if err != nil {
			return err
		}
		return ErrStatusFinal
	}
	return nil
}

// Delete removes a donation. Restricted to super admins at the policy
// layer; the store does not re-check.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of donations matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// StatusTotal is one row of a donations summary.
type StatusTotal struct {
	Status string `bson:"_id" json:"status"`
	Count  int64  `bson:"count" json:"count"`
	Amount int64  `bson:"amount" json:"amount"`
}

// TotalsByStatus aggregates count and FCFA amount per status within the
// given scope filter.
func (s *Store) TotalsByStatus(ctx context.Context, match bson.M) ([]StatusTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$status",
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []StatusTotal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TypeTotal is one row of a per-type summary.
type TypeTotal struct {
	Type   string `bson:"_id" json:"type"`
	Count  int64  `bson:"count" json:"count"`
	Amount int64  `bson:"amount" json:"amount"`
}

// TotalsByType aggregates confirmed donations per donation-type name
// within the given scope filter.
func (s *Store) TotalsByType(ctx context.Context, match bson.M) ([]TypeTotal, error) {
	scoped := bson.M{"status": models.DonationConfirmed}
	for k, v := range match {
		scoped[k] = v
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scoped}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$type",
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.M{"amount": -1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []TypeTotal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
