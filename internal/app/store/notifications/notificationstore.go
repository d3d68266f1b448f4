// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("parish_notifications")}
}

// Create inserts a notification. Read always starts false.
func (s *Store) Create(ctx context.Context, n models.ParishNotification) (models.ParishNotification, error) {
	n.ID = primitive.NewObjectID()
	n.Read = false
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}
	n.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.ParishNotification{}, err
	}
	return n, nil
}

// ListByParish returns a parish's notifications, most recent first.
func (s *Store) ListByParish(ctx context.Context, parishID primitive.ObjectID, limit int64) ([]models.ParishNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"parish_id": parishID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []models.ParishNotification
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountUnread returns the number of unread notifications for a parish.
func (s *Store) CountUnread(ctx context.Context, parishID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"parish_id": parishID, "read": false})
}

// MarkRead flags one of a parish's notifications as read. Returns the
// number matched: zero means the id is unknown or belongs to another
// parish, which callers treat the same way.
func (s *Store) MarkRead(ctx context.Context, id, parishID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "parish_id": parishID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// MarkAllRead flags all of a parish's notifications as read.
func (s *Store) MarkAllRead(ctx context.Context, parishID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"parish_id": parishID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
