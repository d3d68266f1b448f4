// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types and priorities.
const (
	NotifyNews     = "news"
	NotifyPrayer   = "prayer"
	NotifyDonation = "donation"
	NotifyGeneral  = "general"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// ParishNotification is an in-app notification for a parish's subscriber
// base, written when content is published or validated.
type ParishNotification struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	ParishID  primitive.ObjectID  `bson:"parish_id" json:"parishId"`
	Type      string              `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Icon      string              `bson:"icon,omitempty" json:"icon,omitempty"`
	Priority  string              `bson:"priority" json:"priority"`
	Read      bool                `bson:"read" json:"read"`
	RelatedID *primitive.ObjectID `bson:"related_id,omitempty" json:"relatedId,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
