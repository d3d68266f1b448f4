// internal/domain/models/prayertime.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DaysOfWeek lists the accepted day names for prayer-time schedules,
// in the French the mobile app displays.
var DaysOfWeek = []string{
	"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi",
}

// ValidDay reports whether day is one of DaysOfWeek.
func ValidDay(day string) bool {
	for _, d := range DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// PrayerTime is a scheduled mass or prayer hour. Same validation workflow
// as DonationType: church-authored entries wait on parish validation before
// sync mirrors them into prayer_times_public for the mobile app.
type PrayerTime struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	ParishID    primitive.ObjectID  `bson:"parish_id" json:"parishId"`
	ChurchID    *primitive.ObjectID `bson:"church_id,omitempty" json:"churchId,omitempty"`
	DioceseID   string              `bson:"diocese_id" json:"dioceseId"`
	Name        string              `bson:"name" json:"name"`
	Time        string              `bson:"time" json:"time"` // "HH:mm"
	Days        []string            `bson:"days" json:"days"`
	Active      bool                `bson:"active" json:"active"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`

	CreatedBy         primitive.ObjectID  `bson:"created_by" json:"createdBy"`
	CreatedByRole     string              `bson:"created_by_role" json:"createdByRole"`
	ValidatedByParish bool                `bson:"validated_by_parish" json:"validatedByParish"`
	ValidatedBy       *primitive.ObjectID `bson:"validated_by,omitempty" json:"validatedBy,omitempty"`
	ValidatedAt       *time.Time          `bson:"validated_at,omitempty" json:"validatedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
