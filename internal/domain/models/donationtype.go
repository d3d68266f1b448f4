// internal/domain/models/donationtype.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonationType is a category of giving a parish offers in the mobile app
// (quête, denier du culte, ...). It is managed content: a parish admin's
// type is self-approved at creation, while a church admin's type stays
// invisible to the app until the owning parish admin validates it.
//
// The internal collection (donation_types) holds every record; the public
// mirror (donation_types_public) holds only synced copies and is the sole
// collection the mobile app reads. Sync upserts by the same _id.
type DonationType struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"-"`
	Description    string              `bson:"description,omitempty" json:"description,omitempty"`
	Icon           string              `bson:"icon,omitempty" json:"icon,omitempty"`
	DefaultAmounts [4]int              `bson:"default_amounts" json:"defaultAmounts"` // FCFA
	ParishID       primitive.ObjectID  `bson:"parish_id" json:"parishId"`
	ChurchID       *primitive.ObjectID `bson:"church_id,omitempty" json:"churchId,omitempty"`
	DioceseID      string              `bson:"diocese_id" json:"dioceseId"`
	IsActive       bool                `bson:"is_active" json:"isActive"`

	CreatedBy         primitive.ObjectID  `bson:"created_by" json:"createdBy"`
	CreatedByRole     string              `bson:"created_by_role" json:"createdByRole"`
	ValidatedByParish bool                `bson:"validated_by_parish" json:"validatedByParish"`
	ValidatedBy       *primitive.ObjectID `bson:"validated_by,omitempty" json:"validatedBy,omitempty"`
	ValidatedAt       *time.Time          `bson:"validated_at,omitempty" json:"validatedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
