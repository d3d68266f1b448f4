// internal/domain/models/orgunits.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Diocese is the top of the organizational hierarchy. The Senegalese
// dioceses are a fixed, seeded set identified by a stable code (e.g.
// "DAKAR", "THIES"); Code is what parishes and scoping filters reference,
// not the ObjectID.
type Diocese struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Code           string             `bson:"diocese_id" json:"dioceseId"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"-"`
	IsMetropolitan bool               `bson:"is_metropolitan" json:"isMetropolitan"`
	IsActive       bool               `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Parish belongs to exactly one diocese. IsActive gates visibility in
// listings and in the mobile app.
type Parish struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	DioceseID string             `bson:"diocese_id" json:"dioceseId"`
	IsActive  bool               `bson:"is_active" json:"isActive"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Church belongs to exactly one parish. DioceseID is denormalized from the
// parish so diocese-level scope filters stay single-field queries.
type Church struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	ParishID  primitive.ObjectID `bson:"parish_id" json:"parishId"`
	DioceseID string             `bson:"diocese_id" json:"dioceseId"`
	IsActive  bool               `bson:"is_active" json:"isActive"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
