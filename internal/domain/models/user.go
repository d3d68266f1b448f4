// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an admin account. The org ids present depend on the role:
// diocese admins carry DioceseID, parish admins add ParishID, church
// admins add ChurchID. Super and archdiocese admins carry none.
type User struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	FullName     string              `bson:"full_name" json:"fullName"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"`
	Email        string              `bson:"email" json:"email"`
	PasswordHash []byte              `bson:"password_hash" json:"-"`
	Role         string              `bson:"role" json:"role"`
	Status       string              `bson:"status" json:"status"`
	DioceseID    string              `bson:"diocese_id,omitempty" json:"dioceseId,omitempty"`
	ParishID     *primitive.ObjectID `bson:"parish_id,omitempty" json:"parishId,omitempty"`
	ChurchID     *primitive.ObjectID `bson:"church_id,omitempty" json:"churchId,omitempty"`

	MustChangePassword bool `bson:"must_change_password" json:"mustChangePassword"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
