// internal/domain/models/donation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation statuses. Pending is the only state a donation is created in;
// the only legal transitions are pending -> confirmed and pending -> cancelled.
const (
	DonationPending   = "pending"
	DonationConfirmed = "confirmed"
	DonationCancelled = "cancelled"
)

// ValidDonationStatus reports whether s is a known donation status.
func ValidDonationStatus(s string) bool {
	return s == DonationPending || s == DonationConfirmed || s == DonationCancelled
}

// Donation is an immutable financial record. After creation nothing but
// Status (and UpdatedAt) may change, and only super admins may delete one.
type Donation struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ReceiptNo string             `bson:"receipt_no" json:"receiptNo"`
	DonorName string             `bson:"donor_name" json:"donorName"`
	Amount    int64              `bson:"amount" json:"amount"` // FCFA
	Currency  string             `bson:"currency" json:"currency"`
	Type      string             `bson:"type" json:"type"` // donation type name
	Status    string             `bson:"status" json:"status"`

	PaymentMethod  string              `bson:"payment_method,omitempty" json:"paymentMethod,omitempty"`
	ParishID       primitive.ObjectID  `bson:"parish_id" json:"parishId"`
	ChurchID       *primitive.ObjectID `bson:"church_id,omitempty" json:"churchId,omitempty"`
	DioceseID      string              `bson:"diocese_id" json:"dioceseId"`
	DonationTypeID *primitive.ObjectID `bson:"donation_type_id,omitempty" json:"donationTypeId,omitempty"`
	DonorUserID    *primitive.ObjectID `bson:"donor_user_id,omitempty" json:"donorUserId,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
