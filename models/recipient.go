package models

import "time"

// Recipient is the consignee of a shipment. Recipients are owned by a user
// and may be shared by many bookings.
type Recipient struct {
	ID        string    `bson:"id" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	Name      string    `bson:"name" json:"name"`
	Phone     string    `bson:"phone" json:"phone"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Address1  string    `bson:"address1" json:"address1"`
	Address2  string    `bson:"address2,omitempty" json:"address2,omitempty"`
	City      string    `bson:"city" json:"city"`
	Country   string    `bson:"country" json:"country"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
