package models

import "time"

// Package is a single parcel belonging to a booking. Packages are created
// only by the booking saga and never outlive a failed saga.
type Package struct {
	ID                 string    `bson:"id" json:"id"`
	BookingID          string    `bson:"booking_id" json:"booking_id"`
	Weight             float64   `bson:"weight" json:"weight"` // lb
	WeightUnknown      bool      `bson:"weight_unknown" json:"weight_unknown"`
	Length             float64   `bson:"length" json:"length"` // in
	Width              float64   `bson:"width" json:"width"`
	Height             float64   `bson:"height" json:"height"`
	DimensionsUnknown  bool      `bson:"dimensions_unknown" json:"dimensions_unknown"`
	DimWeight          float64   `bson:"dim_weight" json:"dim_weight"`
	BillableWeight     float64   `bson:"billable_weight" json:"billable_weight"`
	DeclaredValueCents int64     `bson:"declared_value_cents" json:"declared_value_cents"`
	CostCents          int64     `bson:"cost_cents" json:"cost_cents"`
	Contents           string    `bson:"contents,omitempty" json:"contents,omitempty"`
	Instructions       string    `bson:"instructions,omitempty" json:"instructions,omitempty"`
	TrackingNumber     string    `bson:"tracking_number" json:"tracking_number"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}
