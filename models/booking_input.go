package models

// CreateBookingRequest is the client's booking intent.
type CreateBookingRequest struct {
	ServiceLevel        ServiceLevel    `json:"serviceLevel" binding:"required,oneof=standard express"`
	Destination         string          `json:"destination" binding:"required,len=2"`
	ScheduledDate       string          `json:"scheduledDate" binding:"required,datetime=2006-01-02"`
	TimeSlot            string          `json:"timeSlot" binding:"omitempty,oneof=morning afternoon evening"`
	Packages            []PackageInput  `json:"packages" binding:"required,min=1,max=50,dive"`
	RecipientID         string          `json:"recipientId" binding:"required_without=Recipient"`
	Recipient           *RecipientInput `json:"recipient" binding:"required_without=RecipientID"`
	SpecialInstructions string          `json:"specialInstructions" binding:"max=500"`
	DoorToDoor          bool            `json:"doorToDoor"`
	CustomsClearance    bool            `json:"customsClearance"`
	Insurance           bool            `json:"insurance"`
}

// PackageInput describes one parcel. Weight and dimensions may be unknown.
type PackageInput struct {
	ID                string      `json:"id"` // client-side reference, echoed back
	Weight            *float64    `json:"weight" binding:"omitempty,gt=0,lte=1000"`
	WeightUnknown     bool        `json:"weightUnknown"`
	Dimensions        *Dimensions `json:"dimensions"`
	DimensionsUnknown bool        `json:"dimensionsUnknown"`
	DeclaredValue     float64     `json:"declaredValue" binding:"gte=0"`
	Contents          string      `json:"contents" binding:"max=500"`
	Instructions      string      `json:"instructions" binding:"max=500"`
}

// Dimensions are inches.
type Dimensions struct {
	Length float64 `json:"length" binding:"gt=0,lte=200"`
	Width  float64 `json:"width" binding:"gt=0,lte=200"`
	Height float64 `json:"height" binding:"gt=0,lte=200"`
}

// RecipientInput is inline recipient data. FullName takes precedence over
// FirstName/LastName; see booking.RecipientFromInput.
type RecipientInput struct {
	FullName  string `json:"fullName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Address1  string `json:"address1" binding:"required"`
	Address2  string `json:"address2"`
	City      string `json:"city" binding:"required"`
	Country   string `json:"country"`
}

// ValidationIssue is one rejected input field.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// QuoteRequest asks for a price preview without creating anything.
type QuoteRequest struct {
	ServiceLevel     ServiceLevel   `json:"serviceLevel" binding:"required,oneof=standard express"`
	Destination      string         `json:"destination" binding:"required,len=2"`
	Packages         []PackageInput `json:"packages" binding:"required,min=1,max=50,dive"`
	DoorToDoor       bool           `json:"doorToDoor"`
	CustomsClearance bool           `json:"customsClearance"`
	Insurance        bool           `json:"insurance"`
}
