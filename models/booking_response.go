package models

// CreateBookingResponse is returned once the booking and all packages exist.
type CreateBookingResponse struct {
	BookingID string            `json:"bookingId"`
	TotalCost float64           `json:"totalCost"`
	Currency  string            `json:"currency"`
	Packages  []PackageResponse `json:"packages"`
	Status    BookingStatus     `json:"status"`
}

// PackageResponse pairs the client reference with the issued tracking number.
type PackageResponse struct {
	ID             string `json:"id"`
	PackageID      string `json:"packageId"`
	TrackingNumber string `json:"trackingNumber"`
}

// BookingDetail is a booking together with its packages.
type BookingDetail struct {
	Booking  Booking   `json:"booking"`
	Packages []Package `json:"packages"`
}

// BookingList is a page of bookings.
type BookingList struct {
	Bookings []Booking `json:"bookings"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}
