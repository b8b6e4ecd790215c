package booking

import (
	"strings"
	"time"

	"shipbook/models"

	"github.com/google/uuid"
)

// RecipientFromInput reduces inline recipient data to a record owned by
// ownerID. It is the one place that decides field precedence:
//   - a non-blank FullName wins; otherwise FirstName and LastName are joined
//   - a blank Country falls back to the booking's destination code
//   - every text field is trimmed
func RecipientFromInput(ownerID, destination string, in models.RecipientInput, now time.Time) *models.Recipient {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName))
	}
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = strings.ToUpper(destination)
	}

	return &models.Recipient{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Address1:  strings.TrimSpace(in.Address1),
		Address2:  strings.TrimSpace(in.Address2),
		City:      strings.TrimSpace(in.City),
		Country:   country,
		CreatedAt: now.UTC(),
	}
}
