package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"shipbook/database"
	"shipbook/middleware"
	"shipbook/models"
	"shipbook/services/booking"
	"shipbook/services/payment"
	"shipbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// ValidationErrorResponse extends the standard error body with field issues.
type ValidationErrorResponse struct {
	Message string                   `json:"message"`
	Details string                   `json:"details,omitempty"`
	Issues  []models.ValidationIssue `json:"issues"`
}

func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Authentication required", "")
	}
	return id, ok
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var bookingErr *booking.Error
	if errors.As(err, &bookingErr) {
		switch {
		case errors.Is(err, booking.ErrValidationFailed):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "Validation failed",
				Details: bookingErr.Message,
				Issues:  bookingErr.Issues,
			})
			return
		case errors.Is(err, booking.ErrInvalidSchedule), errors.Is(err, booking.ErrInvalidDestination),
			errors.Is(err, booking.ErrInvalidPricingResult):
			utils.JSONError(c, http.StatusUnprocessableEntity, bookingErr.Code.Error(), bookingErr.Message)
			return
		case errors.Is(err, booking.ErrRecipientOwnershipViolation), errors.Is(err, booking.ErrForbidden):
			utils.JSONError(c, http.StatusForbidden, bookingErr.Code.Error(), bookingErr.Message)
			return
		case errors.Is(err, booking.ErrNotFound):
			utils.JSONError(c, http.StatusNotFound, "Booking not found", bookingErr.Message)
			return
		}
	}

	var stripeErr *stripe.Error
	switch {
	case errors.Is(err, payment.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, payment.ErrBookingNotFound), errors.Is(err, payment.ErrEventNotFound), errors.Is(err, database.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, payment.ErrBookingMetadataMismatch):
		utils.JSONError(c, http.StatusConflict, "BookingMetadataMismatch", err.Error())
	case errors.Is(err, payment.ErrNoPaymentIntent), errors.Is(err, payment.ErrNotPayable), errors.Is(err, payment.ErrNotRefundable):
		utils.JSONError(c, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, database.ErrDuplicateKey):
		utils.JSONError(c, http.StatusConflict, "Conflict", "duplicate record")
	case errors.As(err, &stripeErr):
		logger.Error("payment provider error", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Payment provider unavailable", stripeErr.Msg)
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please try again later.")
	}
}

func bindPage(c *gin.Context) (models.Page, bool) {
	var page models.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid pagination", err.Error())
		return page, false
	}
	return page.Normalize(), true
}

const maxBodyBytes = 1 << 20

// decodeJSON reads the body without gin's binding validation; field rules
// are enforced by the services so that every issue is reported at once.
func decodeJSON(c *gin.Context, v any) error {
	return json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)).Decode(v)
}
