package handlers

import (
	"context"
	"net/http"
	"strconv"

	"shipbook/models"
	"shipbook/services/payment"
	"shipbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type eventLedger interface {
	ListEvents(ctx context.Context, filter models.WebhookEventFilter, page models.Page) (*models.WebhookEventList, error)
	Retry(ctx context.Context, eventID string) (payment.Outcome, error)
}

type refunder interface {
	RefundBooking(ctx context.Context, identity models.Identity, bookingID string) (*models.Booking, error)
}

// AdminHandler encapsulates operator-level operations.
type AdminHandler struct {
	Events   eventLedger
	Payments refunder
	Logger   *zap.Logger
}

func NewAdminHandler(events eventLedger, payments refunder, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Events: events, Payments: payments, Logger: logger}
}

// ListWebhookEvents pages the ledger, optionally filtered by ?processed=.
func (h *AdminHandler) ListWebhookEvents(c *gin.Context) {
	var filter models.WebhookEventFilter
	if raw := c.Query("processed"); raw != "" {
		processed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid processed filter", err.Error())
			return
		}
		filter.Processed = &processed
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	list, err := h.Events.ListEvents(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// RetryWebhookEvent replays one stored event now instead of waiting for
// the sweep.
func (h *AdminHandler) RetryWebhookEvent(c *gin.Context) {
	eventID := c.Param("eventID")
	outcome, err := h.Events.Retry(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Logger.Info("webhook event retried by operator", zap.String("eventID", eventID), zap.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, gin.H{"eventId": eventID, "outcome": outcome})
}

// RefundBooking asks the provider to refund a paid booking. The booking
// moves to refunded when the provider's event arrives.
func (h *AdminHandler) RefundBooking(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	b, err := h.Payments.RefundBooking(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"bookingId": b.ID, "paymentStatus": b.PaymentStatus, "refundRequested": true})
}
