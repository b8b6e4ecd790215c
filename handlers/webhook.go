package handlers

import (
	"context"
	"io"
	"net/http"

	"shipbook/models"
	"shipbook/services/payment"
	"shipbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stripe recommends capping webhook payloads at 64KB.
const maxWebhookBytes = 65536

type eventHandler interface {
	HandleEvent(ctx context.Context, event models.PaymentEvent) (payment.Outcome, error)
}

// WebhookHandler ingests Stripe events.
type WebhookHandler struct {
	Events eventHandler
	Secret string
	Logger *zap.Logger
}

func NewWebhookHandler(events eventHandler, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Events: events, Secret: secret, Logger: logger}
}

// Stripe acknowledges every authentic event with 200. Processing failures
// stay in the ledger for the sweep; they are never reported to Stripe.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil || len(payload) > maxWebhookBytes {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", "body unreadable or too large")
		return
	}

	event, err := payment.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"), h.Secret)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook signature", err.Error())
		return
	}

	log := h.Logger.With(zap.String("eventID", event.ID), zap.String("type", string(event.Type)))
	mapped, err := payment.EventFromStripe(event)
	if err != nil {
		log.Error("webhook: undecodable event object", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	outcome, err := h.Events.HandleEvent(c.Request.Context(), mapped)
	if err != nil {
		log.Warn("webhook: processing failed, left for sweep", zap.String("outcome", string(outcome)), zap.Error(err))
	} else {
		log.Info("webhook: handled", zap.String("outcome", string(outcome)))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
