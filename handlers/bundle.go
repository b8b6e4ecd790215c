package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups the endpoint handlers and the route-level
// middleware they are mounted behind.
type HandlerBundle struct {
	Bookings *BookingHandler
	Webhooks *WebhookHandler
	Admin    *AdminHandler

	// Auth middleware
	CustomerAuth gin.HandlerFunc
	OperatorAuth gin.HandlerFunc
	RateLimit    gin.HandlerFunc
}
