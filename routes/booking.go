package routes

import (
	"shipbook/handlers"
	"shipbook/middleware"
	"shipbook/models"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking and payment endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookings := r.Group("/api/bookings")
	{
		bookings.Use(hb.CustomerAuth, hb.RateLimit)
		bookings.POST("", middleware.RequireCapability(models.CapCreateBooking), hb.Bookings.CreateBooking)
		bookings.POST("/quote", middleware.RequireCapability(models.CapCreateBooking), hb.Bookings.Quote)
		bookings.GET("", middleware.RequireCapability(models.CapReadOwnBooking), hb.Bookings.ListBookings)
		bookings.GET("/:id", middleware.RequireCapability(models.CapReadOwnBooking), hb.Bookings.GetBooking)
		bookings.POST("/:id/payment-intent", middleware.RequireCapability(models.CapReadOwnBooking), hb.Bookings.CreatePaymentIntent)
		bookings.POST("/:id/reconcile", middleware.RequireCapability(models.CapReconcileOwn), hb.Bookings.Reconcile)
	}
}

// RegisterWebhookRoutes registers provider callbacks. They authenticate by
// signature, so no bearer auth or rate limit applies.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/webhooks/stripe", hb.Webhooks.Stripe)
}
