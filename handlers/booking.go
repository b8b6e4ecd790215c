package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"shipbook/models"
	"shipbook/services/booking"
	"shipbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type intentCreator interface {
	CreatePaymentIntent(ctx context.Context, identity models.Identity, bookingID string) (*models.PaymentIntentResponse, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, identity models.Identity, req models.ReconcileRequest) (*models.ReconcileResponse, error)
}

// BookingHandler serves the customer booking and payment endpoints.
type BookingHandler struct {
	Service    booking.BookingService
	Payments   intentCreator
	Reconciler reconciler
	Logger     *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, payments intentCreator, rec reconciler, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Payments: payments, Reconciler: rec, Logger: logger}
}

// CreateBooking runs the booking saga. 201 on success, 422 with issues on
// invalid input.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if err := decodeJSON(c, &req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.Service.CreateBooking(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Logger.Info("booking created", zap.String("bookingID", resp.BookingID), zap.String("userID", id.UserID))
	c.JSON(http.StatusCreated, resp)
}

// Quote prices a package set without writing anything.
func (h *BookingHandler) Quote(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	var req models.QuoteRequest
	if err := decodeJSON(c, &req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	quote, err := h.Service.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}
	list, err := h.Service.ListBookings(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	detail, err := h.Service.GetBooking(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreatePaymentIntent returns the client secret used to complete payment.
func (h *BookingHandler) CreatePaymentIntent(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	resp, err := h.Payments.CreatePaymentIntent(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile pulls the provider's view of the booking's intent. The body is
// optional and may name a specific intent.
func (h *BookingHandler) Reconcile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.ReconcileRequest
	if err := decodeJSON(c, &req); err != nil && !errors.Is(err, io.EOF) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.BookingID = c.Param("id")

	resp, err := h.Reconciler.Reconcile(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
