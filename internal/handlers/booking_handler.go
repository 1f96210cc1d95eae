package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railsewa/railway-reservation-backend/internal/middleware"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/railsewa/railway-reservation-backend/internal/services"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, logger: logger}
}

func subjectFrom(userCtx middleware.UserContext) services.Subject {
	return services.Subject{UserID: userCtx.UserID, Role: userCtx.Role}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), subjectFrom(userCtx), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking created successfully",
		"booking": booking,
	})
}

// CancelBooking handles POST /api/bookings/:bookingId/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	result, err := h.bookingService.CancelBooking(c.Request.Context(), subjectFrom(userCtx), c.Param("bookingId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Booking cancelled successfully",
		"cancellation": result,
	})
}

// GetBookingByPNR handles GET /api/bookings/pnr/:pnr
func (h *BookingHandler) GetBookingByPNR(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBookingByPNR(subjectFrom(userCtx), c.Param("pnr"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// GetBookingHistory handles GET /api/bookings/history. Non-admin callers
// always see their own bookings only.
func (h *BookingHandler) GetBookingHistory(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	query := models.BookingHistoryQuery{
		UserID: c.Query("user_id"),
		Status: models.BookingStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("start_date"); raw != "" {
		if start, err := time.Parse("2006-01-02", raw); err == nil {
			query.StartDate = &start
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if end, err := time.Parse("2006-01-02", raw); err == nil {
			query.EndDate = &end
		}
	}

	bookings, total, err := h.bookingService.ListBookingHistory(subjectFrom(userCtx), query)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch booking history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch booking history",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings":   bookings,
		"pagination": newPagination(total, page, limit),
	})
}
