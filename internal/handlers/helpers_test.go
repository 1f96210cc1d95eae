package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/railsewa/railway-reservation-backend/internal/services"
)

func respondWith(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondServiceError(c, err)
	return w
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"Train Not Found", services.ErrTrainNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"Booking Not Found", services.ErrBookingNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"Not Authorized", services.ErrNotAuthorized, http.StatusForbidden, "NOT_AUTHORIZED"},
		{"Invalid Class", services.ErrInvalidClass, http.StatusBadRequest, "BUSINESS_RULE_VIOLATION"},
		{"Invalid Journey Day", services.ErrInvalidJourneyDay, http.StatusBadRequest, "BUSINESS_RULE_VIOLATION"},
		{"Already Cancelled", services.ErrAlreadyCancelled, http.StatusBadRequest, "BUSINESS_RULE_VIOLATION"},
		{"PNR Conflict", fmt.Errorf("wrapped: %w", services.ErrConflict), http.StatusConflict, "CONFLICT_RETRY"},
		{"Unexpected Error", fmt.Errorf("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := respondWith(tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestRespondServiceError_Capacity(t *testing.T) {
	err := &services.CapacityError{
		Requested: 3,
		Availability: models.ClassAvailability{
			ClassType:      models.ClassSleeper,
			TotalSeats:     100,
			ConfirmedSeats: 100,
		},
	}

	w := respondWith(err)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CAPACITY_EXCEEDED")
	assert.Contains(t, w.Body.String(), "availability")
}

func TestRespondServiceError_CancellationWindow(t *testing.T) {
	err := &services.CancellationWindowError{
		Cutoff:      4 * time.Hour,
		JourneyDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	w := respondWith(err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CANCELLATION_WINDOW_CLOSED")
	assert.Contains(t, w.Body.String(), "cutoff_hours")
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		limit     int
		wantPages int
	}{
		{"Exact Fit", 20, 1, 10, 2},
		{"Partial Last Page", 21, 1, 10, 3},
		{"Empty", 0, 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPagination(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.wantPages, p.Pages)
		})
	}
}
