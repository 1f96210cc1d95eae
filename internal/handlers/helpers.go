package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/railsewa/railway-reservation-backend/internal/middleware"
	"github.com/railsewa/railway-reservation-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Pagination is the paging envelope returned by list endpoints
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

func newPagination(total, page, limit int) Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Pagination{Total: total, Page: page, Pages: pages}
}

// respondServiceError maps classified engine errors to transport statuses.
// Capacity and window violations are expected user-facing outcomes and
// carry their detail payloads.
func respondServiceError(c *gin.Context, err error) {
	var capacityErr *services.CapacityError
	if errors.As(err, &capacityErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":        "capacity_exceeded",
			"message":      capacityErr.Error(),
			"code":         "CAPACITY_EXCEEDED",
			"availability": capacityErr.Availability,
		})
		return
	}

	var windowErr *services.CancellationWindowError
	if errors.As(err, &windowErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":        "cancellation_window_closed",
			"message":      windowErr.Error(),
			"code":         "CANCELLATION_WINDOW_CLOSED",
			"cutoff_hours": windowErr.Cutoff.Hours(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrTrainNotFound),
		errors.Is(err, services.ErrStationNotFound),
		errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
			Code:    "NOT_FOUND",
		})
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
			Code:    "NOT_AUTHORIZED",
		})
	case errors.Is(err, services.ErrInvalidClass),
		errors.Is(err, services.ErrInvalidJourneyDay),
		errors.Is(err, services.ErrAlreadyCancelled):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "business_rule_violation",
			Message: err.Error(),
			Code:    "BUSINESS_RULE_VIOLATION",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
			Code:    "CONFLICT_RETRY",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong",
			Code:    "INTERNAL_ERROR",
		})
	}
}

// getUserContext pulls the authenticated user out of the request context,
// answering 401 itself when the middleware never ran
func getUserContext(c *gin.Context) (middleware.UserContext, bool) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
			Code:    "UNAUTHORIZED",
		})
	}
	return userCtx, ok
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func pageParams(c *gin.Context) (int, int) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
