package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// StationHandler handles station catalog endpoints
type StationHandler struct {
	stationRepo *database.StationRepository
	logger      *logrus.Logger
}

// NewStationHandler creates a new StationHandler
func NewStationHandler(stationRepo *database.StationRepository, logger *logrus.Logger) *StationHandler {
	return &StationHandler{stationRepo: stationRepo, logger: logger}
}

// CreateStation handles POST /api/stations (admin)
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req models.CreateStationRequest
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

	station := &models.Station{
		StationCode: req.StationCode,
		StationName: req.StationName,
		City:        req.City,
		State:       req.State,
		Pincode:     req.Pincode,
	}
	if err := h.stationRepo.Create(station); err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "station_exists",
				Message: "A station with this code already exists",
				Code:    "STATION_EXISTS",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to create station")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create station",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Station created successfully",
		"station": station,
	})
}

// GetStation handles GET /api/stations/:stationId. The parameter is
// treated as a station code when it looks like one, else as an ID.
func (h *StationHandler) GetStation(c *gin.Context) {
	param := c.Param("stationId")

	var (
		station *models.Station
		err     error
	)
	if len(param) <= 5 {
		station, err = h.stationRepo.GetByCode(strings.ToUpper(param))
	} else {
		station, err = h.stationRepo.GetByID(param)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Station not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch station")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch station",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"station": station})
}

// ListStations handles GET /api/stations
func (h *StationHandler) ListStations(c *gin.Context) {
	page, limit := pageParams(c)
	activeOnly := c.DefaultQuery("active", "true") != "false"

	stations, total, err := h.stationRepo.List(c.Query("city"), c.Query("state"), activeOnly, page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list stations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch stations",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stations":   stations,
		"pagination": newPagination(total, page, limit),
	})
}

// UpdateStation handles PUT /api/stations/:stationId (admin)
func (h *StationHandler) UpdateStation(c *gin.Context) {
	stationID := c.Param("stationId")

	var req models.UpdateStationRequest
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

	station, err := h.stationRepo.Update(stationID, &req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Station not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update station")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update station",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Station updated successfully",
		"station": station,
	})
}

// DeactivateStation handles DELETE /api/stations/:stationId (admin).
// Stations are soft-deleted to keep historical bookings resolvable.
func (h *StationHandler) DeactivateStation(c *gin.Context) {
	stationID := c.Param("stationId")

	if err := h.stationRepo.Deactivate(stationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Station not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to deactivate station")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to deactivate station",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Station deactivated successfully"})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
