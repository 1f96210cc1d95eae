package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railsewa/railway-reservation-backend/internal/cache"
	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/railsewa/railway-reservation-backend/internal/services"
)

// TrainHandler handles train catalog, search and availability endpoints
type TrainHandler struct {
	trainRepo      *database.TrainRepository
	bookingService *services.BookingService
	searchCache    *cache.RedisCache // nil when redis is not configured
	logger         *logrus.Logger
}

// NewTrainHandler creates a new TrainHandler
func NewTrainHandler(
	trainRepo *database.TrainRepository,
	bookingService *services.BookingService,
	searchCache *cache.RedisCache,
	logger *logrus.Logger,
) *TrainHandler {
	return &TrainHandler{
		trainRepo:      trainRepo,
		bookingService: bookingService,
		searchCache:    searchCache,
		logger:         logger,
	}
}

// CreateTrain handles POST /api/trains (admin)
func (h *TrainHandler) CreateTrain(c *gin.Context) {
	var req models.CreateTrainRequest
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

	train := &models.Train{
		TrainNumber:          req.TrainNumber,
		TrainName:            req.TrainName,
		SourceStationID:      req.SourceStationID,
		DestinationStationID: req.DestinationStationID,
		DepartureTime:        req.DepartureTime,
		ArrivalTime:          req.ArrivalTime,
		Duration:             req.Duration,
		DaysOfOperation:      models.StringArray(req.DaysOfOperation),
		Classes:              models.FareClassList(req.Classes),
	}
	if err := h.trainRepo.Create(train); err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "train_exists",
				Message: "A train with this number already exists",
				Code:    "TRAIN_EXISTS",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to create train")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create train",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Train created successfully",
		"train":   train,
	})
}

// GetTrain handles GET /api/trains/:trainId
func (h *TrainHandler) GetTrain(c *gin.Context) {
	train, err := h.trainRepo.GetByID(c.Param("trainId"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Train not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch train")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch train",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"train": train})
}

// SearchTrains handles GET /api/trains/search. Results are cached in
// redis for a short TTL when a cache is configured.
func (h *TrainHandler) SearchTrains(c *gin.Context) {
	source := c.Query("source")
	destination := c.Query("destination")
	dateStr := c.Query("date")
	if source == "" || destination == "" || dateStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "source, destination and date are required",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "date must be in YYYY-MM-DD format",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	page, limit := pageParams(c)
	query := models.TrainSearchQuery{
		SourceStationID:      source,
		DestinationStationID: destination,
		Date:                 date,
		ClassType:            models.ClassType(c.Query("class")),
		Page:                 page,
		Limit:                limit,
	}

	if h.searchCache != nil {
		if cached, err := h.searchCache.GetTrainSearch(c.Request.Context(), cache.SearchKey(query)); err != nil {
			h.logger.WithError(err).Warn("Train search cache lookup failed")
		} else if cached != nil {
			c.JSON(http.StatusOK, gin.H{
				"trains":     cached.Trains,
				"pagination": newPagination(cached.Total, page, limit),
				"cached":     true,
			})
			return
		}
	}

	trains, total, err := h.trainRepo.Search(query)
	if err != nil {
		h.logger.WithError(err).Error("Train search failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to search trains",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	if h.searchCache != nil {
		result := &cache.TrainSearchResult{Trains: trains, Total: total}
		if err := h.searchCache.SetTrainSearch(c.Request.Context(), cache.SearchKey(query), result); err != nil {
			h.logger.WithError(err).Warn("Failed to cache train search result")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"trains":     trains,
		"pagination": newPagination(total, page, limit),
	})
}

// GetAvailability handles GET /api/trains/:trainId/availability. The
// snapshot is informational; admission is re-evaluated at booking time.
func (h *TrainHandler) GetAvailability(c *gin.Context) {
	dateStr := c.Query("date")
	classType := models.ClassType(c.Query("class"))
	if dateStr == "" || classType == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "date and class are required",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "date must be in YYYY-MM-DD format",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	availability, err := h.bookingService.GetAvailability(c.Param("trainId"), date, classType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"train_id":     c.Param("trainId"),
		"journey_date": dateStr,
		"class_type":   classType,
		"availability": availability,
	})
}

// UpdateTrain handles PUT /api/trains/:trainId (admin)
func (h *TrainHandler) UpdateTrain(c *gin.Context) {
	trainID := c.Param("trainId")

	var req models.UpdateTrainRequest
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

	train, err := h.trainRepo.Update(trainID, &req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Train not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update train")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update train",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Train updated successfully",
		"train":   train,
	})
}

// DeactivateTrain handles DELETE /api/trains/:trainId (admin)
func (h *TrainHandler) DeactivateTrain(c *gin.Context) {
	if err := h.trainRepo.Deactivate(c.Param("trainId")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Train not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to deactivate train")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to deactivate train",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Train deactivated successfully"})
}
