package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/middleware"
	"github.com/storelink/warehouse-rental-backend/internal/models"
	"github.com/storelink/warehouse-rental-backend/internal/services"
)

type RentalHandler struct {
	rentalService *services.RentalService
	logger        *logrus.Logger
}

func NewRentalHandler(rentalService *services.RentalService, logger *logrus.Logger) *RentalHandler {
	return &RentalHandler{
		rentalService: rentalService,
		logger:        logger,
	}
}

// createRentalRequest is the JSON payload for POST /rentals
type createRentalRequest struct {
	CustomerID  uuid.UUID           `json:"customer_id" binding:"required"`
	WarehouseID uuid.UUID           `json:"warehouse_id" binding:"required"`
	ContractID  *uuid.UUID          `json:"contract_id"`
	Details     []rentalDetailInput `json:"details" binding:"required"`
}

type rentalDetailInput struct {
	LotID               uuid.UUID  `json:"lot_id" binding:"required"`
	AdditionalServiceID *uuid.UUID `json:"additional_service_id"`
	StartDate           time.Time  `json:"start_date" binding:"required"`
	EndDate             time.Time  `json:"end_date" binding:"required"`
}

// CreateRental creates a rental with its lot line items
// POST /api/v1/rentals
func (h *RentalHandler) CreateRental(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	details := make([]models.RentalDetail, 0, len(req.Details))
	for _, d := range req.Details {
		details = append(details, models.RentalDetail{
			LotID:               d.LotID,
			AdditionalServiceID: d.AdditionalServiceID,
			StartDate:           d.StartDate,
			EndDate:             d.EndDate,
		})
	}

	rental, err := h.rentalService.CreateRental(actor, services.CreateRentalInput{
		CustomerID:  req.CustomerID,
		WarehouseID: req.WarehouseID,
		ContractID:  req.ContractID,
		Details:     details,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rental)
}

// GetRental retrieves a rental with its details
// GET /api/v1/rentals/:id
func (h *RentalHandler) GetRental(c *gin.Context) {
	rentalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rental id"})
		return
	}

	rental, err := h.rentalService.GetRental(rentalID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rental)
}

// updateRentalStatusRequest is the JSON payload for the status patch
type updateRentalStatusRequest struct {
	Status models.RentalStatus `json:"status" binding:"required"`
}

// UpdateRentalStatus approves or cancels a rental
// PATCH /api/v1/rentals/:id/status
func (h *RentalHandler) UpdateRentalStatus(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rentalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rental id"})
		return
	}

	var req updateRentalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	switch req.Status {
	case models.RentalStatusApproved:
		rental, err := h.rentalService.ApproveRental(actor, rentalID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rental)
	case models.RentalStatusCancelled:
		if err := h.rentalService.CancelRental(actor, rentalID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": models.RentalStatusCancelled})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Only approval and cancellation can be requested directly; other transitions are driven by payments and the expiration sweep",
		})
	}
}

// EndContract closes a running rental out and releases its lots
// POST /api/v1/rentals/:id/end-contract
func (h *RentalHandler) EndContract(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rentalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rental id"})
		return
	}

	if err := h.rentalService.EndContract(actor, rentalID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.RentalStatusExpired})
}

// ListExpiring reports details ending within the lookahead window
// GET /api/v1/rentals/expiring
func (h *RentalHandler) ListExpiring(c *gin.Context) {
	if _, exists := middleware.GetActor(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	details, err := h.rentalService.ListExpiring(time.Now())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list expiring details")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list expiring rentals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(details), "details": details})
}
