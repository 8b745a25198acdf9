package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storelink/warehouse-rental-backend/internal/middleware"
	"github.com/storelink/warehouse-rental-backend/internal/models"
	"github.com/storelink/warehouse-rental-backend/internal/services"
)

type LotHandler struct {
	rentalService *services.RentalService
}

func NewLotHandler(rentalService *services.RentalService) *LotHandler {
	return &LotHandler{rentalService: rentalService}
}

// ListLots retrieves the lots of a warehouse
// GET /api/v1/warehouses/:id/lots
func (h *LotHandler) ListLots(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid warehouse id"})
		return
	}

	lots, err := h.rentalService.ListLots(warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lots)
}

// updateLotStatusRequest is the JSON payload for the status patch
type updateLotStatusRequest struct {
	Status models.LotStatus `json:"status" binding:"required"`
}

// UpdateLotStatus applies a manual lot transition
// PATCH /api/v1/lots/:id/status
func (h *LotHandler) UpdateLotStatus(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lot id"})
		return
	}

	var req updateLotStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	lot, err := h.rentalService.UpdateLotStatus(actor, lotID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}
