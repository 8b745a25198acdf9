package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storelink/warehouse-rental-backend/internal/database"
	"github.com/storelink/warehouse-rental-backend/internal/middleware"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

type ContractHandler struct {
	contractRepo *database.ContractRepository
	rentalRepo   *database.RentalRepository
}

func NewContractHandler(contractRepo *database.ContractRepository, rentalRepo *database.RentalRepository) *ContractHandler {
	return &ContractHandler{
		contractRepo: contractRepo,
		rentalRepo:   rentalRepo,
	}
}

// attachContractRequest is the JSON payload for contract attachment
type attachContractRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
	ImageURLs []string   `json:"image_urls"`
}

// AttachContract creates a contract with its scanned images and links it to
// a rental
// POST /api/v1/rentals/:id/contract
func (h *ContractHandler) AttachContract(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !actor.Role.CanApproveRentals() {
		respondError(c, &models.PermissionError{Role: actor.Role, Operation: "attach contracts"})
		return
	}

	rentalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rental id"})
		return
	}

	var req attachContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	contract := &models.Contract{ExpiresAt: req.ExpiresAt}
	for _, url := range req.ImageURLs {
		contract.Images = append(contract.Images, models.ContractImage{URL: url})
	}

	if err := h.contractRepo.Create(contract); err != nil {
		respondError(c, err)
		return
	}

	if err := h.rentalRepo.AttachContract(rentalID, contract.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contract)
}

// GetContract retrieves a contract with its images
// GET /api/v1/contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	contract, err := h.contractRepo.GetByID(contractID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// SignContract stamps a contract as signed
// POST /api/v1/contracts/:id/sign
func (h *ContractHandler) SignContract(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !actor.Role.CanApproveRentals() {
		respondError(c, &models.PermissionError{Role: actor.Role, Operation: "sign contracts"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	if err := h.contractRepo.SetSigned(contractID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed"})
}
