package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// respondError maps domain errors onto HTTP statuses. Anything untyped is a
// 500 with a generic message so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case models.IsSignature(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case models.IsPermission(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case models.IsInvalidTransition(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
