package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/middleware"
	"github.com/storelink/warehouse-rental-backend/internal/models"
	"github.com/storelink/warehouse-rental-backend/internal/services"
)

type PaymentHandler struct {
	paymentService        *services.PaymentService
	reconciliationService *services.ReconciliationService
	logger                *logrus.Logger
}

func NewPaymentHandler(
	paymentService *services.PaymentService,
	reconciliationService *services.ReconciliationService,
	logger *logrus.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService:        paymentService,
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// initiatePaymentRequest is the JSON payload for payment initiation
type initiatePaymentRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Locale string `json:"locale"`
}

// InitiatePayment creates a pending payment and returns the gateway redirect
// POST /api/v1/rentals/:id/payments
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
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

	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	payment, redirect, err := h.paymentService.InitiatePayment(actor, services.InitiatePaymentInput{
		RentalID: rentalID,
		Amount:   req.Amount,
		ClientIP: c.ClientIP(),
		Locale:   req.Locale,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment_id":   payment.ID,
		"txn_ref":      payment.TxnRef,
		"redirect_url": redirect.URL,
		"expires_at":   redirect.ExpiresAt,
	})
}

// ListRentalPayments retrieves all payment attempts against a rental
// GET /api/v1/rentals/:id/payments
func (h *PaymentHandler) ListRentalPayments(c *gin.Context) {
	if _, exists := middleware.GetActor(c); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rentalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rental id"})
		return
	}

	payments, err := h.paymentService.ListRentalPayments(rentalID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// IPN is the gateway's server-to-server callback. The response body uses
// the gateway's own {RspCode, Message} shape, always with HTTP 200.
// GET /api/v1/payments/ipn
func (h *PaymentHandler) IPN(c *gin.Context) {
	result, err := h.reconciliationService.HandleCallback(flattenQuery(c))
	if err != nil {
		switch {
		case models.IsSignature(err):
			// Malformed and unverifiable callbacks both answer with the
			// checksum failure code; nothing about them can be trusted.
			c.JSON(http.StatusOK, gin.H{"RspCode": "97", "Message": "Invalid Checksum"})
		case models.IsNotFound(err):
			c.JSON(http.StatusOK, gin.H{"RspCode": "01", "Message": "Order Not Found"})
		default:
			h.logger.WithError(err).Error("IPN reconciliation failed")
			c.JSON(http.StatusOK, gin.H{"RspCode": "99", "Message": "Unknown Error"})
		}
		return
	}

	if result.Replayed {
		c.JSON(http.StatusOK, gin.H{"RspCode": "02", "Message": "Order Already Confirmed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
}

// GatewayReturn handles the customer's browser redirect after payment.
// It runs the same reconciliation as the IPN, so whichever arrives first
// settles the payment and the other becomes a replay.
// GET /api/v1/payments/gateway-return
func (h *PaymentHandler) GatewayReturn(c *gin.Context) {
	result, err := h.reconciliationService.HandleCallback(flattenQuery(c))
	if err != nil {
		if models.IsSignature(err) {
			// Checksum details stay in the audit log; the payer only learns
			// the callback could not be verified.
			h.logger.WithError(err).WithFields(logrus.Fields{
				"ip":   c.ClientIP(),
				"path": c.Request.URL.Path,
			}).Warn("Gateway return failed signature verification")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment could not be verified"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"txn_ref":        result.TxnRef,
		"payment_status": result.PaymentStatus,
		"rental_status":  result.RentalStatus,
	})
}

// flattenQuery reduces the request query to the single-valued map the
// signature codec works over. Repeated keys keep their first value.
func flattenQuery(c *gin.Context) map[string]string {
	query := c.Request.URL.Query()
	params := make(map[string]string, len(query))
	for k, vs := range query {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}
