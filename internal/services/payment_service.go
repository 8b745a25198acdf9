package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/database"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// maxRefAttempts bounds transaction reference regeneration on collision.
const maxRefAttempts = 5

// PaymentService initiates gateway payments against rentals.
type PaymentService struct {
	payments *database.PaymentRepository
	rentals  *database.RentalRepository
	gateway  *GatewayService
	logger   *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments *database.PaymentRepository,
	rentals *database.RentalRepository,
	gateway *GatewayService,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		rentals:  rentals,
		gateway:  gateway,
		logger:   logger,
	}
}

// InitiatePaymentInput carries a payment initiation request.
type InitiatePaymentInput struct {
	RentalID uuid.UUID
	Amount   int64 // major currency units
	ClientIP string
	Locale   string
}

// InitiatePayment records a pending payment and returns the signed gateway
// redirect. Reference collisions are retried with a fresh reference a
// bounded number of times.
func (s *PaymentService) InitiatePayment(actor models.Actor, input InitiatePaymentInput) (*models.Payment, *Redirect, error) {
	rental, err := s.rentals.GetByID(input.RentalID)
	if err != nil {
		return nil, nil, err
	}
	if rental.IsTerminal() {
		return nil, nil, &models.InvalidTransitionError{
			Entity: "rental",
			From:   string(rental.Status),
			To:     string(rental.Status),
			Reason: "rental is closed, nothing to pay for",
		}
	}
	if rental.Status == models.RentalStatusPending {
		return nil, nil, &models.InvalidTransitionError{
			Entity: "rental",
			From:   string(rental.Status),
			To:     string(rental.Status),
			Reason: "rental must be approved before payment",
		}
	}
	if input.Amount <= 0 {
		return nil, nil, &models.ValidationError{Field: "amount", Reason: "amount must be positive"}
	}

	orderInfo := fmt.Sprintf("Warehouse rental %s", rental.ID)

	var payment *models.Payment
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		ref := s.gateway.NewTransactionRef()
		candidate := &models.Payment{
			UserID:    actor.UserID,
			RentalID:  &rental.ID,
			Amount:    input.Amount,
			OrderInfo: orderInfo,
			TxnRef:    &ref,
		}

		err = s.payments.Create(candidate)
		if err == nil {
			payment = candidate
			break
		}
		if !errors.Is(err, database.ErrDuplicateTxnRef) {
			return nil, nil, err
		}
		s.logger.WithField("txn_ref", ref).Warn("Transaction reference collision, regenerating")
	}
	if payment == nil {
		return nil, nil, fmt.Errorf("could not allocate a unique transaction reference after %d attempts", maxRefAttempts)
	}

	redirect, err := s.gateway.BuildRedirect(RedirectRequest{
		TxnRef:    *payment.TxnRef,
		Amount:    payment.Amount,
		OrderInfo: payment.OrderInfo,
		ClientIP:  input.ClientIP,
		Locale:    input.Locale,
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"rental_id":  rental.ID,
		"txn_ref":    *payment.TxnRef,
	}).Info("Payment initiated")

	return payment, redirect, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(paymentID uuid.UUID) (*models.Payment, error) {
	return s.payments.GetByID(paymentID)
}

// ListRentalPayments retrieves every payment attempt against a rental.
func (s *PaymentService) ListRentalPayments(rentalID uuid.UUID) ([]models.Payment, error) {
	return s.payments.ListByRental(rentalID)
}
