package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/database"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// CallbackParser verifies and decodes raw gateway callback parameters.
type CallbackParser interface {
	ParseCallback(params map[string]string) (*CallbackResult, error)
}

// PaymentStore is the slice of payment persistence the orchestrator needs.
type PaymentStore interface {
	GetByTxnRef(txnRef string) (*models.Payment, error)
	ApplyOutcomeTx(outcome database.PaymentOutcome) (bool, error)
}

// RentalStore is the slice of rental persistence the orchestrator needs.
type RentalStore interface {
	GetByID(rentalID uuid.UUID) (*models.Rental, error)
}

// ReconciliationService turns verified gateway callbacks into recorded
// payment outcomes and rental transitions. Callbacks may arrive more than
// once and in any interleaving; the recorded outcome of the first
// reconciliation always stands.
type ReconciliationService struct {
	parser   CallbackParser
	payments PaymentStore
	rentals  RentalStore
	logger   *logrus.Logger
	now      func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	parser CallbackParser,
	payments PaymentStore,
	rentals RentalStore,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		parser:   parser,
		payments: payments,
		rentals:  rentals,
		logger:   logger,
		now:      time.Now,
	}
}

// ReconciliationResult is the outcome reported back for one callback.
type ReconciliationResult struct {
	PaymentID     uuid.UUID
	TxnRef        string
	PaymentStatus models.PaymentStatus
	RentalStatus  models.RentalStatus
	// Replayed marks a duplicate callback whose recorded outcome was
	// returned without applying anything.
	Replayed bool
}

// HandleCallback verifies the callback, locates the payment, short-circuits
// replays, and applies the payment outcome plus its rental cascade in one
// atomic unit.
func (s *ReconciliationService) HandleCallback(params map[string]string) (*ReconciliationResult, error) {
	cb, err := s.parser.ParseCallback(params)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.GetByTxnRef(cb.TxnRef)
	if err != nil {
		return nil, err
	}

	// Duplicate callback: the first reconciliation already decided the
	// outcome, return it unchanged.
	if payment.IsTerminal() {
		s.logger.WithFields(logrus.Fields{
			"txn_ref": cb.TxnRef,
			"status":  payment.Status,
		}).Info("Duplicate gateway callback, returning recorded outcome")
		return s.recordedResult(payment, cb.TxnRef)
	}

	outcomeStatus := models.PaymentStatusFailed
	if cb.Success() {
		outcomeStatus = models.PaymentStatusSuccess
	}

	outcome := database.PaymentOutcome{
		PaymentID:    payment.ID,
		Status:       outcomeStatus,
		GatewayTxnID: cb.GatewayTxnID,
		BankCode:     cb.BankCode,
		CardType:     cb.CardType,
		PaidAt:       cb.PaidAt,
	}

	result := &ReconciliationResult{
		PaymentID:     payment.ID,
		TxnRef:        cb.TxnRef,
		PaymentStatus: outcomeStatus,
	}

	if payment.RentalID != nil {
		rental, err := s.rentals.GetByID(*payment.RentalID)
		if err != nil {
			return nil, err
		}

		transition := RentalPaymentTransition(rental.Status, outcomeStatus, s.now(), rental.EndDate())
		outcome.RentalID = payment.RentalID
		outcome.RentalFrom = rental.Status
		outcome.RentalTo = transition.RentalStatus
		outcome.ActivateLots = transition.ActivateLots
		outcome.CloseAll = transition.CloseAll
		result.RentalStatus = transition.RentalStatus
	}

	applied, err := s.payments.ApplyOutcomeTx(outcome)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race against a concurrent callback; report what the
		// winner recorded.
		payment, err = s.payments.GetByTxnRef(cb.TxnRef)
		if err != nil {
			return nil, err
		}
		return s.recordedResult(payment, cb.TxnRef)
	}

	s.logger.WithFields(logrus.Fields{
		"txn_ref":        cb.TxnRef,
		"payment_status": outcomeStatus,
		"response_code":  cb.ResponseCode,
	}).Info("Gateway callback reconciled")

	return result, nil
}

func (s *ReconciliationService) recordedResult(payment *models.Payment, txnRef string) (*ReconciliationResult, error) {
	result := &ReconciliationResult{
		PaymentID:     payment.ID,
		TxnRef:        txnRef,
		PaymentStatus: payment.Status,
		Replayed:      true,
	}
	if payment.RentalID != nil {
		rental, err := s.rentals.GetByID(*payment.RentalID)
		if err != nil {
			return nil, err
		}
		result.RentalStatus = rental.Status
	}
	return result, nil
}
