package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/database"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// RentalService implements the rental lifecycle operations: creation,
// approval, manual lot transitions, contract close-out, and the
// expiring-soon report.
type RentalService struct {
	rentals   *database.RentalRepository
	lots      *database.LotRepository
	notifier  *NotificationService
	lookahead time.Duration
	logger    *logrus.Logger
}

// NewRentalService creates a new RentalService
func NewRentalService(
	rentals *database.RentalRepository,
	lots *database.LotRepository,
	notifier *NotificationService,
	lookahead time.Duration,
	logger *logrus.Logger,
) *RentalService {
	return &RentalService{
		rentals:   rentals,
		lots:      lots,
		notifier:  notifier,
		lookahead: lookahead,
		logger:    logger,
	}
}

// CreateRentalInput is the payload for a new rental.
type CreateRentalInput struct {
	CustomerID  uuid.UUID
	WarehouseID uuid.UUID
	ContractID  *uuid.UUID
	Details     []models.RentalDetail
}

// CreateRental validates every detail's dates, then persists the rental,
// its details, and the lot reservations in a single transaction. Nothing is
// written if any detail or lot fails.
func (s *RentalService) CreateRental(actor models.Actor, input CreateRentalInput) (*models.Rental, error) {
	if actor.Role != models.RoleSales && actor.Role != models.RoleAdmin {
		return nil, &models.PermissionError{Role: actor.Role, Operation: "create rentals"}
	}

	if err := ValidateDetails(input.Details, time.Now()); err != nil {
		return nil, err
	}

	rental := &models.Rental{
		CustomerID:  input.CustomerID,
		SalesID:     actor.UserID,
		WarehouseID: input.WarehouseID,
		ContractID:  input.ContractID,
		Details:     input.Details,
	}

	if err := s.rentals.CreateWithDetails(rental); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"rental_id":   rental.ID,
		"customer_id": rental.CustomerID,
		"lots":        len(rental.Details),
	}).Info("Rental created")

	s.notifier.RentalCreated(rental)

	return rental, nil
}

// GetRental retrieves a rental with its details.
func (s *RentalService) GetRental(rentalID uuid.UUID) (*models.Rental, error) {
	return s.rentals.GetByID(rentalID)
}

// ApproveRental moves a pending rental to approved. The rental then waits
// for its first payment before anything else changes.
func (s *RentalService) ApproveRental(actor models.Actor, rentalID uuid.UUID) (*models.Rental, error) {
	if !actor.Role.CanApproveRentals() {
		return nil, &models.PermissionError{Role: actor.Role, Operation: "approve rentals"}
	}

	rental, err := s.rentals.GetByID(rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.CanApprove() {
		return nil, &models.InvalidTransitionError{
			Entity: "rental",
			From:   string(rental.Status),
			To:     string(models.RentalStatusApproved),
			Reason: "only pending rentals can be approved",
		}
	}

	ok, err := s.rentals.UpdateStatusCAS(rentalID, models.RentalStatusPending, models.RentalStatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.InvalidTransitionError{
			Entity: "rental",
			From:   string(rental.Status),
			To:     string(models.RentalStatusApproved),
			Reason: "rental changed state concurrently",
		}
	}

	rental.Status = models.RentalStatusApproved
	s.logger.WithField("rental_id", rentalID).Info("Rental approved")
	s.notifier.RentalApproved(rental)

	return rental, nil
}

// CancelRental withdraws a rental that has not yet been paid, releasing its
// reserved lots.
func (s *RentalService) CancelRental(actor models.Actor, rentalID uuid.UUID) error {
	if !actor.Role.CanApproveRentals() {
		return &models.PermissionError{Role: actor.Role, Operation: "cancel rentals"}
	}

	if err := s.rentals.Cancel(rentalID); err != nil {
		return err
	}
	s.logger.WithField("rental_id", rentalID).Info("Rental cancelled")
	return nil
}

// UpdateLotStatus applies a manual lot transition after checking the
// lifecycle rules. Lots never become AVAILABLE through this path.
func (s *RentalService) UpdateLotStatus(actor models.Actor, lotID uuid.UUID, next models.LotStatus) (*models.Lot, error) {
	lot, err := s.lots.GetByID(lotID)
	if err != nil {
		return nil, err
	}

	openDetails, err := s.lots.CountOpenDetails(lotID)
	if err != nil {
		return nil, err
	}

	if err := TransitionLot(lot.Status, next, actor.Role, openDetails); err != nil {
		return nil, err
	}

	ok, err := s.lots.UpdateStatusCAS(lotID, lot.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.InvalidTransitionError{
			Entity: "lot",
			From:   string(lot.Status),
			To:     string(next),
			Reason: "lot changed state concurrently",
		}
	}

	lot.Status = next
	s.logger.WithFields(logrus.Fields{
		"lot_id": lotID,
		"status": next,
	}).Info("Lot status updated")

	return lot, nil
}

// ListLots retrieves the lots of a warehouse.
func (s *RentalService) ListLots(warehouseID uuid.UUID) ([]models.Lot, error) {
	return s.lots.ListByWarehouse(warehouseID)
}

// EndContract is the explicit close-out path: the rental ends, open details
// complete, and the lots return to AVAILABLE in one atomic unit.
func (s *RentalService) EndContract(actor models.Actor, rentalID uuid.UUID) error {
	if !actor.Role.CanManageLots() {
		return &models.PermissionError{Role: actor.Role, Operation: "end contracts"}
	}

	if err := s.rentals.CloseRentalTx(rentalID, models.RentalStatusExpired); err != nil {
		return err
	}

	s.logger.WithField("rental_id", rentalID).Info("Contract ended, lots released")
	return nil
}

// ListExpiring reports active details ending within the configured
// lookahead window. Read-only; nothing transitions.
func (s *RentalService) ListExpiring(now time.Time) ([]models.RentalDetail, error) {
	return s.lots.ListExpiringDetails(now, s.lookahead)
}
