package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// Lot transition rules, evaluated in order:
//
//  1. AVAILABLE -> RESERVED for manager/admin
//  2. RESERVED  -> OCCUPIED for manager/admin (paired with rental activation)
//  3. OCCUPIED  -> AVAILABLE never via this path; lots are released only by
//     the end-of-contract close-out that also closes every detail on the lot
//  4. anything else is an invalid transition
//
// Privileged roles do not bypass rule 3 here; EndContract is the bypass.

// TransitionLot validates a generic lot status update requested by an actor.
// openDetails is the number of non-terminal rental details still referencing
// the lot.
func TransitionLot(current, next models.LotStatus, role models.Role, openDetails int) error {
	if !role.CanManageLots() {
		return &models.PermissionError{Role: role, Operation: "update lot status"}
	}

	switch {
	case current == models.LotStatusAvailable && next == models.LotStatusReserved:
		return nil
	case current == models.LotStatusReserved && next == models.LotStatusOccupied:
		return nil
	case current == models.LotStatusOccupied && next == models.LotStatusAvailable:
		reason := "lot release goes through end-of-contract"
		if openDetails > 0 {
			reason = "rental details still open on this lot"
		}
		return &models.InvalidTransitionError{
			Entity: "lot",
			From:   string(current),
			To:     string(next),
			Reason: reason,
		}
	default:
		return &models.InvalidTransitionError{
			Entity: "lot",
			From:   string(current),
			To:     string(next),
		}
	}
}

// PaymentTransition is the decision produced by RentalPaymentTransition:
// the rental's next status plus the cascade to apply in the same atomic
// unit.
type PaymentTransition struct {
	RentalStatus models.RentalStatus
	// ActivateLots moves every detail PENDING->ACTIVE and its lot
	// RESERVED->OCCUPIED.
	ActivateLots bool
	// CloseAll moves every detail to COMPLETED and its lot to AVAILABLE.
	CloseAll bool
}

// RentalPaymentTransition decides the rental state change for a reconciled
// payment outcome. A failed payment never changes the rental; the customer
// may retry.
func RentalPaymentTransition(rental models.RentalStatus, outcome models.PaymentStatus, now, endDate time.Time) PaymentTransition {
	if outcome != models.PaymentStatusSuccess {
		return PaymentTransition{RentalStatus: rental}
	}

	switch rental {
	case models.RentalStatusApproved:
		return PaymentTransition{RentalStatus: models.RentalStatusActive, ActivateLots: true}
	case models.RentalStatusOverdue:
		if now.Before(endDate) {
			return PaymentTransition{RentalStatus: models.RentalStatusActive}
		}
		// Paid too late: the term is over, close everything out.
		return PaymentTransition{RentalStatus: models.RentalStatusExpired, CloseAll: true}
	default:
		return PaymentTransition{RentalStatus: rental}
	}
}

// ValidateDetails checks every detail of a new rental before any row is
// written. The first violation aborts the whole creation. A lot may appear
// in at most one detail; the reservation only fires once per lot, so a
// second detail on the same lot would hold it without ever reserving it.
func ValidateDetails(details []models.RentalDetail, now time.Time) error {
	if len(details) == 0 {
		return &models.ValidationError{Field: "details", Reason: "a rental needs at least one lot"}
	}
	seen := make(map[uuid.UUID]struct{}, len(details))
	for i := range details {
		if err := details[i].Validate(now); err != nil {
			return err
		}
		if _, dup := seen[details[i].LotID]; dup {
			return &models.ValidationError{
				Field:  "details",
				Reason: "lot " + details[i].LotID.String() + " appears in more than one detail",
			}
		}
		seen[details[i].LotID] = struct{}{}
	}
	return nil
}
