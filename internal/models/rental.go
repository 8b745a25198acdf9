package models

import (
	"time"

	"github.com/google/uuid"
)

// RentalStatus represents the lifecycle state of a rental agreement.
// Matches PostgreSQL ENUM: rental_status
type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"   // Created by sales, awaiting approval
	RentalStatusApproved  RentalStatus = "approved"  // Approved, awaiting first payment
	RentalStatusActive    RentalStatus = "active"    // Paid and running
	RentalStatusOverdue   RentalStatus = "overdue"   // Renewal payment outstanding
	RentalStatusExpired   RentalStatus = "expired"   // Past end date, closed out
	RentalStatusCancelled RentalStatus = "cancelled" // Soft-deleted / withdrawn
)

// RentalDetailStatus represents the state of one lot line item.
// Matches PostgreSQL ENUM: rental_detail_status
type RentalDetailStatus string

const (
	DetailStatusPending   RentalDetailStatus = "pending"
	DetailStatusActive    RentalDetailStatus = "active"
	DetailStatusCompleted RentalDetailStatus = "completed"
	DetailStatusCancelled RentalDetailStatus = "cancelled"
)

// MinLeadTime is how far in the future a detail's start date must lie at
// creation, and also the minimum span between start and end.
const MinLeadTime = 24 * time.Hour

// Rental is a customer's agreement to occupy one or more lots for a period,
// negotiated by a sales actor. It exclusively owns its RentalDetail set.
type Rental struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	CustomerID  uuid.UUID    `json:"customer_id" db:"customer_id"`
	SalesID     uuid.UUID    `json:"sales_id" db:"sales_id"`
	WarehouseID uuid.UUID    `json:"warehouse_id" db:"warehouse_id"`
	ContractID  *uuid.UUID   `json:"contract_id,omitempty" db:"contract_id"`
	Status      RentalStatus `json:"status" db:"status"`
	Audit

	Details []RentalDetail `json:"details,omitempty" db:"-"`
}

// RentalDetail is one lot-and-date-range line item within a rental.
type RentalDetail struct {
	ID                  uuid.UUID          `json:"id" db:"id"`
	RentalID            uuid.UUID          `json:"rental_id" db:"rental_id"`
	LotID               uuid.UUID          `json:"lot_id" db:"lot_id"`
	AdditionalServiceID *uuid.UUID         `json:"additional_service_id,omitempty" db:"additional_service_id"`
	StartDate           time.Time          `json:"start_date" db:"start_date"`
	EndDate             time.Time          `json:"end_date" db:"end_date"`
	Status              RentalDetailStatus `json:"status" db:"status"`
}

// Validate enforces the date policy for a new detail: the start date must be
// at least one day in the future, and the end date at least one day after the
// start date.
func (d *RentalDetail) Validate(now time.Time) error {
	if d.StartDate.Before(now.Add(MinLeadTime)) {
		return &ValidationError{Field: "start_date", Reason: "start date must be at least one day in the future"}
	}
	if d.EndDate.Before(d.StartDate.Add(MinLeadTime)) {
		return &ValidationError{Field: "end_date", Reason: "end date must be at least one day after start date"}
	}
	return nil
}

// IsOpen reports whether the detail still holds its lot.
func (d *RentalDetail) IsOpen() bool {
	return d.Status == DetailStatusPending || d.Status == DetailStatusActive
}

// IsTerminal reports whether the rental can no longer change state.
func (r *Rental) IsTerminal() bool {
	return r.Status == RentalStatusExpired || r.Status == RentalStatusCancelled
}

// CanApprove reports whether the rental is eligible for approval.
func (r *Rental) CanApprove() bool {
	return r.Status == RentalStatusPending && !r.IsDeleted()
}

// EndDate returns the latest end date across the rental's details; the zero
// time when no details are loaded.
func (r *Rental) EndDate() time.Time {
	var end time.Time
	for _, d := range r.Details {
		if d.EndDate.After(end) {
			end = d.EndDate
		}
	}
	return end
}

// LotIDs returns the distinct lots referenced by the rental's details.
func (r *Rental) LotIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.Details))
	ids := make([]uuid.UUID, 0, len(r.Details))
	for _, d := range r.Details {
		if _, ok := seen[d.LotID]; ok {
			continue
		}
		seen[d.LotID] = struct{}{}
		ids = append(ids, d.LotID)
	}
	return ids
}
