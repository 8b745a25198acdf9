package models

import "github.com/google/uuid"

// LotStatus represents the occupancy state of a warehouse lot.
// Matches PostgreSQL ENUM: lot_status
type LotStatus string

const (
	LotStatusAvailable        LotStatus = "available"
	LotStatusReserved         LotStatus = "reserved"          // Held by a pending/approved rental
	LotStatusOccupied         LotStatus = "occupied"          // Backing an active rental
	LotStatusUnderMaintenance LotStatus = "under_maintenance" // Withdrawn from offer
	LotStatusSoldOut          LotStatus = "sold_out"          // Permanently removed from rental pool
)

// Lot is a rentable subdivision of a warehouse.
type Lot struct {
	ID          uuid.UUID `json:"id" db:"id"`
	WarehouseID uuid.UUID `json:"warehouse_id" db:"warehouse_id"`
	Size        string    `json:"size" db:"size"`
	Price       string    `json:"price" db:"price"` // free-text, display only
	Status      LotStatus `json:"status" db:"status"`
	Audit
}

// IsRentable reports whether the lot can be attached to a new rental detail.
func (l *Lot) IsRentable() bool {
	return l.Status == LotStatusAvailable && !l.IsDeleted()
}
