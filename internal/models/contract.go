package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract is the signed legal document backing a rental. Its lifetime is
// independent of the rental that references it.
type Contract struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	SignedAt  *time.Time `json:"signed_at,omitempty" db:"signed_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Audit

	Images []ContractImage `json:"images,omitempty" db:"-"`
}

// ContractImage is one scanned page or photo attached to a contract,
// kept in upload order.
type ContractImage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ContractID uuid.UUID `json:"contract_id" db:"contract_id"`
	URL        string    `json:"url" db:"url"`
	Position   int       `json:"position" db:"position"`
}
