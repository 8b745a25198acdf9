package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the outcome of a payment attempt.
// Matches PostgreSQL ENUM: payment_status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment is one attempted or completed transaction against a rental,
// mediated by the external gateway. The transaction reference stays nil
// until the redirect URL has been issued; bank/card metadata arrives only
// with the gateway callback.
type Payment struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	UserID    uuid.UUID     `json:"user_id" db:"user_id"`
	RentalID  *uuid.UUID    `json:"rental_id,omitempty" db:"rental_id"`
	Amount    int64         `json:"amount" db:"amount"` // major currency units
	OrderInfo string        `json:"order_info" db:"order_info"`
	TxnRef    *string       `json:"txn_ref,omitempty" db:"txn_ref"`
	Status    PaymentStatus `json:"status" db:"status"`

	// Gateway callback metadata
	GatewayTxnID string     `json:"gateway_txn_id,omitempty" db:"gateway_txn_id"`
	BankCode     string     `json:"bank_code,omitempty" db:"bank_code"`
	CardType     string     `json:"card_type,omitempty" db:"card_type"`
	PaidAt       *time.Time `json:"paid_at,omitempty" db:"paid_at"`

	Audit
}

// IsTerminal reports whether the payment has already been reconciled.
// A terminal payment must never be transitioned again; duplicate callbacks
// return the recorded outcome instead.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
