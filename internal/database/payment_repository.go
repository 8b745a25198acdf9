package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// ErrDuplicateTxnRef is returned when a generated transaction reference
// collides with an existing payment row. Callers regenerate and retry.
var ErrDuplicateTxnRef = errors.New("transaction reference already in use")

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, rental_id, amount, order_info, txn_ref, status,
	gateway_txn_id, bank_code, card_type, paid_at, created_at, updated_at, deleted_at`

// Create inserts a new pending payment. A unique violation on txn_ref is
// surfaced as ErrDuplicateTxnRef so the caller can regenerate.
func (r *PaymentRepository) Create(payment *models.Payment) error {
	payment.ID = uuid.New()
	payment.Audit = models.NewAudit()
	payment.Status = models.PaymentStatusPending

	query := `
		INSERT INTO payments (
			id, user_id, rental_id, amount, order_info, txn_ref, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`
	_, err := r.db.Exec(query,
		payment.ID, payment.UserID, payment.RentalID, payment.Amount,
		payment.OrderInfo, payment.TxnRef, payment.Status,
		payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateTxnRef
		}
		return err
	}
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	err := r.db.Get(&payment, query, paymentID)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "payment", Ref: paymentID.String()}
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByTxnRef retrieves a payment by its gateway transaction reference.
func (r *PaymentRepository) GetByTxnRef(txnRef string) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE txn_ref = $1`
	err := r.db.Get(&payment, query, txnRef)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "payment", Ref: txnRef}
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByRental retrieves all payments against a rental, newest first.
func (r *PaymentRepository) ListByRental(rentalID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE rental_id = $1
		ORDER BY created_at DESC`
	err := r.db.Select(&payments, query, rentalID)
	return payments, err
}

// PaymentOutcome describes the full effect of one reconciled gateway
// callback: the payment's terminal state plus the rental cascade that must
// land in the same transaction.
type PaymentOutcome struct {
	PaymentID    uuid.UUID
	Status       models.PaymentStatus
	GatewayTxnID string
	BankCode     string
	CardType     string
	PaidAt       *time.Time

	// Rental cascade; RentalID nil means the payment is not tied to a
	// rental and only the payment row changes.
	RentalID     *uuid.UUID
	RentalFrom   models.RentalStatus
	RentalTo     models.RentalStatus
	ActivateLots bool
	CloseAll     bool
}

// ApplyOutcomeTx finalizes a pending payment and applies the rental cascade
// atomically. It returns false without changing anything when the payment
// was already finalized by a concurrent callback.
func (r *PaymentRepository) ApplyOutcomeTx(outcome PaymentOutcome) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Only a pending payment can be finalized; losing this race means a
	// duplicate callback and the recorded outcome stands.
	result, err := tx.Exec(`
		UPDATE payments
		SET status = $2,
		    gateway_txn_id = $3,
		    bank_code = $4,
		    card_type = $5,
		    paid_at = $6,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		outcome.PaymentID, outcome.Status,
		outcome.GatewayTxnID, outcome.BankCode, outcome.CardType, outcome.PaidAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to finalize payment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	if outcome.RentalID != nil && outcome.RentalFrom != outcome.RentalTo {
		switch {
		case outcome.CloseAll:
			if err := closeRentalInTx(tx, *outcome.RentalID, outcome.RentalTo); err != nil {
				return false, err
			}
		case outcome.ActivateLots:
			if err := activateRentalInTx(tx, *outcome.RentalID, outcome.RentalFrom, outcome.RentalTo); err != nil {
				return false, err
			}
		default:
			result, err := tx.Exec(`
				UPDATE rentals
				SET status = $3, updated_at = NOW()
				WHERE id = $1 AND status = $2`,
				*outcome.RentalID, outcome.RentalFrom, outcome.RentalTo,
			)
			if err != nil {
				return false, fmt.Errorf("failed to update rental status: %w", err)
			}
			rows, _ := result.RowsAffected()
			if rows == 0 {
				return false, &models.InvalidTransitionError{
					Entity: "rental",
					From:   string(outcome.RentalFrom),
					To:     string(outcome.RentalTo),
					Reason: "rental moved on since the payment was initiated",
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// activateRentalInTx moves an approved, freshly paid rental into service:
// the rental goes active, every pending detail goes active, and every
// reserved lot becomes occupied.
func activateRentalInTx(tx *sqlx.Tx, rentalID uuid.UUID, from, to models.RentalStatus) error {
	result, err := tx.Exec(`
		UPDATE rentals
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		rentalID, from, to,
	)
	if err != nil {
		return fmt.Errorf("failed to activate rental: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &models.InvalidTransitionError{
			Entity: "rental",
			From:   string(from),
			To:     string(to),
			Reason: "rental moved on since the payment was initiated",
		}
	}

	_, err = tx.Exec(`
		UPDATE lots
		SET status = 'occupied', updated_at = NOW()
		WHERE status = 'reserved' AND id IN (
			SELECT lot_id FROM rental_details
			WHERE rental_id = $1 AND status = 'pending'
		)`,
		rentalID,
	)
	if err != nil {
		return fmt.Errorf("failed to occupy lots: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE rental_details
		SET status = 'active'
		WHERE rental_id = $1 AND status = 'pending'`,
		rentalID,
	)
	if err != nil {
		return fmt.Errorf("failed to activate rental details: %w", err)
	}

	return nil
}
