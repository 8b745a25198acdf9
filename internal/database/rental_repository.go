package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// RentalRepository handles rental and rental detail database operations
type RentalRepository struct {
	db *sqlx.DB
}

// NewRentalRepository creates a new RentalRepository
func NewRentalRepository(db *sqlx.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

const rentalColumns = `id, customer_id, sales_id, warehouse_id, contract_id, status, created_at, updated_at, deleted_at`

const detailColumns = `id, rental_id, lot_id, additional_service_id, start_date, end_date, status`

// CreateWithDetails inserts a rental and all its details and reserves every
// referenced lot in a single transaction. If any lot is not rentable the
// whole creation rolls back and nothing is written.
func (r *RentalRepository) CreateWithDetails(rental *models.Rental) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rental.ID = uuid.New()
	rental.Audit = models.NewAudit()
	rental.Status = models.RentalStatusPending

	query := `
		INSERT INTO rentals (
			id, customer_id, sales_id, warehouse_id, contract_id, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`
	_, err = tx.Exec(query,
		rental.ID, rental.CustomerID, rental.SalesID, rental.WarehouseID,
		rental.ContractID, rental.Status, rental.CreatedAt, rental.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rental: %w", err)
	}

	for i := range rental.Details {
		d := &rental.Details[i]
		d.ID = uuid.New()
		d.RentalID = rental.ID
		d.Status = models.DetailStatusPending

		_, err = tx.Exec(`
			INSERT INTO rental_details (
				id, rental_id, lot_id, additional_service_id, start_date, end_date, status
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7
			)`,
			d.ID, d.RentalID, d.LotID, d.AdditionalServiceID, d.StartDate, d.EndDate, d.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rental detail: %w", err)
		}
	}

	// Reserve every lot; a lot that is no longer AVAILABLE aborts the whole
	// rental.
	for _, lotID := range rental.LotIDs() {
		result, err := tx.Exec(`
			UPDATE lots
			SET status = 'reserved', updated_at = NOW()
			WHERE id = $1 AND status = 'available' AND deleted_at IS NULL`,
			lotID,
		)
		if err != nil {
			return fmt.Errorf("failed to reserve lot: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return &models.InvalidTransitionError{
				Entity: "lot",
				From:   "unknown",
				To:     string(models.LotStatusReserved),
				Reason: fmt.Sprintf("lot %s is not available", lotID),
			}
		}
	}

	return tx.Commit()
}

// GetByID retrieves a rental with its details. Cancelled (soft-deleted)
// rentals are still returned so their history stays readable.
func (r *RentalRepository) GetByID(rentalID uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	err := r.db.Get(&rental, query, rentalID)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "rental", Ref: rentalID.String()}
	}
	if err != nil {
		return nil, err
	}

	err = r.db.Select(&rental.Details, `
		SELECT `+detailColumns+`
		FROM rental_details
		WHERE rental_id = $1
		ORDER BY start_date ASC`, rentalID)
	if err != nil {
		return nil, err
	}

	return &rental, nil
}

// ListByCustomer retrieves a customer's rentals, newest first.
func (r *RentalRepository) ListByCustomer(customerID uuid.UUID, limit, offset int) ([]*models.Rental, error) {
	var ids []uuid.UUID
	query := `
		SELECT id FROM rentals
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	if err := r.db.Select(&ids, query, customerID, limit, offset); err != nil {
		return nil, err
	}

	rentals := make([]*models.Rental, 0, len(ids))
	for _, id := range ids {
		rental, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
	}
	return rentals, nil
}

// UpdateStatusCAS updates a rental's status only if it still has the
// expected current status. Returns false when the rental moved on.
func (r *RentalRepository) UpdateStatusCAS(rentalID uuid.UUID, from, to models.RentalStatus) (bool, error) {
	query := `
		UPDATE rentals
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`
	result, err := r.db.Exec(query, rentalID, from, to)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// AttachContract links a signed contract to a rental.
func (r *RentalRepository) AttachContract(rentalID, contractID uuid.UUID) error {
	query := `
		UPDATE rentals
		SET contract_id = $2, updated_at = NOW()
		WHERE id = $1`
	result, err := r.db.Exec(query, rentalID, contractID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &models.NotFoundError{Entity: "rental", Ref: rentalID.String()}
	}
	return nil
}

// ListPastEnd returns running rentals whose latest detail end date has
// passed, in batches.
func (r *RentalRepository) ListPastEnd(now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT r.id
		FROM rentals r
		WHERE r.status IN ('active', 'overdue')
		  AND NOT EXISTS (
			SELECT 1 FROM rental_details d
			WHERE d.rental_id = r.id
			  AND d.status IN ('pending', 'active')
			  AND d.end_date > $1
		  )
		LIMIT $2`
	err := r.db.Select(&ids, query, now, limit)
	return ids, err
}

// ListWithStalePendingPayment returns active rentals that initiated a
// renewal payment which has been pending longer than the timeout.
func (r *RentalRepository) ListWithStalePendingPayment(cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT DISTINCT r.id
		FROM rentals r
		JOIN payments p ON p.rental_id = r.id
		WHERE r.status = 'active'
		  AND p.status = 'pending'
		  AND p.created_at < $1
		LIMIT $2`
	err := r.db.Select(&ids, query, cutoff, limit)
	return ids, err
}

// CloseRentalTx atomically moves a rental to a terminal status, completes
// its open details, and releases the occupied lots. Used by both the
// expiration sweep and manual contract end.
func (r *RentalRepository) CloseRentalTx(rentalID uuid.UUID, to models.RentalStatus) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := closeRentalInTx(tx, rentalID, to); err != nil {
		return err
	}

	return tx.Commit()
}

// closeRentalInTx is the shared close-out cascade, also reused inside the
// payment reconciliation transaction.
func closeRentalInTx(tx *sqlx.Tx, rentalID uuid.UUID, to models.RentalStatus) error {
	result, err := tx.Exec(`
		UPDATE rentals
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('active', 'overdue')`,
		rentalID, to,
	)
	if err != nil {
		return fmt.Errorf("failed to close rental: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &models.InvalidTransitionError{
			Entity: "rental",
			From:   "unknown",
			To:     string(to),
			Reason: "rental is not running",
		}
	}

	_, err = tx.Exec(`
		UPDATE lots
		SET status = 'available', updated_at = NOW()
		WHERE id IN (
			SELECT lot_id FROM rental_details
			WHERE rental_id = $1 AND status IN ('pending', 'active')
		)`,
		rentalID,
	)
	if err != nil {
		return fmt.Errorf("failed to release lots: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE rental_details
		SET status = 'completed'
		WHERE rental_id = $1 AND status IN ('pending', 'active')`,
		rentalID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete rental details: %w", err)
	}

	return nil
}

// MarkOverdue flags an active rental whose renewal payment went stale.
func (r *RentalRepository) MarkOverdue(rentalID uuid.UUID) (bool, error) {
	return r.UpdateStatusCAS(rentalID, models.RentalStatusActive, models.RentalStatusOverdue)
}

// Cancel soft-deletes a pending rental and releases its reserved lots.
func (r *RentalRepository) Cancel(rentalID uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE rentals
		SET status = 'cancelled', deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'approved')`,
		rentalID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel rental: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &models.InvalidTransitionError{
			Entity: "rental",
			From:   "unknown",
			To:     string(models.RentalStatusCancelled),
			Reason: "only pending or approved rentals can be cancelled",
		}
	}

	_, err = tx.Exec(`
		UPDATE lots
		SET status = 'available', updated_at = NOW()
		WHERE status = 'reserved' AND id IN (
			SELECT lot_id FROM rental_details WHERE rental_id = $1
		)`,
		rentalID,
	)
	if err != nil {
		return fmt.Errorf("failed to release reserved lots: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE rental_details
		SET status = 'cancelled'
		WHERE rental_id = $1 AND status = 'pending'`,
		rentalID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel rental details: %w", err)
	}

	return tx.Commit()
}
