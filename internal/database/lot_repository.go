package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// LotRepository handles warehouse lot database operations
type LotRepository struct {
	db *sqlx.DB
}

// NewLotRepository creates a new LotRepository
func NewLotRepository(db *sqlx.DB) *LotRepository {
	return &LotRepository{db: db}
}

const lotColumns = `id, warehouse_id, size, price, status, created_at, updated_at, deleted_at`

// GetByID retrieves a lot by ID. Soft-deleted lots are not returned.
func (r *LotRepository) GetByID(lotID uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.Get(&lot, query, lotID)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "lot", Ref: lotID.String()}
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// ListByWarehouse retrieves all lots of a warehouse, newest first.
func (r *LotRepository) ListByWarehouse(warehouseID uuid.UUID) ([]models.Lot, error) {
	var lots []models.Lot
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE warehouse_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	err := r.db.Select(&lots, query, warehouseID)
	return lots, err
}

// UpdateStatusCAS updates a lot's status only if it still has the expected
// current status. Returns false when another writer got there first.
func (r *LotRepository) UpdateStatusCAS(lotID uuid.UUID, from, to models.LotStatus) (bool, error) {
	query := `
		UPDATE lots
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL`
	result, err := r.db.Exec(query, lotID, from, to)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CountOpenDetails counts non-terminal rental details referencing the lot.
// Used to gate manual lot release.
func (r *LotRepository) CountOpenDetails(lotID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM rental_details
		WHERE lot_id = $1 AND status IN ('pending', 'active')`
	err := r.db.Get(&count, query, lotID)
	return count, err
}

// ListExpiringDetails returns open details whose end date falls inside the
// lookahead window, for the expiring-soon report.
func (r *LotRepository) ListExpiringDetails(now time.Time, lookahead time.Duration) ([]models.RentalDetail, error) {
	var details []models.RentalDetail
	query := `
		SELECT id, rental_id, lot_id, additional_service_id, start_date, end_date, status
		FROM rental_details
		WHERE status = 'active'
		  AND end_date >= $1
		  AND end_date <= $2
		ORDER BY end_date ASC`
	err := r.db.Select(&details, query, now, now.Add(lookahead))
	return details, err
}
