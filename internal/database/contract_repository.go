package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// ContractRepository handles contract and contract image database operations
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository creates a new ContractRepository
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts a contract together with its image attachments in one
// transaction.
func (r *ContractRepository) Create(contract *models.Contract) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	contract.ID = uuid.New()
	contract.Audit = models.NewAudit()

	_, err = tx.Exec(`
		INSERT INTO contracts (id, signed_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		contract.ID, contract.SignedAt, contract.ExpiresAt,
		contract.CreatedAt, contract.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}

	for i := range contract.Images {
		img := &contract.Images[i]
		img.ID = uuid.New()
		img.ContractID = contract.ID
		img.Position = i

		_, err = tx.Exec(`
			INSERT INTO contract_images (id, contract_id, url, position)
			VALUES ($1, $2, $3, $4)`,
			img.ID, img.ContractID, img.URL, img.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contract image: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a contract with its images in upload order.
func (r *ContractRepository) GetByID(contractID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	query := `
		SELECT id, signed_at, expires_at, created_at, updated_at, deleted_at
		FROM contracts
		WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.Get(&contract, query, contractID)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "contract", Ref: contractID.String()}
	}
	if err != nil {
		return nil, err
	}

	err = r.db.Select(&contract.Images, `
		SELECT id, contract_id, url, position
		FROM contract_images
		WHERE contract_id = $1
		ORDER BY position ASC`, contractID)
	if err != nil {
		return nil, err
	}

	return &contract, nil
}

// SetSigned stamps the contract as signed.
func (r *ContractRepository) SetSigned(contractID uuid.UUID) error {
	result, err := r.db.Exec(`
		UPDATE contracts
		SET signed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND signed_at IS NULL AND deleted_at IS NULL`,
		contractID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &models.NotFoundError{Entity: "contract", Ref: contractID.String()}
	}
	return nil
}
