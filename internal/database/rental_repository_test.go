package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

func newRental(lotIDs ...uuid.UUID) *models.Rental {
	start := time.Now().Add(48 * time.Hour)
	end := start.Add(30 * 24 * time.Hour)

	rental := &models.Rental{
		CustomerID:  uuid.New(),
		SalesID:     uuid.New(),
		WarehouseID: uuid.New(),
	}
	for _, lotID := range lotIDs {
		rental.Details = append(rental.Details, models.RentalDetail{
			LotID:     lotID,
			StartDate: start,
			EndDate:   end,
		})
	}
	return rental
}

func TestCreateWithDetails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRentalRepository(db)

	t.Run("Success", func(t *testing.T) {
		lotA, lotB := uuid.New(), uuid.New()
		rental := newRental(lotA, lotB)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO rentals`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO rental_details`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO rental_details`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE lots`).
			WithArgs(lotA).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE lots`).
			WithArgs(lotB).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CreateWithDetails(rental)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, rental.ID)
		assert.Equal(t, models.RentalStatusPending, rental.Status)
		for _, d := range rental.Details {
			assert.Equal(t, rental.ID, d.RentalID)
			assert.Equal(t, models.DetailStatusPending, d.Status)
		}

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unavailable Lot Rolls Everything Back", func(t *testing.T) {
		lotA, lotB := uuid.New(), uuid.New()
		rental := newRental(lotA, lotB)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO rentals`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO rental_details`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO rental_details`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE lots`).
			WithArgs(lotA).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// Second lot was taken in the meantime: zero rows touched.
		mock.ExpectExec(`UPDATE lots`).
			WithArgs(lotB).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CreateWithDetails(rental)
		assert.True(t, models.IsInvalidTransition(err))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateStatusCAS(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRentalRepository(db)

	rentalID := uuid.New()

	t.Run("Wins The Race", func(t *testing.T) {
		mock.ExpectExec(`UPDATE rentals`).
			WithArgs(rentalID, models.RentalStatusPending, models.RentalStatusApproved).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateStatusCAS(rentalID, models.RentalStatusPending, models.RentalStatusApproved)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Loses The Race", func(t *testing.T) {
		mock.ExpectExec(`UPDATE rentals`).
			WithArgs(rentalID, models.RentalStatusPending, models.RentalStatusApproved).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateStatusCAS(rentalID, models.RentalStatusPending, models.RentalStatusApproved)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCloseRentalTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRentalRepository(db)

	rentalID := uuid.New()

	t.Run("Closes Rental Details And Lots Together", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE rentals`).
			WithArgs(rentalID, models.RentalStatusExpired).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE lots`).
			WithArgs(rentalID).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`UPDATE rental_details`).
			WithArgs(rentalID).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := repo.CloseRentalTx(rentalID, models.RentalStatusExpired)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rental Not Running", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE rentals`).
			WithArgs(rentalID, models.RentalStatusExpired).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CloseRentalTx(rentalID, models.RentalStatusExpired)
		assert.True(t, models.IsInvalidTransition(err))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetRentalByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRentalRepository(db)

	rentalColumnsList := []string{
		"id", "customer_id", "sales_id", "warehouse_id", "contract_id", "status",
		"created_at", "updated_at", "deleted_at",
	}
	detailColumnsList := []string{
		"id", "rental_id", "lot_id", "additional_service_id", "start_date", "end_date", "status",
	}

	t.Run("Loads Details", func(t *testing.T) {
		rentalID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM rentals WHERE id = \$1`).
			WithArgs(rentalID).
			WillReturnRows(sqlmock.NewRows(rentalColumnsList).AddRow(
				rentalID, uuid.New(), uuid.New(), uuid.New(), nil, "active", now, now, nil,
			))
		mock.ExpectQuery(`SELECT (.+) FROM rental_details`).
			WithArgs(rentalID).
			WillReturnRows(sqlmock.NewRows(detailColumnsList).
				AddRow(uuid.New(), rentalID, uuid.New(), nil, now, now.Add(30*24*time.Hour), "active").
				AddRow(uuid.New(), rentalID, uuid.New(), nil, now, now.Add(60*24*time.Hour), "active"))

		rental, err := repo.GetByID(rentalID)
		require.NoError(t, err)
		assert.Equal(t, models.RentalStatusActive, rental.Status)
		assert.Len(t, rental.Details, 2)
		assert.WithinDuration(t, now.Add(60*24*time.Hour), rental.EndDate(), time.Second)
	})

	t.Run("Not Found", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM rentals WHERE id = \$1`).
			WithArgs(missing).
			WillReturnRows(sqlmock.NewRows(rentalColumnsList))

		_, err := repo.GetByID(missing)
		assert.True(t, models.IsNotFound(err))
	})
}
