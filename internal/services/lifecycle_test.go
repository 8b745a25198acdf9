package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

func TestTransitionLot(t *testing.T) {
	t.Run("Available To Reserved For Manager", func(t *testing.T) {
		err := TransitionLot(models.LotStatusAvailable, models.LotStatusReserved, models.RoleManager, 0)
		assert.NoError(t, err)
	})

	t.Run("Reserved To Occupied For Admin", func(t *testing.T) {
		err := TransitionLot(models.LotStatusReserved, models.LotStatusOccupied, models.RoleAdmin, 0)
		assert.NoError(t, err)
	})

	t.Run("Customer Role Rejected", func(t *testing.T) {
		err := TransitionLot(models.LotStatusAvailable, models.LotStatusReserved, models.RoleCustomer, 0)
		assert.True(t, models.IsPermission(err))
	})

	t.Run("Sales Role Rejected", func(t *testing.T) {
		err := TransitionLot(models.LotStatusAvailable, models.LotStatusReserved, models.RoleSales, 0)
		assert.True(t, models.IsPermission(err))
	})

	t.Run("Occupied To Available Rejected With Open Details", func(t *testing.T) {
		err := TransitionLot(models.LotStatusOccupied, models.LotStatusAvailable, models.RoleAdmin, 2)
		require.True(t, models.IsInvalidTransition(err))
		assert.Contains(t, err.Error(), "open")
	})

	t.Run("Occupied To Available Rejected Even Without Open Details", func(t *testing.T) {
		// Releasing a lot goes through end-of-contract, never through the
		// generic status update, regardless of role.
		err := TransitionLot(models.LotStatusOccupied, models.LotStatusAvailable, models.RoleAdmin, 0)
		assert.True(t, models.IsInvalidTransition(err))
	})

	t.Run("Unlisted Pair Rejected", func(t *testing.T) {
		err := TransitionLot(models.LotStatusAvailable, models.LotStatusOccupied, models.RoleManager, 0)
		assert.True(t, models.IsInvalidTransition(err))

		err = TransitionLot(models.LotStatusUnderMaintenance, models.LotStatusReserved, models.RoleAdmin, 0)
		assert.True(t, models.IsInvalidTransition(err))
	})
}

func TestRentalPaymentTransition(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	t.Run("Approved Plus Success Activates", func(t *testing.T) {
		tr := RentalPaymentTransition(models.RentalStatusApproved, models.PaymentStatusSuccess, now, future)
		assert.Equal(t, models.RentalStatusActive, tr.RentalStatus)
		assert.True(t, tr.ActivateLots)
		assert.False(t, tr.CloseAll)
	})

	t.Run("Failed Payment Changes Nothing", func(t *testing.T) {
		tr := RentalPaymentTransition(models.RentalStatusApproved, models.PaymentStatusFailed, now, future)
		assert.Equal(t, models.RentalStatusApproved, tr.RentalStatus)
		assert.False(t, tr.ActivateLots)
		assert.False(t, tr.CloseAll)
	})

	t.Run("Overdue Recovers Before End Date", func(t *testing.T) {
		tr := RentalPaymentTransition(models.RentalStatusOverdue, models.PaymentStatusSuccess, now, future)
		assert.Equal(t, models.RentalStatusActive, tr.RentalStatus)
		assert.False(t, tr.ActivateLots)
		assert.False(t, tr.CloseAll)
	})

	t.Run("Overdue Paid After End Date Expires", func(t *testing.T) {
		tr := RentalPaymentTransition(models.RentalStatusOverdue, models.PaymentStatusSuccess, now, past)
		assert.Equal(t, models.RentalStatusExpired, tr.RentalStatus)
		assert.True(t, tr.CloseAll)
	})

	t.Run("Active Renewal Success Stays Active", func(t *testing.T) {
		tr := RentalPaymentTransition(models.RentalStatusActive, models.PaymentStatusSuccess, now, future)
		assert.Equal(t, models.RentalStatusActive, tr.RentalStatus)
		assert.False(t, tr.ActivateLots)
		assert.False(t, tr.CloseAll)
	})
}

func TestValidateDetails(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	valid := models.RentalDetail{
		LotID:     uuid.New(),
		StartDate: now.Add(48 * time.Hour),
		EndDate:   now.Add(10 * 24 * time.Hour),
	}

	t.Run("Valid Details Pass", func(t *testing.T) {
		second := valid
		second.LotID = uuid.New()
		err := ValidateDetails([]models.RentalDetail{valid, second}, now)
		assert.NoError(t, err)
	})

	t.Run("Same Lot In Two Details Rejected", func(t *testing.T) {
		// Two non-terminal details on one lot would hold it with a single
		// reservation; the batch must not reach the database.
		err := ValidateDetails([]models.RentalDetail{valid, valid}, now)
		require.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "more than one detail")
	})

	t.Run("Empty Details Rejected", func(t *testing.T) {
		err := ValidateDetails(nil, now)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("Start Date Too Soon", func(t *testing.T) {
		bad := valid
		bad.StartDate = now.Add(2 * time.Hour)
		err := ValidateDetails([]models.RentalDetail{bad}, now)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("End Date Too Close To Start", func(t *testing.T) {
		bad := valid
		bad.EndDate = bad.StartDate.Add(12 * time.Hour)
		err := ValidateDetails([]models.RentalDetail{bad}, now)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("One Bad Detail Fails The Batch", func(t *testing.T) {
		bad := valid
		bad.StartDate = now
		err := ValidateDetails([]models.RentalDetail{valid, bad}, now)
		assert.True(t, models.IsValidation(err))
	})
}
