package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/config"
	"github.com/storelink/warehouse-rental-backend/internal/models"
)

// sweepBatchSize bounds how many rentals one sweep pass touches.
const sweepBatchSize = 100

// ExpirationStore is the persistence slice the sweep needs.
type ExpirationStore interface {
	ListPastEnd(now time.Time, limit int) ([]uuid.UUID, error)
	CloseRentalTx(rentalID uuid.UUID, to models.RentalStatus) error
	ListWithStalePendingPayment(cutoff time.Time, limit int) ([]uuid.UUID, error)
	MarkOverdue(rentalID uuid.UUID) (bool, error)
	ListExpiringDetails(now time.Time, lookahead time.Duration) ([]models.RentalDetail, error)
}

// ExpirationService periodically expires rentals that ran past their end
// date, flags rentals with stale renewal payments, and reports details
// expiring soon. Only one sweep runs at a time; a tick that fires while the
// previous pass is still working is skipped.
type ExpirationService struct {
	store  ExpirationStore
	cfg    config.SweepConfig
	logger *logrus.Logger

	running int32
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewExpirationService creates a new ExpirationService
func NewExpirationService(store ExpirationStore, cfg config.SweepConfig, logger *logrus.Logger) *ExpirationService {
	return &ExpirationService{
		store:  store,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *ExpirationService) Start() {
	s.wg.Add(1)
	go s.loop()
	s.logger.WithField("interval", s.cfg.Interval.String()).Info("Expiration sweep started")
}

// Stop terminates the sweep loop and waits for an in-flight pass to finish.
func (s *ExpirationService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Expiration sweep stopped")
}

func (s *ExpirationService) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
				s.logger.Warn("Previous sweep still running, skipping tick")
				continue
			}
			s.RunOnce(time.Now())
			atomic.StoreInt32(&s.running, 0)
		case <-s.stopCh:
			return
		}
	}
}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	Expired       int
	MarkedOverdue int
	ExpiringSoon  int
}

// RunOnce executes a single sweep pass at the given time.
func (s *ExpirationService) RunOnce(now time.Time) SweepReport {
	var report SweepReport

	// Running rentals whose term is over: close them out. Each rental's
	// close is one atomic unit; one failure does not stop the batch.
	pastEnd, err := s.store.ListPastEnd(now, sweepBatchSize)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list past-end rentals")
	}
	for _, rentalID := range pastEnd {
		if err := s.store.CloseRentalTx(rentalID, models.RentalStatusExpired); err != nil {
			s.logger.WithError(err).WithField("rental_id", rentalID).Error("Failed to expire rental")
			continue
		}
		report.Expired++
		s.logger.WithField("rental_id", rentalID).Info("Rental expired, lots released")
	}

	// Active rentals whose renewal payment went stale become overdue.
	cutoff := now.Add(-s.cfg.PaymentTimeout)
	stale, err := s.store.ListWithStalePendingPayment(cutoff, sweepBatchSize)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list rentals with stale payments")
	}
	for _, rentalID := range stale {
		ok, err := s.store.MarkOverdue(rentalID)
		if err != nil {
			s.logger.WithError(err).WithField("rental_id", rentalID).Error("Failed to mark rental overdue")
			continue
		}
		if ok {
			report.MarkedOverdue++
			s.logger.WithField("rental_id", rentalID).Info("Rental marked overdue")
		}
	}

	// Expiring-soon is a report, never a transition.
	expiring, err := s.store.ListExpiringDetails(now, s.cfg.Lookahead)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list expiring details")
	}
	report.ExpiringSoon = len(expiring)

	s.logger.WithFields(logrus.Fields{
		"expired":        report.Expired,
		"marked_overdue": report.MarkedOverdue,
		"expiring_soon":  report.ExpiringSoon,
	}).Info("Expiration sweep finished")

	return report
}
