package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/models"
	"github.com/storelink/warehouse-rental-backend/pkg/mail"
)

// NotificationService mails rental lifecycle events to the operations
// mailbox. Delivery failures are logged, never propagated; notifications
// must not fail the transition that triggered them.
type NotificationService struct {
	mailer     mail.Mailer
	recipients []string
	logger     *logrus.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(mailer mail.Mailer, recipients []string, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		mailer:     mailer,
		recipients: recipients,
		logger:     logger,
	}
}

// RentalCreated notifies managers that a new rental awaits approval.
func (s *NotificationService) RentalCreated(rental *models.Rental) {
	subject := fmt.Sprintf("New rental %s awaiting approval", rental.ID)
	body := fmt.Sprintf(
		"Rental %s was created for customer %s with %d lot(s).\nPlease review and approve it.",
		rental.ID, rental.CustomerID, len(rental.Details),
	)
	s.send(rental, subject, body)
}

// RentalApproved notifies that a rental was approved and awaits payment.
func (s *NotificationService) RentalApproved(rental *models.Rental) {
	subject := fmt.Sprintf("Rental %s approved", rental.ID)
	body := fmt.Sprintf(
		"Rental %s for customer %s was approved and now awaits its first payment.",
		rental.ID, rental.CustomerID,
	)
	s.send(rental, subject, body)
}

func (s *NotificationService) send(rental *models.Rental, subject, body string) {
	if len(s.recipients) == 0 {
		return
	}
	if err := s.mailer.Send(s.recipients, subject, body); err != nil {
		s.logger.WithError(err).WithField("rental_id", rental.ID).Warn("Failed to send notification mail")
	}
}
