package service

import (
	"context"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

type cancellationService struct {
	repos Repositories
	retry RetryPolicy
}

func NewCancellationService(repos Repositories, retry RetryPolicy) CancellationService {
	return &cancellationService{repos: repos, retry: retry}
}

// CancelBooking gives every line's quantity back to its inventory item and
// marks the booking cancelled, in one transaction.
func (s *cancellationService) CancelBooking(ctx context.Context, caller entity.CallerIdentity, bookingID int64) error {
	customerID, ok := caller.CustomerID()
	if !ok {
		return entity.ErrNotACustomer
	}

	var released int
	err := runTx(ctx, s.repos.Tx, s.retry, "cancel_booking", func(ctx context.Context) error {
		booking, err := s.repos.Bookings.GetWithLock(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.CustomerID != customerID {
			return entity.ErrNotOwner
		}
		if booking.Status == entity.BookingStatusCancelled {
			return entity.ErrAlreadyCancelled
		}

		released = 0
		for _, line := range booking.Lines {
			if _, err := s.repos.Inventory.Release(ctx, line.TicketItemID, line.Quantity); err != nil {
				return err
			}
			released += line.Quantity
		}
		return s.repos.Bookings.UpdateStatus(ctx, bookingID, entity.BookingStatusCancelled)
	})

	log := logrus.WithFields(logrus.Fields{
		"booking_id":  bookingID,
		"customer_id": customerID,
	})
	if err != nil {
		log.WithError(err).Info("Cancellation rejected")
		return err
	}

	log.WithField("released", released).Info("Booking cancelled")
	return nil
}
