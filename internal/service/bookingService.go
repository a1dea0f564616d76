package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/ticket-booker/internal/clock"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

type bookingService struct {
	repos    Repositories
	access   AccessService
	notifier Kicker
	clock    clock.Clock
	retry    RetryPolicy
}

func NewBookingService(
	repos Repositories,
	access AccessService,
	notifier Kicker,
	clk clock.Clock,
	retry RetryPolicy,
) BookingService {
	return &bookingService{
		repos:    repos,
		access:   access,
		notifier: notifier,
		clock:    clk,
		retry:    retry,
	}
}

// CreateBooking reserves every requested line in submission order and
// stores the booking. Either all lines are reserved or none are.
func (s *bookingService) CreateBooking(ctx context.Context, caller entity.CallerIdentity, req *CreateBookingRequest) (*entity.Booking, error) {
	customerID, ok := caller.CustomerID()
	if !ok {
		return nil, entity.ErrNotACustomer
	}

	lines, err := parseLines(req)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		if _, err := s.repos.Inventory.GetByID(ctx, l.TicketItemID); err != nil {
			return nil, err
		}
	}

	var booking *entity.Booking
	err = runTx(ctx, s.repos.Tx, s.retry, "create_booking", func(ctx context.Context) error {
		booking = &entity.Booking{
			CustomerID: customerID,
			Lines:      append([]entity.SubBookingLine(nil), lines...),
		}

		for i := range booking.Lines {
			line := &booking.Lines[i]
			item, err := s.repos.Inventory.Reserve(ctx, line.TicketItemID, line.Quantity)
			if err != nil {
				return err
			}
			line.UnitPrice = item.UnitPrice
			booking.TotalPrice += item.UnitPrice * int64(line.Quantity)
		}
		booking.SetStatus(entity.BookingStatusBooked)

		if err := s.repos.Bookings.Create(ctx, booking); err != nil {
			return err
		}

		msg, err := newOutboxMessage(entity.NotificationBookingConfirmed, entity.BookingConfirmedPayload{
			BookingID:     booking.ID,
			TicketItemIDs: booking.TicketItemIDs(),
			CustomerEmail: caller.Email,
		}, s.clock.Now())
		if err != nil {
			return err
		}
		return s.repos.Outbox.Enqueue(ctx, msg)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"customer_id": customerID,
			"lines":       len(lines),
		}).WithError(err).Info("Booking rejected")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"customer_id": customerID,
		"total_price": booking.TotalPrice,
	}).Info("Booking created")

	if s.notifier != nil {
		s.notifier.Kick()
	}
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, caller entity.CallerIdentity, id int64) (*entity.Booking, error) {
	scope, err := s.access.BookingScope(caller)
	if err != nil {
		return nil, err
	}

	visible, err := s.repos.Bookings.Visible(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to check booking visibility: %w", err)
	}
	if !visible {
		return nil, entity.ErrBookingNotFound
	}
	return s.repos.Bookings.GetByID(ctx, id)
}

func (s *bookingService) ListBookings(ctx context.Context, caller entity.CallerIdentity) ([]*entity.Booking, error) {
	scope, err := s.access.BookingScope(caller)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repos.Bookings.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// parseLines rejects an empty request and any line without a ticket
// reference or with a non-positive count.
func parseLines(req *CreateBookingRequest) ([]entity.SubBookingLine, error) {
	if req == nil || len(req.Lines) == 0 {
		return nil, entity.ErrInvalidLineData
	}

	lines := make([]entity.SubBookingLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		if l.TicketID == nil || l.Count == nil || *l.Count <= 0 {
			return nil, entity.ErrInvalidLineData
		}
		lines = append(lines, entity.SubBookingLine{
			TicketItemID: *l.TicketID,
			Quantity:     *l.Count,
		})
	}
	return lines, nil
}
