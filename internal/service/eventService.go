package service

import (
	"context"
	"strings"

	"github.com/ds124wfegd/ticket-booker/internal/clock"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

type eventService struct {
	repos    Repositories
	notifier Kicker
	clock    clock.Clock
}

func NewEventService(repos Repositories, notifier Kicker, clk clock.Clock) EventService {
	return &eventService{
		repos:    repos,
		notifier: notifier,
		clock:    clk,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, caller entity.CallerIdentity, req *EventRequest) (*entity.Event, error) {
	organiserID, ok := caller.OrganiserID()
	if !ok {
		return nil, entity.ErrNotAnOrganiser
	}
	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	event := &entity.Event{
		Name:        req.Name,
		Description: req.Description,
		DateTime:    entity.NewCustomTime(req.DateTime.Time),
		Venue:       req.Venue,
		OrganiserID: organiserID,
	}
	if err := s.repos.Events.Create(ctx, event); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"organiser_id": organiserID,
	}).Info("Event created")
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id int64) (*entity.Event, error) {
	return s.repos.Events.GetByID(ctx, id)
}

func (s *eventService) GetAllEvents(ctx context.Context) ([]*entity.Event, error) {
	return s.repos.Events.GetAll(ctx)
}

// UpdateEvent changes the event and, in the same transaction, queues an
// event_updated notification for every customer holding a live booking.
func (s *eventService) UpdateEvent(ctx context.Context, caller entity.CallerIdentity, id int64, req *EventRequest) (*entity.Event, error) {
	organiserID, ok := caller.OrganiserID()
	if !ok {
		return nil, entity.ErrNotAnOrganiser
	}
	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	var (
		event      *entity.Event
		recipients int
	)
	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.ownedEvent(ctx, id, organiserID)
		if err != nil {
			return err
		}

		event.Name = req.Name
		event.Description = req.Description
		event.DateTime = entity.NewCustomTime(req.DateTime.Time)
		event.Venue = req.Venue
		if err := s.repos.Events.Update(ctx, event); err != nil {
			return err
		}

		emails, err := s.repos.Bookings.CustomerEmailsByEvent(ctx, id)
		if err != nil {
			return err
		}
		recipients = len(emails)
		if recipients == 0 {
			return nil
		}

		msg, err := newOutboxMessage(entity.NotificationEventUpdated, entity.EventUpdatedPayload{
			EventID:        event.ID,
			Event:          event.Summary(),
			CustomerEmails: emails,
		}, s.clock.Now())
		if err != nil {
			return err
		}
		return s.repos.Outbox.Enqueue(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"event_id":   id,
		"recipients": recipients,
	}).Info("Event updated")

	if recipients > 0 && s.notifier != nil {
		s.notifier.Kick()
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, caller entity.CallerIdentity, id int64) error {
	organiserID, ok := caller.OrganiserID()
	if !ok {
		return entity.ErrNotAnOrganiser
	}

	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.ownedEvent(ctx, id, organiserID); err != nil {
			return err
		}
		return s.repos.Events.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	logrus.WithField("event_id", id).Info("Event deleted")
	return nil
}

func (s *eventService) ownedEvent(ctx context.Context, id, organiserID int64) (*entity.Event, error) {
	event, err := s.repos.Events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganiserID != organiserID {
		return nil, entity.ErrNotEventOwner
	}
	return event, nil
}

func validateEventRequest(req *EventRequest) error {
	if req == nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Venue) == "" || req.DateTime.IsZero() {
		return entity.ErrInvalidInput
	}
	return nil
}
