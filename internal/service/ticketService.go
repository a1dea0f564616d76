package service

import (
	"context"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

type ticketService struct {
	repos Repositories
}

func NewTicketService(repos Repositories) TicketService {
	return &ticketService{repos: repos}
}

// CreateTicket adds a tier to an event owned by the caller. Availability
// defaults to the total allotment.
func (s *ticketService) CreateTicket(ctx context.Context, caller entity.CallerIdentity, req *CreateTicketRequest) (*entity.InventoryItem, error) {
	organiserID, ok := caller.OrganiserID()
	if !ok {
		return nil, entity.ErrNotAnOrganiser
	}
	if req == nil || req.TotalAllotment < 0 || req.UnitPrice < 0 {
		return nil, entity.ErrInvalidInput
	}
	if !req.Kind.Valid() {
		return nil, entity.ErrInvalidTierKind
	}

	availability := req.TotalAllotment
	if req.Availability != nil {
		availability = *req.Availability
	}
	if availability < 0 || availability > req.TotalAllotment {
		return nil, entity.ErrInvalidInput
	}

	item := &entity.InventoryItem{
		EventID:        req.EventID,
		Kind:           req.Kind,
		TotalAllotment: req.TotalAllotment,
		Availability:   availability,
		UnitPrice:      req.UnitPrice,
	}
	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.checkEventOwner(ctx, req.EventID, organiserID); err != nil {
			return err
		}
		return s.repos.Inventory.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"item_id":  item.ID,
		"event_id": item.EventID,
	}).Info("Ticket tier created")
	return item, nil
}

func (s *ticketService) GetTicket(ctx context.Context, id int64) (*entity.InventoryItem, error) {
	return s.repos.Inventory.GetByID(ctx, id)
}

func (s *ticketService) GetEventTickets(ctx context.Context, eventID int64) ([]*entity.InventoryItem, error) {
	if _, err := s.repos.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repos.Inventory.GetByEvent(ctx, eventID)
}

// UpdateTicket changes the kind or price of a tier. Allotment and
// availability are never touched here.
func (s *ticketService) UpdateTicket(ctx context.Context, caller entity.CallerIdentity, id int64, req *UpdateTicketRequest) (*entity.InventoryItem, error) {
	organiserID, ok := caller.OrganiserID()
	if !ok {
		return nil, entity.ErrNotAnOrganiser
	}
	if req == nil {
		return nil, entity.ErrInvalidInput
	}
	if req.Kind != nil && !req.Kind.Valid() {
		return nil, entity.ErrInvalidTierKind
	}
	if req.UnitPrice != nil && *req.UnitPrice < 0 {
		return nil, entity.ErrInvalidInput
	}

	var item *entity.InventoryItem
	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.repos.Inventory.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkEventOwner(ctx, item.EventID, organiserID); err != nil {
			return err
		}

		if req.Kind != nil {
			item.Kind = *req.Kind
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		return s.repos.Inventory.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ticketService) checkEventOwner(ctx context.Context, eventID, organiserID int64) error {
	event, err := s.repos.Events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganiserID != organiserID {
		return entity.ErrNotEventOwner
	}
	return nil
}
