package service

import (
	"context"
	"errors"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

type accessService struct {
	users database.UserRepository
}

func NewAccessService(users database.UserRepository) AccessService {
	return &accessService{users: users}
}

// Resolve maps a user id to a caller identity. Unknown users and lookup
// failures resolve to an unrecognized caller.
func (s *accessService) Resolve(ctx context.Context, userID int64) entity.CallerIdentity {
	if userID <= 0 {
		return entity.Unrecognized()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, entity.ErrUserNotFound) {
			logrus.WithError(err).WithField("user_id", userID).Error("Failed to resolve caller")
		}
		return entity.Unrecognized()
	}

	switch user.Role {
	case entity.RoleCustomer, entity.RoleOrganiser:
		return entity.CallerIdentity{Role: user.Role, ID: user.ID, Email: user.Email}
	}
	return entity.Unrecognized()
}

// BookingScope returns the filter limiting which bookings caller may see:
// customers see their own, organisers see bookings on their events.
func (s *accessService) BookingScope(caller entity.CallerIdentity) (entity.BookingFilter, error) {
	if id, ok := caller.CustomerID(); ok {
		return entity.BookingFilter{CustomerID: id}, nil
	}
	if id, ok := caller.OrganiserID(); ok {
		return entity.BookingFilter{OrganiserID: id}, nil
	}
	return entity.BookingFilter{}, entity.ErrNotAValidUser
}
