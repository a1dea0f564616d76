package service

import (
	"context"
	"strings"

	"github.com/ds124wfegd/ticket-booker/internal/database"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/sirupsen/logrus"
)

type userService struct {
	users database.UserRepository
}

func NewUserService(users database.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*entity.User, error) {
	if req == nil || strings.TrimSpace(req.Email) == "" {
		return nil, entity.ErrInvalidInput
	}
	if req.Role != entity.RoleCustomer && req.Role != entity.RoleOrganiser {
		return nil, entity.ErrInvalidInput
	}

	user := &entity.User{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Name:  strings.TrimSpace(req.Name),
		Role:  req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return s.users.GetByID(ctx, id)
}
